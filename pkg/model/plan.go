package model

// PlanDays is the number of day entries every workout plan carries.
const PlanDays = 7

// Plan is the generated diet and workout plan stored on the profile.
type Plan struct {
	DietPlan    *DietPlan    `json:"diet_plan,omitempty" firestore:"diet_plan"`
	WorkoutPlan []WorkoutDay `json:"workout_plan,omitempty" firestore:"workout_plan"`

	// Error is set instead of the plan when generation failed.
	Error *PlanError `json:"error,omitempty" firestore:"error"`
}

type DietPlan struct {
	DailyCaloriesGoal Measure `json:"daily_calories_goal" firestore:"daily_calories_goal"`
	DailyProteinGoalG Measure `json:"daily_protein_goal_g" firestore:"daily_protein_goal_g"`
	DailyCarbsGoalG   Measure `json:"daily_carbs_goal_g" firestore:"daily_carbs_goal_g"`
	DailyFatGoalG     Measure `json:"daily_fat_goal_g" firestore:"daily_fat_goal_g"`
	Notes             string  `json:"notes" firestore:"notes"`
}

type WorkoutDay struct {
	Day       string            `json:"day" firestore:"day"`
	Exercises []PlannedExercise `json:"exercises" firestore:"exercises"`
}

// IsRest reports whether the day has no exercises.
func (d WorkoutDay) IsRest() bool { return len(d.Exercises) == 0 }

type PlannedExercise struct {
	Name         string `json:"name" firestore:"name"`
	SetsReps     string `json:"sets_reps" firestore:"sets_reps"`
	YoutubeLink  string `json:"youtube_link,omitempty" firestore:"youtube_link"`
	TargetMuscle string `json:"target-muscle,omitempty" firestore:"target_muscle"`
}

type PlanErrorKind string

const (
	PlanErrorNoJSON      PlanErrorKind = "no_json"
	PlanErrorInvalidJSON PlanErrorKind = "invalid_json"
	PlanErrorSchema      PlanErrorKind = "schema"
	PlanErrorGeneration  PlanErrorKind = "generation_failed"
)

// PlanError is the payload returned in place of a plan the model failed to produce.
type PlanError struct {
	Kind    PlanErrorKind `json:"kind" firestore:"kind"`
	Message string        `json:"message" firestore:"message"`
}

// Failed reports whether the plan is an error payload.
func (p *Plan) Failed() bool { return p != nil && p.Error != nil }

// Goals returns the macro goals of the diet plan, zero when there is none.
func (p *Plan) Goals() Macros {
	if p == nil || p.DietPlan == nil {
		return Macros{}
	}
	d := p.DietPlan
	return Macros{
		Calories: d.DailyCaloriesGoal.Float(),
		Protein:  d.DailyProteinGoalG.Float(),
		Carbs:    d.DailyCarbsGoalG.Float(),
		Fat:      d.DailyFatGoalG.Float(),
	}
}

// Clone returns a deep copy.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := &Plan{}
	if p.DietPlan != nil {
		d := *p.DietPlan
		c.DietPlan = &d
	}
	if p.Error != nil {
		e := *p.Error
		c.Error = &e
	}
	if p.WorkoutPlan != nil {
		c.WorkoutPlan = make([]WorkoutDay, len(p.WorkoutPlan))
		for i, day := range p.WorkoutPlan {
			exercises := make([]PlannedExercise, len(day.Exercises))
			copy(exercises, day.Exercises)
			c.WorkoutPlan[i] = WorkoutDay{Day: day.Day, Exercises: exercises}
		}
	}
	return c
}
