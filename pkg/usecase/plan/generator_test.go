package plan_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/testtools"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/plan"
)

type mockKnowledge struct {
	queries []string
	text    string
}

func (m *mockKnowledge) RetrieveContext(ctx context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.text, nil
}

type mockCatalog struct {
	exercises []*model.Exercise
	findErr   error
}

func (m *mockCatalog) Exercises() []*model.Exercise { return m.exercises }

func (m *mockCatalog) FindExercise(ctx context.Context, name string) (*model.Exercise, bool, error) {
	if m.findErr != nil {
		return nil, false, m.findErr
	}
	for _, ex := range m.exercises {
		if strings.Contains(strings.ToLower(name), strings.ToLower(ex.Name)) {
			found := *ex
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func newCatalog() *mockCatalog {
	return &mockCatalog{exercises: []*model.Exercise{
		{Name: "Bench Press", TargetMuscle: "Chest", YoutubeLink: "https://www.youtube.com/watch?v=bench"},
		{Name: "Squat", TargetMuscle: "Legs", YoutubeLink: "https://www.youtube.com/watch?v=squat"},
		{Name: "Plank", YoutubeLink: "https://www.youtube.com/watch?v=plank"},
	}}
}

func scenarioProfile() *model.UserProfile {
	return &model.UserProfile{
		Status:        model.StatusActiveUser,
		Goal:          model.GoalMuscleGain,
		WeightKg:      68,
		HeightCm:      170,
		Age:           25,
		Gender:        model.GenderMale,
		ActivityLevel: model.ActivityModerate,
	}
}

const modelResponse = "Sure! Here is your plan:\n```json\n" + `{
  "diet_plan": {
    "daily_calories_goal": 2500, // adjusted for you
    "daily_protein_goal_g": "150",
    "daily_carbs_goal_g": 350,
    "daily_fat_goal_g": 80,
    "notes": "Eat in a surplus. See https://example.com/guide for details."
  },
  "workout_plan": [
    {"day": "Day 1 - Push", "exercises": [
      {"name": "Barbell Bench Press", "sets_reps": "3 sets of 8-10 reps"}, // main lift
      {"name": "Cable Crossover", "sets_reps": "3 sets of 12 reps"}
    ]},
    {"day": "Day 2 - Legs", "exercises": [{"name": "Squat", "sets_reps": "5 sets of 5 reps"}]},
    {"day": "Day 3 - Rest", "exercises": []},
    {"day": "Day 4 - Core", "exercises": [{"name": "Plank", "sets_reps": "3 x 60s"}]},
    {"day": "Day 5 - Rest", "exercises": null},
    {"day": "Day 6 - Full Body", "exercises": [{"name": "Squat", "sets_reps": "3 sets of 10 reps"}]}
  ]
}` + "\n```\nThanks and good luck!"

func TestGenerateScenario(t *testing.T) {
	ctx := context.Background()
	knowledge := &mockKnowledge{text: "[Source: hypertrophy.pdf]\nTrain each muscle twice a week."}
	llm := testtools.NewStaticGenerator(modelResponse)

	gen, err := plan.New(llm, knowledge, newCatalog())
	gt.NoError(t, err)

	result, err := gen.Generate(ctx, scenarioProfile())
	gt.NoError(t, err)
	gt.False(t, result.Failed())

	t.Run("calorie goal is the computed target", func(t *testing.T) {
		gt.V(t, result.DietPlan.DailyCaloriesGoal.Int()).Equal(2814)
		gt.V(t, result.DietPlan.DailyProteinGoalG.Float()).Equal(150.0)
		gt.S(t, result.DietPlan.Notes).Contains("https://example.com/guide")
	})

	t.Run("seven days with rest days", func(t *testing.T) {
		gt.A(t, result.WorkoutPlan).Length(model.PlanDays)
		gt.True(t, result.WorkoutPlan[2].IsRest())
		gt.True(t, result.WorkoutPlan[4].IsRest())
		gt.NotNil(t, result.WorkoutPlan[4].Exercises)
		gt.V(t, result.WorkoutPlan[6].Day).Equal("Day 7 - Rest")
		gt.True(t, result.WorkoutPlan[6].IsRest())
	})

	t.Run("exercises enriched from catalog", func(t *testing.T) {
		push := result.WorkoutPlan[0].Exercises
		gt.A(t, push).Length(2)
		gt.V(t, push[0].YoutubeLink).Equal("https://www.youtube.com/watch?v=bench")
		gt.V(t, push[0].TargetMuscle).Equal("Chest")
		gt.V(t, push[1].YoutubeLink).Equal("")
		gt.V(t, push[1].TargetMuscle).Equal("")
		gt.V(t, result.WorkoutPlan[3].Exercises[0].YoutubeLink).Equal("https://www.youtube.com/watch?v=plank")
	})

	t.Run("prompt carries target, knowledge and catalog", func(t *testing.T) {
		prompts := llm.Prompts()
		gt.A(t, prompts).Length(1)
		prompt := prompts[0]
		gt.S(t, prompt).Contains("2814 kcal")
		gt.S(t, prompt).Contains(`"body_fat_percentage": "Unknown"`)
		gt.S(t, prompt).Contains("calorie surplus of 300 kcal")
		gt.S(t, prompt).Contains("Train each muscle twice a week.")
		gt.S(t, prompt).Contains("- Bench Press (Targets: Chest)")
		gt.S(t, prompt).Contains("- Plank (Targets: N/A)")
		gt.S(t, prompt).NotContains("Exclude foods")

		configs := llm.Configs()
		gt.True(t, configs[0].JSON)
		gt.NotNil(t, configs[0].Schema)

		gt.V(t, knowledge.queries).Equal([]string{plan.KnowledgeQueryForTest(model.GoalMuscleGain)})
	})
}

func TestGenerateFormatErrors(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		kind     model.PlanErrorKind
	}{
		{"no object", "I'm sorry, I can't create a plan right now.", model.PlanErrorNoJSON},
		{"unterminated object", `{"diet_plan": {"daily_calories_goal": 2000}`, model.PlanErrorNoJSON},
		{"invalid json", "```json\n{\"diet_plan\": {\"notes\": 'single quoted'}}\n```", model.PlanErrorInvalidJSON},
		{"schema violation", `{"diet_plan": "eat well", "workout_plan": []}`, model.PlanErrorSchema},
		{"missing workout plan", `{"diet_plan": {"daily_calories_goal": 1, "daily_protein_goal_g": 1, "daily_carbs_goal_g": 1, "daily_fat_goal_g": 1}}`, model.PlanErrorSchema},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen, err := plan.New(testtools.NewStaticGenerator(tc.response), &mockKnowledge{}, newCatalog())
			gt.NoError(t, err)

			result, err := gen.Generate(context.Background(), scenarioProfile())
			gt.Error(t, err)
			gt.Nil(t, result)

			var fe *plan.FormatError
			gt.True(t, errors.As(err, &fe))
			gt.V(t, fe.Kind).Equal(tc.kind)

			failure := plan.Failure(err)
			gt.True(t, failure.Failed())
			gt.V(t, failure.Error.Kind).Equal(tc.kind)
			gt.S(t, failure.Error.Message).Contains("Failed to generate plan")
		})
	}
}

func TestGenerateServiceFailure(t *testing.T) {
	llm := &testtools.Generator{
		GenerateFunc: func(ctx context.Context, prompt string, cfg *adapter.GenerateConfig) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	gen, err := plan.New(llm, &mockKnowledge{}, newCatalog())
	gt.NoError(t, err)

	_, err = gen.Generate(context.Background(), scenarioProfile())
	gt.Error(t, err)

	failure := plan.Failure(err)
	gt.V(t, failure.Error.Kind).Equal(model.PlanErrorGeneration)
	gt.Nil(t, failure.DietPlan)
}

func TestPromptMentionsAllergies(t *testing.T) {
	llm := testtools.NewStaticGenerator(modelResponse)
	gen, err := plan.New(llm, &mockKnowledge{text: "notes"}, newCatalog())
	gt.NoError(t, err)

	profile := scenarioProfile()
	profile.Allergies = "peanuts"
	profile.BodyFatPercentage = 18.5

	prompt, target, err := gen.Prompt(context.Background(), profile)
	gt.NoError(t, err)
	gt.V(t, target).Equal(2814)
	gt.S(t, prompt).Contains("Exclude foods the user is allergic to: peanuts.")
	gt.S(t, prompt).Contains(`"body_fat_percentage": 18.5`)
}

func TestEnrichIsIdempotent(t *testing.T) {
	gen, err := plan.New(testtools.NewStaticGenerator(""), &mockKnowledge{}, newCatalog())
	gt.NoError(t, err)

	p, err := gen.Parse(modelResponse)
	gt.NoError(t, err)
	plan.Repair(p, 2814)

	ctx := context.Background()
	gen.Enrich(ctx, p)
	first := p.Clone()
	gen.Enrich(ctx, p)
	gt.Equal(t, p, first)
	gt.V(t, p.WorkoutPlan[1].Exercises[0].TargetMuscle).Equal("Legs")
}

func TestEnrichLookupFailure(t *testing.T) {
	catalog := newCatalog()
	catalog.findErr = errors.New("embedding service down")
	gen, err := plan.New(testtools.NewStaticGenerator(""), &mockKnowledge{}, catalog)
	gt.NoError(t, err)

	p := &model.Plan{WorkoutPlan: []model.WorkoutDay{
		{Day: "Day 1", Exercises: []model.PlannedExercise{{Name: "Squat", YoutubeLink: "https://made.up/link"}}},
	}}
	gen.Enrich(context.Background(), p)
	gt.V(t, p.WorkoutPlan[0].Exercises[0].YoutubeLink).Equal("")
	gt.V(t, p.WorkoutPlan[0].Exercises[0].Name).Equal("Squat")
}

func TestRepair(t *testing.T) {
	t.Run("truncates extra days", func(t *testing.T) {
		p := &model.Plan{DietPlan: &model.DietPlan{DailyCaloriesGoal: 1000}}
		for i := 0; i < 9; i++ {
			p.WorkoutPlan = append(p.WorkoutPlan, model.WorkoutDay{Day: "day"})
		}
		plan.Repair(p, 2200)
		gt.A(t, p.WorkoutPlan).Length(model.PlanDays)
		gt.V(t, p.DietPlan.DailyCaloriesGoal.Int()).Equal(2200)
		for _, d := range p.WorkoutPlan {
			gt.NotNil(t, d.Exercises)
		}
	})

	t.Run("drops unnamed exercises and creates missing diet plan", func(t *testing.T) {
		p := &model.Plan{WorkoutPlan: []model.WorkoutDay{
			{Day: "Day 1", Exercises: []model.PlannedExercise{{Name: "  "}, {Name: " Squat "}}},
		}}
		plan.Repair(p, 1800)
		gt.V(t, p.DietPlan.DailyCaloriesGoal.Int()).Equal(1800)
		gt.A(t, p.WorkoutPlan[0].Exercises).Length(1)
		gt.V(t, p.WorkoutPlan[0].Exercises[0].Name).Equal("Squat")
		gt.V(t, p.WorkoutPlan[1].Day).Equal("Day 2 - Rest")
	})
}

func TestPromptProfile(t *testing.T) {
	profile := scenarioProfile()
	profile.Name = "민수"

	raw, err := plan.PromptProfileForTest(profile)
	gt.NoError(t, err)
	gt.S(t, raw).Contains(`"body_fat_percentage": "Unknown"`)
	gt.S(t, raw).Contains(`"name": "민수"`)
	gt.S(t, raw).NotContains("plans")
	gt.S(t, raw).NotContains("status")
}

func TestKnowledgeQuery(t *testing.T) {
	gt.V(t, plan.KnowledgeQueryForTest(model.GoalUnknown)).Equal(plan.KnowledgeQueryForTest(model.GoalWeightLoss))
	gt.NotEqual(t, plan.KnowledgeQueryForTest(model.GoalRecomposition), plan.KnowledgeQueryForTest(model.GoalMuscleGain))
}
