package plan

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mifdirfan/PocketCoach/pkg/model"
)

// Schema is the structure requested from the model. Goal values may arrive as numeric strings.
func Schema() *jsonschema.Schema {
	return schema(true)
}

// schema builds the plan schema. The day count bound is only sent to the model; parsed plans
// with a different count are repaired instead of rejected.
func schema(boundDays bool) *jsonschema.Schema {
	goal := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{Types: []string{"number", "string"}, Description: desc}
	}

	exercise := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":      {Type: "string", Description: "Exercise name from the catalog"},
			"sets_reps": {Type: "string", Description: "Sets and repetitions, e.g. 3 sets of 8-10 reps"},
		},
		Required: []string{"name"},
	}

	workout := &jsonschema.Schema{
		Type:        "array",
		Description: "One entry per day of the week",
		Items: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"day":       {Type: "string", Description: "Day label, e.g. Day 1 - Push"},
				"exercises": {Types: []string{"array", "null"}, Items: exercise, Description: "Empty on rest days"},
			},
			Required: []string{"day"},
		},
	}
	if boundDays {
		days := model.PlanDays
		workout.MinItems = &days
		workout.MaxItems = &days
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"diet_plan": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"daily_calories_goal":  goal("Daily calories in kcal"),
					"daily_protein_goal_g": goal("Daily protein in grams"),
					"daily_carbs_goal_g":   goal("Daily carbohydrates in grams"),
					"daily_fat_goal_g":     goal("Daily fat in grams"),
					"notes":                {Type: "string", Description: "Summary of the diet strategy"},
				},
				Required: []string{"daily_calories_goal", "daily_protein_goal_g", "daily_carbs_goal_g", "daily_fat_goal_g"},
			},
			"workout_plan": workout,
		},
		Required: []string{"diet_plan", "workout_plan"},
	}
}
