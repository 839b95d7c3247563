// Package plan builds the weekly diet and workout plan from a profile using retrieved fitness
// knowledge and the exercise catalog, then repairs and enriches what the model returns.
package plan

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/health"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
)

//go:embed prompt/plan.md
var planPromptRaw string

var planPromptTmpl = template.Must(template.New("plan").Parse(planPromptRaw))

// UnknownBodyFat replaces a missing body fat percentage in the prompt.
const UnknownBodyFat = "Unknown"

// KnowledgeRetriever returns reference text for a query.
type KnowledgeRetriever interface {
	RetrieveContext(ctx context.Context, query string) (string, error)
}

// ExerciseCatalog lists and resolves catalog exercises.
type ExerciseCatalog interface {
	Exercises() []*model.Exercise
	FindExercise(ctx context.Context, name string) (*model.Exercise, bool, error)
}

type Generator struct {
	llm       adapter.Generator
	knowledge KnowledgeRetriever
	catalog   ExerciseCatalog
	validator *jsonschema.Resolved
}

func New(llm adapter.Generator, knowledge KnowledgeRetriever, catalog ExerciseCatalog) (*Generator, error) {
	validator, err := schema(false).Resolve(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve plan schema")
	}
	return &Generator{
		llm:       llm,
		knowledge: knowledge,
		catalog:   catalog,
		validator: validator,
	}, nil
}

var knowledgeQueries = map[model.Goal]string{
	model.GoalWeightLoss:    "principles of fat loss: calorie deficit, high protein intake to preserve muscle, resistance training and daily activity",
	model.GoalMuscleGain:    "principles of muscle hypertrophy: progressive overload, training volume and frequency, protein intake in a calorie surplus",
	model.GoalRecomposition: "principles of body recomposition: resistance training with progressive overload and high protein intake at maintenance calories",
}

// knowledgeQuery is the retrieval query for the fitness principles of a goal.
func knowledgeQuery(goal model.Goal) string {
	if q, ok := knowledgeQueries[goal]; ok {
		return q
	}
	return knowledgeQueries[model.GoalWeightLoss]
}

// promptProfile renders the profile as JSON for the prompt. A body fat percentage that is
// zero or absent becomes UnknownBodyFat.
func promptProfile(p *model.UserProfile) (string, error) {
	var bodyFat any = UnknownBodyFat
	if p.BodyFatPercentage.IsSet() {
		bodyFat = p.BodyFatPercentage
	}

	fields := map[string]any{
		"goal":                p.Goal,
		"weight_kg":           p.WeightKg,
		"height_cm":           p.HeightCm,
		"age":                 p.Age,
		"gender":              p.Gender,
		"activity_level":      p.ActivityLevel,
		"body_fat_percentage": bodyFat,
	}
	if p.Name != "" {
		fields["name"] = p.Name
	}
	if p.Allergies != "" {
		fields["allergies"] = p.Allergies
	}
	if p.BMI.IsSet() {
		fields["bmi"] = p.BMI
	}
	if p.GoalWeightKg.IsSet() {
		fields["goal_weight_kg"] = p.GoalWeightKg
	}

	raw, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal profile for prompt")
	}
	return string(raw), nil
}

// Prompt composes the generation request for profile and returns it with the calorie target.
func (g *Generator) Prompt(ctx context.Context, profile *model.UserProfile) (string, int, error) {
	tdee := health.TDEE(ctx, profile)
	target, strategy := health.Target(profile.Goal, tdee)

	knowledge, err := g.knowledge.RetrieveContext(ctx, knowledgeQuery(profile.Goal))
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to retrieve fitness principles", goerr.V("goal", profile.Goal))
	}

	exercises := g.catalog.Exercises()
	lines := make([]string, 0, len(exercises))
	for _, ex := range exercises {
		lines = append(lines, ex.CatalogLine())
	}

	profileJSON, err := promptProfile(profile)
	if err != nil {
		return "", 0, err
	}

	var buf bytes.Buffer
	if err := planPromptTmpl.Execute(&buf, map[string]any{
		"Profile":        profileJSON,
		"Strategy":       strategy,
		"TargetCalories": target,
		"Allergies":      strings.TrimSpace(profile.Allergies),
		"Knowledge":      knowledge,
		"Exercises":      lines,
		"Days":           model.PlanDays,
	}); err != nil {
		return "", 0, goerr.Wrap(err, "failed to execute plan prompt template")
	}

	logging.From(ctx).Debug("plan prompt composed",
		"tdee", tdee,
		"target_calories", target,
		"catalog_exercises", len(lines),
	)
	return buf.String(), target, nil
}

// Generate asks the model for a plan and returns it repaired and enriched. Unusable output is
// reported as *FormatError.
func (g *Generator) Generate(ctx context.Context, profile *model.UserProfile) (*model.Plan, error) {
	prompt, target, err := g.Prompt(ctx, profile)
	if err != nil {
		return nil, err
	}

	raw, err := g.llm.Generate(ctx, prompt, adapter.WithSchema(Schema()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate plan")
	}

	plan, err := g.Parse(raw)
	if err != nil {
		logging.From(ctx).Warn("model returned unusable plan", "error", err, "response", truncate(raw, 500))
		return nil, err
	}

	Repair(plan, target)
	g.Enrich(ctx, plan)
	return plan, nil
}

// Parse extracts, sanitizes, decodes and validates the model output.
func (g *Generator) Parse(raw string) (*model.Plan, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	text = StripComments(text)

	var instance any
	if err := json.Unmarshal([]byte(text), &instance); err != nil {
		return nil, &FormatError{Kind: model.PlanErrorInvalidJSON, Raw: raw, Err: err}
	}
	if err := g.validator.Validate(instance); err != nil {
		return nil, &FormatError{Kind: model.PlanErrorSchema, Raw: raw, Err: err}
	}

	var plan model.Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, &FormatError{Kind: model.PlanErrorInvalidJSON, Raw: raw, Err: err}
	}
	plan.Error = nil
	return &plan, nil
}

// Repair pins the calorie goal to target and normalizes the workout plan to exactly PlanDays
// days, padding with rest days.
func Repair(plan *model.Plan, target int) {
	if plan.DietPlan == nil {
		plan.DietPlan = &model.DietPlan{}
	}
	plan.DietPlan.DailyCaloriesGoal = model.Measure(target)

	days := make([]model.WorkoutDay, 0, model.PlanDays)
	for _, day := range plan.WorkoutPlan {
		if len(days) == model.PlanDays {
			break
		}
		exercises := make([]model.PlannedExercise, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			ex.Name = strings.TrimSpace(ex.Name)
			if ex.Name == "" {
				continue
			}
			exercises = append(exercises, ex)
		}
		day.Exercises = exercises
		days = append(days, day)
	}
	for len(days) < model.PlanDays {
		days = append(days, model.WorkoutDay{
			Day:       fmt.Sprintf("Day %d - Rest", len(days)+1),
			Exercises: []model.PlannedExercise{},
		})
	}
	plan.WorkoutPlan = days
}

// Enrich attaches the catalog video link and target muscle to every exercise found in the
// catalog and clears them on the rest. Lookup errors leave the exercise unenriched.
func (g *Generator) Enrich(ctx context.Context, plan *model.Plan) {
	if plan == nil {
		return
	}
	for i := range plan.WorkoutPlan {
		exercises := plan.WorkoutPlan[i].Exercises
		for j := range exercises {
			ex := &exercises[j]
			ex.YoutubeLink, ex.TargetMuscle = "", ""

			found, ok, err := g.catalog.FindExercise(ctx, ex.Name)
			if err != nil {
				logging.From(ctx).Warn("exercise lookup failed", "exercise", ex.Name, "error", err)
				continue
			}
			if !ok {
				continue
			}
			ex.YoutubeLink = found.YoutubeLink
			ex.TargetMuscle = found.TargetMuscle
		}
	}
}

var failureMessages = map[model.PlanErrorKind]string{
	model.PlanErrorNoJSON:      "Failed to generate plan. AI response did not contain a plan.",
	model.PlanErrorInvalidJSON: "Failed to generate plan. AI returned invalid format.",
	model.PlanErrorSchema:      "Failed to generate plan. AI returned an incomplete plan.",
	model.PlanErrorGeneration:  "Failed to generate plan. The AI service is unavailable, please try again later.",
}

// Failure converts a Generate error into the error payload stored in place of a plan.
func Failure(err error) *model.Plan {
	kind := model.PlanErrorGeneration
	var fe *FormatError
	if errors.As(err, &fe) {
		kind = fe.Kind
	}
	return &model.Plan{Error: &model.PlanError{Kind: kind, Message: failureMessages[kind]}}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
