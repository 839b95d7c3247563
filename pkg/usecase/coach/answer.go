package coach

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"text/template"

	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

const answerFailed = "Sorry, I couldn't reach the coaching service right now. Please try again in a moment."

// profileSummary is the part of the profile the answer prompt needs. The plan is left out.
func profileSummary(p *model.UserProfile) string {
	summary := map[string]any{
		"status": p.Status,
	}
	set := func(key string, v any, ok bool) {
		if ok {
			summary[key] = v
		}
	}
	set("name", p.Name, p.Name != "")
	set("goal", p.Goal, p.Goal != "")
	set("weight_kg", p.WeightKg, p.WeightKg.IsSet())
	set("goal_weight_kg", p.GoalWeightKg, p.GoalWeightKg.IsSet())
	set("height_cm", p.HeightCm, p.HeightCm.IsSet())
	set("age", p.Age, p.Age.IsSet())
	set("gender", p.Gender, p.Gender != "")
	set("activity_level", p.ActivityLevel, p.ActivityLevel != "")
	set("bmi", p.BMI, p.BMI.IsSet())
	set("body_fat_percentage", p.BodyFatPercentage, p.BodyFatPercentage.IsSet())
	set("allergies", p.Allergies, p.Allergies != "")

	data, err := json.Marshal(summary)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (c *Coach) answer(ctx context.Context, profile *model.UserProfile, message string) (*Reply, error) {
	logger := logging.From(ctx)

	reference, err := c.knowledge.RetrieveContext(ctx, message)
	if err != nil {
		logger.Warn("knowledge retrieval failed", "error", err)
		reference = "No reference material is available."
	}

	var buf bytes.Buffer
	err = answerPromptTmpl.Execute(&buf, struct {
		Profile  string
		Context  string
		Question string
	}{
		Profile:  profileSummary(profile),
		Context:  reference,
		Question: message,
	})
	if err != nil {
		logger.Error("failed to render answer prompt", "error", err)
		return &Reply{Response: answerFailed}, nil
	}

	answer, err := c.llm.Generate(ctx, buf.String())
	if err != nil {
		logger.Warn("answer generation failed", "error", err)
		return &Reply{Response: answerFailed}, nil
	}
	return &Reply{Response: answer}, nil
}
