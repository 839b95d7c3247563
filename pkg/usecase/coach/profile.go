package coach

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/health"
	"github.com/mifdirfan/PocketCoach/pkg/model"
)

const (
	updateClarification  = "I understood you want to update your profile, but I couldn't find which field. Please be more specific, e.g., 'Update my weight to 78kg'."
	bodyFatClarification = "To estimate your body fat, tell me both measurements, e.g., 'My neck is 38cm and waist is 85cm'."
	bodyFatInvalid       = "I couldn't calculate a body fat percentage from those measurements. Please check that your waist is larger than your neck and that your height is set."
)

const number = `(\d+(?:\.\d+)?)`

// assign is the optional connector between a field name and its value.
const assign = `\s*(?:to|is|=|:|을|를|은|는|로|으로)?\s*`

type fieldUpdate struct {
	field   string
	pattern *regexp.Regexp
	apply   func(p *model.UserProfile, value string) (string, bool)
}

func measureField(set func(p *model.UserProfile, m model.Measure)) func(*model.UserProfile, string) (string, bool) {
	return func(p *model.UserProfile, value string) (string, bool) {
		m := model.ParseMeasure(value)
		if !m.IsSet() {
			return "", false
		}
		set(p, m)
		return value, true
	}
}

// fieldUpdates is ordered: goal weight must be consumed before plain weight.
var fieldUpdates = []fieldUpdate{
	{
		field:   "goal_weight_kg",
		pattern: regexp.MustCompile(`(?:\bgoal\s*weight|목표\s*(?:체중|몸무게))` + assign + number),
		apply:   measureField(func(p *model.UserProfile, m model.Measure) { p.GoalWeightKg = m }),
	},
	{
		field:   "weight_kg",
		pattern: regexp.MustCompile(`(?:\bweight|체중|몸무게)` + assign + number),
		apply:   measureField(func(p *model.UserProfile, m model.Measure) { p.WeightKg = m }),
	},
	{
		field:   "height_cm",
		pattern: regexp.MustCompile(`(?:\bheight|키)` + assign + number),
		apply:   measureField(func(p *model.UserProfile, m model.Measure) { p.HeightCm = m }),
	},
	{
		field:   "age",
		pattern: regexp.MustCompile(`(?:\bage\b|나이)` + assign + `(\d+)`),
		apply:   measureField(func(p *model.UserProfile, m model.Measure) { p.Age = m }),
	},
	{
		field:   "activity_level",
		pattern: regexp.MustCompile(`\bactivity(?:\s*level)?` + assign + `(low|moderate|high)\b`),
		apply: func(p *model.UserProfile, value string) (string, bool) {
			p.ActivityLevel = model.ActivityLevel(value)
			return value, true
		},
	},
	{
		field:   "goal",
		pattern: regexp.MustCompile(`\bgoal` + assign + `(weight[\s_-]*loss|muscle[\s_-]*gain|recomp(?:osition)?)\b`),
		apply: func(p *model.UserProfile, value string) (string, bool) {
			goal := model.ParseGoal(strings.Join(strings.Fields(value), " "))
			if goal == model.GoalUnknown {
				return "", false
			}
			p.Goal = goal
			return string(goal), true
		},
	},
}

type change struct {
	field string
	value string
}

// applyUpdates sets every recognized field of message on profile. Each match is blanked out of
// the text so later, shorter patterns cannot match it again.
func applyUpdates(profile *model.UserProfile, message string) []change {
	text := strings.ToLower(message)
	var changes []change
	for _, f := range fieldUpdates {
		loc := f.pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		value := text[loc[2]:loc[3]]
		text = text[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + text[loc[1]:]

		if v, ok := f.apply(profile, value); ok {
			changes = append(changes, change{field: f.field, value: v})
		}
	}
	return changes
}

func (c *Coach) updateProfile(ctx context.Context, profile *model.UserProfile, message string) (*Reply, error) {
	updated := profile.Clone()
	changes := applyUpdates(updated, message)
	if len(changes) == 0 {
		return &Reply{Response: updateClarification}, nil
	}

	c.refresh(ctx, updated)
	if err := c.repo.PutProfile(ctx, updated); err != nil {
		return nil, goerr.Wrap(err, "failed to save updated profile")
	}

	parts := make([]string, len(changes))
	for i, ch := range changes {
		parts[i] = ch.field + ": " + ch.value
	}
	response := fmt.Sprintf("Your profile has been updated (%s). I've regenerated your plans. Check the 'Plan' tab!", strings.Join(parts, ", "))
	if updated.Plan.Failed() {
		response = fmt.Sprintf("Your profile has been updated (%s), but I couldn't regenerate your plans: %s", strings.Join(parts, ", "), updated.Plan.Error.Message)
	}
	return &Reply{Response: response, Profile: updated}, nil
}

var (
	neckPattern  = regexp.MustCompile(`(?:\bneck|목\s*둘레|목)` + assign + number)
	waistPattern = regexp.MustCompile(`(?:\bwaist|허리\s*둘레|허리)` + assign + number)
)

// parseCircumferences reads the neck and waist measurements in cm, in either order.
func parseCircumferences(message string) (neck, waist float64, ok bool) {
	text := strings.ToLower(message)
	n := neckPattern.FindStringSubmatch(text)
	w := waistPattern.FindStringSubmatch(text)
	if n == nil || w == nil {
		return 0, 0, false
	}
	return model.ParseMeasure(n[1]).Float(), model.ParseMeasure(w[1]).Float(), true
}

func (c *Coach) updateBodyFat(ctx context.Context, profile *model.UserProfile, message string) (*Reply, error) {
	neck, waist, ok := parseCircumferences(message)
	if !ok {
		return &Reply{Response: bodyFatClarification}, nil
	}

	bf := health.BodyFatPercentage(profile.Gender, profile.HeightCm.Float(), waist, neck)
	if bf <= 0 {
		return &Reply{Response: bodyFatInvalid}, nil
	}

	updated := profile.Clone()
	updated.BodyFatPercentage = model.Measure(bf)
	updated.UpdatedAt = c.now().UTC()
	if err := c.repo.PutProfile(ctx, updated); err != nil {
		return nil, goerr.Wrap(err, "failed to save body fat percentage")
	}

	return &Reply{
		Response: fmt.Sprintf("Your estimated body fat percentage is %.1f%%. I've saved it to your profile.", bf),
		Profile:  updated,
	}, nil
}
