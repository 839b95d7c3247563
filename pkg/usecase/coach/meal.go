package coach

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/plan"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
)

//go:embed prompt/meal.md
var mealPromptRaw string

var mealPromptTmpl = template.Must(template.New("meal").Parse(mealPromptRaw))

const (
	mealNotUnderstood = "I didn't quite catch the food name or weight. Please try again (e.g., '김치찌개 300g')."
	mealFailed        = "I had trouble logging that. Please use the format 'Food Name, Weight' (e.g., '닭가슴살 200g')."
)

// mealRequest is the two-field answer of the extraction prompt.
type mealRequest struct {
	Food   string `json:"food"`
	Weight grams  `json:"weight"`
}

// grams decodes like model.Measure and also accepts strings carrying a unit, such as "200g".
type grams model.Measure

func (g *grams) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*g = grams(model.ParseGrams(s))
		return nil
	}

	var m model.Measure
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	*g = grams(m)
	return nil
}

// extractMeal asks the model for the food name and grams in message.
func (c *Coach) extractMeal(ctx context.Context, message string) (*mealRequest, error) {
	var buf bytes.Buffer
	if err := mealPromptTmpl.Execute(&buf, struct{ Message string }{message}); err != nil {
		return nil, goerr.Wrap(err, "failed to render meal prompt")
	}

	raw, err := c.llm.Generate(ctx, buf.String(), adapter.WithJSON(), adapter.WithTemperature(0))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract meal")
	}

	text, err := plan.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var req mealRequest
	if err := json.Unmarshal([]byte(plan.StripComments(text)), &req); err != nil {
		return nil, goerr.Wrap(err, "failed to decode meal extraction", goerr.V("response", raw))
	}
	req.Food = strings.TrimSpace(req.Food)
	return &req, nil
}

func (c *Coach) logMeal(ctx context.Context, profile *model.UserProfile, message string) (*Reply, error) {
	logger := logging.From(ctx)

	req, err := c.extractMeal(ctx, message)
	if err != nil {
		logger.Warn("meal extraction failed", "error", err)
		return &Reply{Response: mealFailed}, nil
	}
	if req.Food == "" || !model.Measure(req.Weight).IsSet() {
		return &Reply{Response: mealNotUnderstood}, nil
	}

	match, ok, err := c.foods.FindFood(ctx, req.Food)
	if err != nil {
		logger.Warn("food lookup failed", "food", req.Food, "error", err)
		return &Reply{Response: mealFailed}, nil
	}
	if !ok {
		logger.Debug("food not in catalog", "food", req.Food)
		return &Reply{Response: fmt.Sprintf("I don't have '%s' in my database. Can you tell me the main ingredients?", req.Food)}, nil
	}

	now := c.now()
	date := model.DateKey(now)
	weight := model.Measure(req.Weight).Float()
	entry := model.NewMealLogEntry(now, match.Name, weight, match.Scale(weight))
	if err := c.repo.AppendMeal(ctx, date, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to log meal", goerr.V("date", date))
	}

	entries, err := c.repo.ListMeals(ctx, date)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list meals", goerr.V("date", date))
	}
	total := model.TotalMacros(entries)

	logger.Info("meal logged", "food", entry.Name, "grams", weight, "calories", entry.Macros.Calories, "distance", match.Distance)
	return &Reply{
		Response:     fmt.Sprintf("Logged: %sg of %s (%s kcal). Great job!", formatNumber(weight), entry.Name, formatNumber(entry.Macros.Calories)),
		DailySummary: &total,
	}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
