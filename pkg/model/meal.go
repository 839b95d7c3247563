package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the key format of the meal-log collection.
const DateLayout = "2006-01-02"

// TimeLayout is the time-of-day format stored on each entry.
const TimeLayout = "15:04"

// ParseDate parses a meal-log date key.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateKey returns the meal-log date key of t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

type MealID string

// NewMealID generates a new unique MealID
func NewMealID() MealID {
	return MealID(uuid.New().String())
}

// Macros are energy and macronutrient amounts for some quantity of food.
type Macros struct {
	Calories float64 `json:"calories" firestore:"calories"`
	Protein  float64 `json:"protein" firestore:"protein"`
	Carbs    float64 `json:"carbs" firestore:"carbs"`
	Fat      float64 `json:"fat" firestore:"fat"`
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Scale multiplies every value by factor.
func (m Macros) Scale(factor float64) Macros {
	return Macros{
		Calories: m.Calories * factor,
		Protein:  m.Protein * factor,
		Carbs:    m.Carbs * factor,
		Fat:      m.Fat * factor,
	}
}

// Round rounds every value to the given number of decimals.
func (m Macros) Round(decimals int) Macros {
	return Macros{
		Calories: Round(m.Calories, decimals),
		Protein:  Round(m.Protein, decimals),
		Carbs:    Round(m.Carbs, decimals),
		Fat:      Round(m.Fat, decimals),
	}
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// MealLogEntry is one logged food. Entries are append-only and never modified after creation.
type MealLogEntry struct {
	ID          MealID  `json:"id" firestore:"id"`
	Time        string  `json:"time" firestore:"time"`
	Name        string  `json:"name" firestore:"name"`
	WeightGrams float64 `json:"weight" firestore:"weight"`
	Macros      Macros  `json:"macros" firestore:"macros"`
}

// NewMealLogEntry stamps a new entry with an ID and the time of day of now.
func NewMealLogEntry(now time.Time, name string, grams float64, macros Macros) *MealLogEntry {
	return &MealLogEntry{
		ID:          NewMealID(),
		Time:        now.Format(TimeLayout),
		Name:        name,
		WeightGrams: grams,
		Macros:      macros,
	}
}

// TotalMacros sums the entries of one day and rounds to 2 decimals.
func TotalMacros(entries []*MealLogEntry) Macros {
	var total Macros
	for _, e := range entries {
		if e == nil {
			continue
		}
		total = total.Add(e.Macros)
	}
	return total.Round(2)
}

// DailySummary pairs the intake of a date with the goals of the stored plan.
type DailySummary struct {
	Date  string `json:"date"`
	Total Macros `json:"total"`
	Goal  Macros `json:"goal"`
}
