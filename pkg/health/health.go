// Package health implements the body-composition and energy-expenditure formulas the coach
// relies on. Every function degrades to a neutral value instead of failing.
package health

import (
	"context"
	"math"

	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
)

// DefaultTDEE is returned when the profile lacks weight, height or age.
const DefaultTDEE = 2000

var activityMultipliers = map[model.ActivityLevel]float64{
	model.ActivityLow:      1.2,
	model.ActivityModerate: 1.55,
	model.ActivityHigh:     1.9,
}

// BMI computes weight / height(m)^2 rounded to 1 decimal. Non-positive input yields 0.
func BMI(weightKg, heightCm float64) float64 {
	if !valid(weightKg) || !valid(heightCm) {
		return 0
	}
	h := heightCm / 100
	return model.Round(weightKg/(h*h), 1)
}

// BodyFatPercentage applies the US Navy circumference formula. The gender parameter is unused:
// the hip measurement the female variant needs is never collected, so both genders share the
// circumference form below. Invalid input, including waist <= neck, yields 0.
func BodyFatPercentage(_ model.Gender, heightCm, waistCm, neckCm float64) float64 {
	if !valid(heightCm) || !valid(waistCm) || !valid(neckCm) || waistCm <= neckCm {
		return 0
	}

	density := 1.0324 - 0.19077*math.Log10(waistCm-neckCm) + 0.15456*math.Log10(heightCm)
	if density <= 0 {
		return 0
	}
	bf := 495/density - 450
	if !valid(bf) {
		return 0
	}
	return model.Round(bf, 1)
}

// BMR is the Mifflin-St Jeor basal metabolic rate.
func BMR(gender model.Gender, weightKg, heightCm, age float64) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*age
	if gender == model.GenderFemale {
		return bmr - 161
	}
	return bmr + 5
}

// ActivityMultiplier maps the activity level to its TDEE factor, defaulting to low.
func ActivityMultiplier(level model.ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[model.ActivityLow]
}

// TDEE estimates maintenance calories for the profile, truncated to whole kcal, or DefaultTDEE
// when weight, height or age is missing.
func TDEE(ctx context.Context, p *model.UserProfile) int {
	if p == nil || !p.WeightKg.IsSet() || !p.HeightCm.IsSet() || !p.Age.IsSet() {
		var attrs []any
		if p != nil {
			attrs = append(attrs, "weight_kg", p.WeightKg, "height_cm", p.HeightCm, "age", p.Age)
		}
		logging.From(ctx).Warn("incomplete profile, using default TDEE", append(attrs, "tdee", DefaultTDEE)...)
		return DefaultTDEE
	}

	bmr := BMR(p.Gender, p.WeightKg.Float(), p.HeightCm.Float(), p.Age.Float())
	return int(bmr * ActivityMultiplier(p.ActivityLevel))
}

// Target applies the goal policy to a TDEE and returns the daily calorie target with the
// strategy sentence handed to the model. Unrecognized goals follow the weight-loss policy.
func Target(goal model.Goal, tdee int) (int, string) {
	switch goal {
	case model.GoalMuscleGain:
		return tdee + 300, "The user wants to build muscle, so use a moderate calorie surplus of 300 kcal above maintenance with high protein intake."
	case model.GoalRecomposition:
		return tdee, "The user wants body recomposition, so eat at maintenance calories with high protein intake to lose fat and gain muscle at the same time."
	default:
		return tdee - 500, "The user wants to lose weight, so use a calorie deficit of 500 kcal below maintenance while keeping protein high to preserve muscle."
	}
}

func valid(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
