package health_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mifdirfan/PocketCoach/pkg/health"
	"github.com/mifdirfan/PocketCoach/pkg/model"
)

func TestBMI(t *testing.T) {
	gt.V(t, health.BMI(68, 170)).Equal(23.5)
	gt.V(t, health.BMI(0, 170)).Equal(0.0)
	gt.V(t, health.BMI(68, 0)).Equal(0.0)
	gt.V(t, health.BMI(-1, 170)).Equal(0.0)

	t.Run("monotonic", func(t *testing.T) {
		prev := 0.0
		for w := 40.0; w <= 140; w += 5 {
			v := health.BMI(w, 175)
			gt.Number(t, v).Greater(prev)
			prev = v
		}

		prev = 1000
		for h := 140.0; h <= 210; h += 5 {
			v := health.BMI(80, h)
			gt.Number(t, v).Less(prev)
			prev = v
		}
	})
}

func TestBodyFatPercentage(t *testing.T) {
	// 495 / (1.0324 - 0.19077*log10(47) + 0.15456*log10(175)) - 450
	bf := health.BodyFatPercentage(model.GenderMale, 175, 85, 38)
	gt.V(t, bf).Equal(16.9)

	// gender does not change the circumference form
	gt.V(t, health.BodyFatPercentage(model.GenderFemale, 175, 85, 38)).Equal(bf)
	gt.V(t, health.BodyFatPercentage("", 175, 85, 38)).Equal(bf)

	gt.V(t, health.BodyFatPercentage(model.GenderMale, 175, 38, 38)).Equal(0.0)
	gt.V(t, health.BodyFatPercentage(model.GenderMale, 175, 30, 38)).Equal(0.0)
	gt.V(t, health.BodyFatPercentage(model.GenderMale, 0, 85, 38)).Equal(0.0)
	gt.V(t, health.BodyFatPercentage(model.GenderFemale, 165, 75, 0)).Equal(0.0)
}

func TestTDEE(t *testing.T) {
	ctx := context.Background()

	t.Run("complete profile matches closed form", func(t *testing.T) {
		p := &model.UserProfile{
			WeightKg: 68, HeightCm: 170, Age: 25,
			Gender: model.GenderMale, ActivityLevel: model.ActivityModerate,
		}
		bmr := 10*68 + 6.25*170 - 5*25 + 5
		gt.V(t, health.BMR(p.Gender, 68, 170, 25)).Equal(bmr)
		gt.V(t, health.TDEE(ctx, p)).Equal(int(bmr * 1.55))
		gt.V(t, health.TDEE(ctx, p)).Equal(2514)
	})

	t.Run("female offset and high activity", func(t *testing.T) {
		p := &model.UserProfile{
			WeightKg: 60, HeightCm: 165, Age: 30,
			Gender: model.GenderFemale, ActivityLevel: model.ActivityHigh,
		}
		bmr := 10*60 + 6.25*165 - 5*30 - 161
		gt.V(t, health.TDEE(ctx, p)).Equal(int(bmr * 1.9))
	})

	t.Run("unknown activity defaults to low", func(t *testing.T) {
		p := &model.UserProfile{WeightKg: 80, HeightCm: 180, Age: 40, Gender: model.GenderMale, ActivityLevel: "couch"}
		bmr := 10*80 + 6.25*180 - 5*40 + 5
		gt.V(t, health.TDEE(ctx, p)).Equal(int(bmr * 1.2))
	})

	t.Run("missing fields fall back", func(t *testing.T) {
		gt.V(t, health.TDEE(ctx, &model.UserProfile{HeightCm: 170, Age: 25})).Equal(health.DefaultTDEE)
		gt.V(t, health.TDEE(ctx, &model.UserProfile{WeightKg: 68, Age: 25})).Equal(health.DefaultTDEE)
		gt.V(t, health.TDEE(ctx, &model.UserProfile{WeightKg: 68, HeightCm: 170})).Equal(health.DefaultTDEE)
		gt.V(t, health.TDEE(ctx, nil)).Equal(health.DefaultTDEE)
	})
}

func TestTarget(t *testing.T) {
	testCases := []struct {
		goal     model.Goal
		expected int
	}{
		{model.GoalWeightLoss, 2000},
		{model.GoalMuscleGain, 2800},
		{model.GoalRecomposition, 2500},
		{model.GoalUnknown, 2000},
		{model.Goal("bulk"), 2000},
	}

	for _, tc := range testCases {
		t.Run(string(tc.goal), func(t *testing.T) {
			target, strategy := health.Target(tc.goal, 2500)
			gt.V(t, target).Equal(tc.expected)
			gt.NotEqual(t, strategy, "")
		})
	}

	_, loss := health.Target(model.GoalWeightLoss, 2500)
	_, unknown := health.Target(model.GoalUnknown, 2500)
	gt.V(t, unknown).Equal(loss)
}

func TestMuscleGainScenario(t *testing.T) {
	p := &model.UserProfile{
		WeightKg: 68, HeightCm: 170, Age: 25,
		Gender: model.GenderMale, ActivityLevel: model.ActivityModerate, Goal: model.GoalMuscleGain,
	}
	tdee := health.TDEE(context.Background(), p)
	target, _ := health.Target(p.Goal, tdee)
	gt.V(t, target).Equal(tdee + 300)
	gt.V(t, target).Equal(2814)
}
