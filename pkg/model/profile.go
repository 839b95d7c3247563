package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidGender        = goerr.New("invalid gender")
	ErrInvalidActivityLevel = goerr.New("invalid activity level")
)

type Status string

const (
	StatusNewUser    Status = "new_user"
	StatusActiveUser Status = "active_user"
)

type Goal string

const (
	GoalWeightLoss    Goal = "weight_loss"
	GoalMuscleGain    Goal = "muscle_gain"
	GoalRecomposition Goal = "recomposition"
	GoalUnknown       Goal = "unknown"
)

// ParseGoal normalizes free text such as "Muscle Gain" or "weight-loss". Anything else is GoalUnknown.
func ParseGoal(s string) Goal {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch Goal(s) {
	case GoalWeightLoss, GoalMuscleGain, GoalRecomposition:
		return Goal(s)
	case "recomp", "body_recomposition":
		return GoalRecomposition
	default:
		return GoalUnknown
	}
}

func (g *Goal) UnmarshalText(text []byte) error {
	*g = ParseGoal(string(text))
	return nil
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Validate checks if the gender is valid
func (g Gender) Validate() error {
	switch g {
	case GenderMale, GenderFemale:
		return nil
	default:
		return goerr.Wrap(ErrInvalidGender, "unsupported gender", goerr.V("gender", g))
	}
}

func (g *Gender) UnmarshalText(text []byte) error {
	*g = Gender(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}

type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// Validate checks if the activity level is valid
func (a ActivityLevel) Validate() error {
	switch a {
	case ActivityLow, ActivityModerate, ActivityHigh:
		return nil
	default:
		return goerr.Wrap(ErrInvalidActivityLevel, "unsupported activity level", goerr.V("activity_level", a))
	}
}

func (a *ActivityLevel) UnmarshalText(text []byte) error {
	*a = ActivityLevel(strings.ToLower(strings.TrimSpace(string(text))))
	return nil
}

// UserProfile is the single active user's onboarding data plus everything computed from it.
type UserProfile struct {
	Name              string        `json:"name,omitempty" firestore:"name"`
	Status            Status        `json:"status" firestore:"status"`
	Goal              Goal          `json:"goal,omitempty" firestore:"goal"`
	WeightKg          Measure       `json:"weight_kg,omitempty" firestore:"weight_kg"`
	HeightCm          Measure       `json:"height_cm,omitempty" firestore:"height_cm"`
	Age               Measure       `json:"age,omitempty" firestore:"age"`
	Gender            Gender        `json:"gender,omitempty" firestore:"gender"`
	BodyFatPercentage Measure       `json:"body_fat_percentage,omitempty" firestore:"body_fat_percentage"`
	ActivityLevel     ActivityLevel `json:"activity_level,omitempty" firestore:"activity_level"`
	Allergies         string        `json:"allergies,omitempty" firestore:"allergies"`
	GoalWeightKg      Measure       `json:"goal_weight_kg,omitempty" firestore:"goal_weight_kg"`
	BMI               Measure       `json:"bmi,omitempty" firestore:"bmi"`
	Plan              *Plan         `json:"plans,omitempty" firestore:"plans"`
	UpdatedAt         time.Time     `json:"updated_at,omitempty" firestore:"updated_at"`
}

// NewUserProfile returns the placeholder profile reported before onboarding.
func NewUserProfile() *UserProfile {
	return &UserProfile{Status: StatusNewUser}
}

// IsNew reports whether onboarding has not happened yet.
func (p *UserProfile) IsNew() bool {
	return p.Status != StatusActiveUser
}

// Activate moves the profile to active_user. It reports true only on the first transition.
func (p *UserProfile) Activate() bool {
	if p.Status == StatusActiveUser {
		return false
	}
	p.Status = StatusActiveUser
	return true
}

// Clone returns a deep copy so handlers can mutate without touching stored state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Plan = p.Plan.Clone()
	return &c
}
