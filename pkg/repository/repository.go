package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/model"
)

var ErrInvalidDate = goerr.New("invalid meal log date")

// Repository persists the single active user's profile and the date-keyed meal log.
// Implementations serialize read-modify-write per resource.
type Repository interface {
	// GetProfile returns the stored profile, or a new_user profile when none exists
	GetProfile(ctx context.Context) (*model.UserProfile, error)

	// PutProfile replaces the stored profile
	PutProfile(ctx context.Context, profile *model.UserProfile) error

	// AppendMeal adds an entry to the log of date (YYYY-MM-DD)
	AppendMeal(ctx context.Context, date string, entry *model.MealLogEntry) error

	// ListMeals returns the entries of date in insertion order
	ListMeals(ctx context.Context, date string) ([]*model.MealLogEntry, error)
}

func validateDate(date string) error {
	if _, err := model.ParseDate(date); err != nil {
		return goerr.Wrap(ErrInvalidDate, "date must be YYYY-MM-DD", goerr.V("date", date))
	}
	return nil
}

func cloneEntries(entries []*model.MealLogEntry) []*model.MealLogEntry {
	out := make([]*model.MealLogEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	return out
}
