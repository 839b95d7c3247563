package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionProfiles = "profiles"
	collectionMealLogs = "meal_logs"
	collectionDays     = "days"

	// DefaultUser is the document key of the single active user.
	DefaultUser = "default"
)

// Firestore stores the profile at profiles/{user} and each day of the meal log at
// meal_logs/{user}/days/{date}.
type Firestore struct {
	client *firestore.Client
	user   string
}

// mealDay is the document of one logged day.
type mealDay struct {
	Date    string                `firestore:"date"`
	Entries []*model.MealLogEntry `firestore:"entries"`
}

// NewFirestore creates a Firestore repository for user, DefaultUser when empty.
func NewFirestore(ctx context.Context, projectID, databaseID, user string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}
	if user == "" {
		user = DefaultUser
	}
	return &Firestore{client: client, user: user}, nil
}

// Close releases the client.
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) profileRef() *firestore.DocumentRef {
	return r.client.Collection(collectionProfiles).Doc(r.user)
}

func (r *Firestore) dayRef(date string) *firestore.DocumentRef {
	return r.client.Collection(collectionMealLogs).Doc(r.user).Collection(collectionDays).Doc(date)
}

func (r *Firestore) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	doc, err := r.profileRef().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.NewUserProfile(), nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("user", r.user))
	}

	var profile model.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, goerr.Wrap(err, "failed to decode profile", goerr.V("user", r.user))
	}
	return &profile, nil
}

func (r *Firestore) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	if _, err := r.profileRef().Set(ctx, profile); err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.V("user", r.user))
	}
	return nil
}

func (r *Firestore) AppendMeal(ctx context.Context, date string, entry *model.MealLogEntry) error {
	if err := validateDate(date); err != nil {
		return err
	}

	ref := r.dayRef(date)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		day := mealDay{Date: date}
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return goerr.Wrap(err, "failed to get meal log")
		default:
			if err := doc.DataTo(&day); err != nil {
				return goerr.Wrap(err, "failed to decode meal log")
			}
		}

		day.Entries = append(day.Entries, entry)
		return tx.Set(ref, &day)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to append meal", goerr.V("user", r.user), goerr.V("date", date))
	}
	return nil
}

func (r *Firestore) ListMeals(ctx context.Context, date string) ([]*model.MealLogEntry, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	doc, err := r.dayRef(date).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return []*model.MealLogEntry{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get meal log", goerr.V("user", r.user), goerr.V("date", date))
	}

	var day mealDay
	if err := doc.DataTo(&day); err != nil {
		return nil, goerr.Wrap(err, "failed to decode meal log", goerr.V("user", r.user), goerr.V("date", date))
	}
	return cloneEntries(day.Entries), nil
}
