package repository

import (
	"context"
	"sync"

	"github.com/mifdirfan/PocketCoach/pkg/model"
)

// Memory keeps everything in process. Stored values are copied in and out.
type Memory struct {
	mu      sync.Mutex
	profile *model.UserProfile
	meals   map[string][]*model.MealLogEntry
}

func NewMemory() *Memory {
	return &Memory{meals: make(map[string][]*model.MealLogEntry)}
}

func (m *Memory) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return model.NewUserProfile(), nil
	}
	return m.profile.Clone(), nil
}

func (m *Memory) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile.Clone()
	return nil
}

func (m *Memory) AppendMeal(ctx context.Context, date string, entry *model.MealLogEntry) error {
	if err := validateDate(date); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *entry
	m.meals[date] = append(m.meals[date], &c)
	return nil
}

func (m *Memory) ListMeals(ctx context.Context, date string) ([]*model.MealLogEntry, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEntries(m.meals[date]), nil
}
