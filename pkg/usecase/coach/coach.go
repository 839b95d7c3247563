// Package coach routes chat messages to profile updates, body fat estimation, meal logging or
// grounded question answering, and owns onboarding and the daily summary.
package coach

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/catalog"
	"github.com/mifdirfan/PocketCoach/pkg/health"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/repository"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/plan"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
)

var ErrEmptyMessage = goerr.New("message is empty")

// Planner builds a plan for a profile.
type Planner interface {
	Generate(ctx context.Context, profile *model.UserProfile) (*model.Plan, error)
}

// FoodFinder resolves a food name against the catalog.
type FoodFinder interface {
	FindFood(ctx context.Context, name string) (*catalog.FoodMatch, bool, error)
}

// KnowledgeRetriever returns reference text for a query.
type KnowledgeRetriever interface {
	RetrieveContext(ctx context.Context, query string) (string, error)
}

// Reply is the answer to one chat message. Profile is set when the profile changed and
// DailySummary when a meal was logged.
type Reply struct {
	Intent       Intent             `json:"intent"`
	Response     string             `json:"response"`
	Profile      *model.UserProfile `json:"profile,omitempty"`
	DailySummary *model.Macros      `json:"daily_summary,omitempty"`
}

// Coach is the application context shared by every request. It holds no per-request state.
type Coach struct {
	repo      repository.Repository
	llm       adapter.Generator
	planner   Planner
	foods     FoodFinder
	knowledge KnowledgeRetriever
	now       func() time.Time

	// profileMu is held from reading the profile until its replacement is stored.
	profileMu sync.Mutex
}

// NewInput contains the collaborators of a Coach
type NewInput struct {
	Repo      repository.Repository
	LLM       adapter.Generator
	Planner   Planner
	Foods     FoodFinder
	Knowledge KnowledgeRetriever
}

type Option func(*Coach)

// WithClock replaces time.Now, which decides "today" for the meal log.
func WithClock(now func() time.Time) Option {
	return func(c *Coach) {
		c.now = now
	}
}

func New(input NewInput, opts ...Option) *Coach {
	c := &Coach{
		repo:      input.Repo,
		llm:       input.LLM,
		planner:   input.Planner,
		foods:     input.Foods,
		knowledge: input.Knowledge,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coach) today() string {
	return model.DateKey(c.now())
}

// Handle classifies the message and runs the matching handler. Model and retrieval failures
// become a corrective Response; only persistence failures are returned as errors.
func (c *Coach) Handle(ctx context.Context, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, goerr.Wrap(ErrEmptyMessage, "chat message is required")
	}

	intent := Classify(message)
	ctx = logging.WithAttrs(ctx, "intent", intent)
	logging.From(ctx).Debug("chat message classified", "message", message)

	if intent.mutatesProfile() {
		c.profileMu.Lock()
		defer c.profileMu.Unlock()
	}

	profile, err := c.repo.GetProfile(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load profile")
	}

	var reply *Reply
	switch intent {
	case IntentProfileUpdate:
		reply, err = c.updateProfile(ctx, profile, message)
	case IntentBodyFat:
		reply, err = c.updateBodyFat(ctx, profile, message)
	case IntentMealLog:
		reply, err = c.logMeal(ctx, profile, message)
	default:
		reply, err = c.answer(ctx, profile, message)
	}
	if err != nil {
		return nil, err
	}
	reply.Intent = intent
	return reply, nil
}

// Status returns the stored profile, a new_user profile before onboarding.
func (c *Coach) Status(ctx context.Context) (*model.UserProfile, error) {
	profile, err := c.repo.GetProfile(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load profile")
	}
	return profile, nil
}

// SaveProfile completes onboarding: the profile is activated, its BMI and plan are computed and
// the result is stored. A failed plan is stored as its error payload.
func (c *Coach) SaveProfile(ctx context.Context, input *model.UserProfile) (*model.UserProfile, error) {
	if input == nil {
		return nil, goerr.New("profile is required")
	}
	profile := input.Clone()
	if profile.Gender != "" {
		if err := profile.Gender.Validate(); err != nil {
			return nil, err
		}
	}
	if profile.ActivityLevel != "" {
		if err := profile.ActivityLevel.Validate(); err != nil {
			return nil, err
		}
	}

	c.profileMu.Lock()
	defer c.profileMu.Unlock()

	if profile.Activate() {
		logging.From(ctx).Info("user onboarded", "name", profile.Name, "goal", profile.Goal)
	}
	c.refresh(ctx, profile)

	if err := c.repo.PutProfile(ctx, profile); err != nil {
		return nil, goerr.Wrap(err, "failed to save profile")
	}
	return profile, nil
}

// Summary totals the meals of date (today when empty) against the goals of the stored plan.
func (c *Coach) Summary(ctx context.Context, date string) (*model.DailySummary, error) {
	if date == "" {
		date = c.today()
	}
	if _, err := model.ParseDate(date); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidDate, "date must be YYYY-MM-DD", goerr.V("date", date))
	}

	entries, err := c.repo.ListMeals(ctx, date)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list meals", goerr.V("date", date))
	}
	profile, err := c.repo.GetProfile(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load profile")
	}

	return &model.DailySummary{
		Date:  date,
		Total: model.TotalMacros(entries),
		Goal:  profile.Plan.Goals(),
	}, nil
}

// refresh recomputes everything derived from the profile fields.
func (c *Coach) refresh(ctx context.Context, profile *model.UserProfile) {
	profile.BMI = model.Measure(health.BMI(profile.WeightKg.Float(), profile.HeightCm.Float()))

	generated, err := c.planner.Generate(ctx, profile)
	if err != nil {
		logging.From(ctx).Warn("plan generation failed", "error", err)
		generated = plan.Failure(err)
	}
	profile.Plan = generated
	profile.UpdatedAt = c.now().UTC()
}
