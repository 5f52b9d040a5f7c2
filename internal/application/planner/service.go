// Package planner provides the application layer for the holiday table planner.
// It owns the single AppState, applies actions through one reducer entry
// point and persists the result after every change.
package planner

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/domain/shared"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/internal/ports/outbound"
	"github.com/holidaytable/planner/pkg/errors"
)

// SaveRecorder observes every persistence attempt
type SaveRecorder interface {
	StateSaved(err error, duration time.Duration)
}

// Service implements inbound.PlannerService
type Service struct {
	mu       sync.Mutex
	state    planner.AppState
	key      string
	repo     outbound.StateRepository
	ai       outbound.AIGateway
	events   *shared.Dispatcher
	saves    SaveRecorder
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

var _ inbound.PlannerService = (*Service)(nil)

// Option customizes a Service
type Option func(*Service)

// WithStorageKey overrides the slot the state is persisted under
func WithStorageKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock replaces time.Now for event timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSaveRecorder reports persistence results to r
func WithSaveRecorder(r SaveRecorder) Option {
	return func(s *Service) { s.saves = r }
}

// NewService creates the planner service and restores the persisted state.
// Restoring never fails: a missing or unreadable slot yields the defaults.
func NewService(
	ctx context.Context,
	repo outbound.StateRepository,
	ai outbound.AIGateway,
	events *shared.Dispatcher,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		key:      planner.StorageKey,
		repo:     repo,
		ai:       ai,
		events:   events,
		validate: validator.New(),
		now:      time.Now,
		logger:   logger.Named("planner-service"),
	}
	if s.events == nil {
		s.events = shared.NewDispatcher()
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = s.restore(ctx)
	return s
}

func (s *Service) restore(ctx context.Context) planner.AppState {
	blob, err := s.repo.Load(ctx, s.key)
	switch {
	case stderrors.Is(err, outbound.ErrStateNotFound):
		s.logger.Info("No saved state, starting with defaults", zap.String("key", s.key))
		return planner.DefaultState()
	case err != nil:
		s.logger.Error("Failed to load saved state, starting with defaults",
			zap.String("key", s.key), zap.Error(err))
		return planner.DefaultState()
	}

	state, err := planner.DecodeState(blob)
	if err != nil {
		s.logger.Warn("Saved state is unreadable, starting with defaults",
			zap.String("key", s.key), zap.Error(err))
		return state
	}

	s.logger.Info("Planner state restored",
		zap.Int("people", state.PeopleCount),
		zap.Int("dishes", len(state.Menu)),
		zap.Int("drinks", len(state.Drinks)),
		zap.Int("prices", len(state.Prices)))
	return state
}

// State returns a deep copy of the current state
func (s *Service) State(ctx context.Context) planner.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ShoppingList aggregates the menu and drinks and prices them
func (s *Service) ShoppingList(ctx context.Context) planner.Estimate {
	return planner.EstimateCost(s.State(ctx))
}

// Dispatch applies one action, persists the new state and publishes the
// resulting event. A rejected action leaves the state untouched. A failed
// save keeps the new state in memory and returns STATE_PERSIST_FAILED
// together with it.
func (s *Service) Dispatch(ctx context.Context, action planner.Action) (planner.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, event, err := planner.Reduce(s.state, action, s.now())
	if err != nil {
		return s.state.Clone(), s.mapDomainError(err)
	}
	s.state = next

	persistErr := s.persist(ctx)
	s.events.Publish(event)

	return s.state.Clone(), persistErr
}

func (s *Service) persist(ctx context.Context) error {
	start := time.Now()
	blob, err := s.state.Encode()
	if err == nil {
		err = s.repo.Save(ctx, s.key, blob)
	}
	if s.saves != nil {
		s.saves.StateSaved(err, time.Since(start))
	}
	if err != nil {
		s.logger.Error("Failed to persist planner state", zap.String("key", s.key), zap.Error(err))
		return errors.NewStatePersistError(s.key, err)
	}
	return nil
}

func (s *Service) mapDomainError(err error) error {
	switch {
	case stderrors.Is(err, planner.ErrUnknownDrink):
		return errors.NewNotFoundError("drink", strings.TrimPrefix(err.Error(), planner.ErrUnknownDrink.Error()+": "))
	case stderrors.Is(err, planner.ErrDuplicateDish),
		stderrors.Is(err, planner.ErrDishIDRequired),
		stderrors.Is(err, planner.ErrDishNameRequired),
		stderrors.Is(err, planner.ErrUnknownCuisine),
		stderrors.Is(err, planner.ErrInvalidServings),
		stderrors.Is(err, planner.ErrIngredientNameRequired),
		stderrors.Is(err, planner.ErrNegativeAmount):
		return errors.NewValidationError(err.Error())
	}
	return errors.Wrap(err, "failed to apply action")
}

// SetPeopleCount sets the guest count
func (s *Service) SetPeopleCount(ctx context.Context, count int) (planner.AppState, error) {
	return s.Dispatch(ctx, planner.SetPeopleCount{Count: count})
}

// SetEventDays sets the event duration
func (s *Service) SetEventDays(ctx context.Context, days int) (planner.AppState, error) {
	return s.Dispatch(ctx, planner.SetEventDays{Days: days})
}

// SetDrinkCount sets how many units of a catalog drink to buy
func (s *Service) SetDrinkCount(ctx context.Context, drinkID string, count int) (planner.AppState, error) {
	return s.Dispatch(ctx, planner.SetDrinkCount{DrinkID: drinkID, Count: count})
}

// AddDish generates a recipe for the named dish and appends it to the menu.
// The AI call runs without holding the state lock.
func (s *Service) AddDish(ctx context.Context, cmd inbound.AddDishCommand) (*planner.Dish, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := s.validate.Struct(cmd); err != nil {
		return nil, validationError(err)
	}

	s.logger.Info("Generating dish", zap.String("name", cmd.Name), zap.String("cuisine", string(cmd.Cuisine)))

	dish, err := s.ai.GenerateRecipe(ctx, cmd.Name, cmd.Cuisine)
	if err != nil {
		s.logger.Warn("Recipe generation failed", zap.String("name", cmd.Name), zap.Error(err))
		return nil, err
	}

	if _, err := s.Dispatch(ctx, planner.AddDish{Dish: *dish}); err != nil {
		if errors.Is(err, errors.CodeStatePersistFailed) {
			return dish, err
		}
		return nil, err
	}

	s.logger.Info("Dish added", zap.String("dish_id", dish.ID), zap.String("name", dish.Name))
	return dish, nil
}

// SuggestDish asks the AI for one dish name; nothing is stored
func (s *Service) SuggestDish(ctx context.Context, cuisine planner.Cuisine) (string, error) {
	name, err := s.ai.SuggestRandomDish(ctx, cuisine)
	if err != nil {
		s.logger.Warn("Dish suggestion failed", zap.String("cuisine", string(cuisine)), zap.Error(err))
		return "", err
	}
	return name, nil
}

// RemoveDish removes a dish from the menu; unknown ids are a no-op
func (s *Service) RemoveDish(ctx context.Context, dishID string) (planner.AppState, error) {
	return s.Dispatch(ctx, planner.RemoveDish{DishID: dishID})
}

// RefreshPrices asks the AI for current prices of everything on the
// shopping list and merges them into the price cache
func (s *Service) RefreshPrices(ctx context.Context) (planner.PriceCache, error) {
	names := planner.PriceQueryNames(s.State(ctx))

	prices, err := s.ai.GetRealTimePrices(ctx, names)
	if err != nil {
		s.logger.Warn("Price refresh failed", zap.Int("items", len(names)), zap.Error(err))
		return nil, err
	}
	if len(prices) == 0 {
		s.logger.Info("Price refresh returned nothing", zap.Int("items", len(names)))
		return prices, nil
	}

	if _, err := s.Dispatch(ctx, planner.MergePrices{Prices: prices}); err != nil {
		return prices, err
	}

	s.logger.Info("Prices refreshed", zap.Int("items", len(names)), zap.Int("received", len(prices)))
	return prices, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, errors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return errors.NewValidationErrors(out)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return strings.ToLower(fe.Field()) + " is required"
	case "max":
		return strings.ToLower(fe.Field()) + " must be at most " + fe.Param() + " characters"
	}
	return strings.ToLower(fe.Field()) + " is invalid"
}
