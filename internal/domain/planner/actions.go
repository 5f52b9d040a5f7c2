package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/holidaytable/planner/internal/domain/shared"
)

// Action is a single state transition. Apply receives a private copy of the
// state, so it may modify it freely before returning it.
type Action interface {
	Apply(state AppState, at time.Time) (AppState, shared.DomainEvent, error)
}

// Reduce applies an action to a copy of state. On error the original state
// is returned untouched.
func Reduce(state AppState, action Action, at time.Time) (AppState, shared.DomainEvent, error) {
	next, event, err := action.Apply(state.Clone(), at)
	if err != nil {
		return state, nil, err
	}
	return next, event, nil
}

// SetPeopleCount sets the guest count; values below 1 become 1
type SetPeopleCount struct {
	Count int
}

func (a SetPeopleCount) Apply(s AppState, at time.Time) (AppState, shared.DomainEvent, error) {
	s.PeopleCount = clampPositive(a.Count)
	return s, PartySizeChangedEvent{PeopleCount: s.PeopleCount, ChangedAt: at}, nil
}

// SetEventDays sets the event duration in days; values below 1 become 1
type SetEventDays struct {
	Days int
}

func (a SetEventDays) Apply(s AppState, at time.Time) (AppState, shared.DomainEvent, error) {
	s.EventDays = clampPositive(a.Days)
	return s, EventDaysChangedEvent{EventDays: s.EventDays, ChangedAt: at}, nil
}

// SetDrinkCount sets the quantity of a catalog drink. Negative counts are
// treated as 0 and 0 removes the drink; any other count replaces the
// existing entry with a fresh one at the end of the list.
type SetDrinkCount struct {
	DrinkID string
	Count   int
}

func (a SetDrinkCount) Apply(s AppState, at time.Time) (AppState, shared.DomainEvent, error) {
	option, ok := LookupDrink(a.DrinkID)
	if !ok {
		return s, nil, fmt.Errorf("%w: %s", ErrUnknownDrink, a.DrinkID)
	}

	count := a.Count
	if count < 0 {
		count = 0
	}

	drinks := make([]DrinkPreference, 0, len(s.Drinks)+1)
	for _, d := range s.Drinks {
		if d.ID != option.ID {
			drinks = append(drinks, d)
		}
	}
	if count > 0 {
		drinks = append(drinks, DrinkPreference{
			ID:       option.ID,
			Name:     option.Name,
			Category: option.Category,
			Count:    count,
		})
	}
	s.Drinks = drinks

	return s, DrinkCountChangedEvent{DrinkID: option.ID, Count: count, ChangedAt: at}, nil
}

// AddDish appends a validated dish to the menu
type AddDish struct {
	Dish Dish
}

func (a AddDish) Apply(s AppState, at time.Time) (AppState, shared.DomainEvent, error) {
	if err := a.Dish.Validate(); err != nil {
		return s, nil, err
	}
	if _, exists := s.FindDish(a.Dish.ID); exists {
		return s, nil, fmt.Errorf("%w: %s", ErrDuplicateDish, a.Dish.ID)
	}

	dish := a.Dish.Clone()
	s.Menu = append(s.Menu, dish)

	return s, DishAddedEvent{DishID: dish.ID, Name: dish.Name, AddedAt: at}, nil
}

// RemoveDish drops the dish with the given id; unknown ids are a no-op
type RemoveDish struct {
	DishID string
}

func (a RemoveDish) Apply(s AppState, at time.Time) (AppState, shared.DomainEvent, error) {
	menu := make([]Dish, 0, len(s.Menu))
	found := false
	for _, d := range s.Menu {
		if d.ID == a.DishID {
			found = true
			continue
		}
		menu = append(menu, d)
	}
	s.Menu = menu

	return s, DishRemovedEvent{DishID: a.DishID, Found: found, RemovedAt: at}, nil
}

// MergePrices merges fetched prices into the cache. Existing keys are
// overwritten; entries that are not positive finite numbers are dropped.
type MergePrices struct {
	Prices PriceCache
}

func (a MergePrices) Apply(s AppState, at time.Time) (AppState, shared.DomainEvent, error) {
	merged, dropped := 0, 0
	for name, price := range a.Prices {
		if name == "" || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			dropped++
			continue
		}
		s.Prices[name] = price
		merged++
	}

	return s, PricesMergedEvent{Merged: merged, Dropped: dropped, MergedAt: at}, nil
}
