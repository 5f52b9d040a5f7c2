package planner

import "time"

// Domain events raised by the reducer

// PartySizeChangedEvent is raised when the guest count changes
type PartySizeChangedEvent struct {
	PeopleCount int
	ChangedAt   time.Time
}

func (e PartySizeChangedEvent) EventName() string     { return "party.size_changed" }
func (e PartySizeChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// EventDaysChangedEvent is raised when the event duration changes
type EventDaysChangedEvent struct {
	EventDays int
	ChangedAt time.Time
}

func (e EventDaysChangedEvent) EventName() string     { return "party.days_changed" }
func (e EventDaysChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// DrinkCountChangedEvent is raised when a drink quantity is set; Count 0 means removed
type DrinkCountChangedEvent struct {
	DrinkID   string
	Count     int
	ChangedAt time.Time
}

func (e DrinkCountChangedEvent) EventName() string     { return "drinks.count_changed" }
func (e DrinkCountChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// DishAddedEvent is raised when a generated dish is appended to the menu
type DishAddedEvent struct {
	DishID  string
	Name    string
	AddedAt time.Time
}

func (e DishAddedEvent) EventName() string     { return "menu.dish_added" }
func (e DishAddedEvent) OccurredAt() time.Time { return e.AddedAt }

// DishRemovedEvent is raised when a dish is removed; Found is false for unknown ids
type DishRemovedEvent struct {
	DishID    string
	Found     bool
	RemovedAt time.Time
}

func (e DishRemovedEvent) EventName() string     { return "menu.dish_removed" }
func (e DishRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

// PricesMergedEvent is raised after a price refresh is merged into the cache
type PricesMergedEvent struct {
	Merged   int
	Dropped  int
	MergedAt time.Time
}

func (e PricesMergedEvent) EventName() string     { return "prices.merged" }
func (e PricesMergedEvent) OccurredAt() time.Time { return e.MergedAt }
