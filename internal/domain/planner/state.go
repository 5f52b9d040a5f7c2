package planner

import (
	"encoding/json"
	"fmt"
)

// StorageKey is the slot the whole AppState is persisted under
const StorageKey = "holiday_table_app_v1"

// Defaults applied to a fresh or unreadable state
const (
	DefaultPeopleCount = 4
	DefaultEventDays   = 1
)

// Cuisine is the culinary style of a dish
type Cuisine string

const (
	CuisineUkrainian Cuisine = "українська"
	CuisineGerman    Cuisine = "німецька"
	CuisineJapanese  Cuisine = "японська"
	CuisineEuropean  Cuisine = "європейська"
	CuisineOther     Cuisine = "інша"
)

// Valid reports whether the cuisine belongs to the dish enum
func (c Cuisine) Valid() bool {
	switch c {
	case CuisineUkrainian, CuisineGerman, CuisineJapanese, CuisineEuropean, CuisineOther:
		return true
	}
	return false
}

// DrinkCategory groups drinks on the settings screen
type DrinkCategory string

const (
	DrinkCategoryAlcohol DrinkCategory = "alcohol"
	DrinkCategorySoft    DrinkCategory = "soft"
)

// Ingredient is one line of a recipe, expressed for BaseServings people
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Validate validates the ingredient
func (i Ingredient) Validate() error {
	if i.Name == "" {
		return ErrIngredientNameRequired
	}
	if i.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Dish is a recipe on the menu. Dishes are created from AI replies and
// removed by id; they are never edited in place.
type Dish struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Emoji        string       `json:"emoji"`
	Cuisine      Cuisine      `json:"cuisine"`
	BaseServings int          `json:"baseServings"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
}

// Validate validates the dish
func (d Dish) Validate() error {
	if d.ID == "" {
		return ErrDishIDRequired
	}
	if d.Name == "" {
		return ErrDishNameRequired
	}
	if !d.Cuisine.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCuisine, d.Cuisine)
	}
	if d.BaseServings <= 0 {
		return ErrInvalidServings
	}
	for _, ing := range d.Ingredients {
		if err := ing.Validate(); err != nil {
			return fmt.Errorf("ingredient %q: %w", ing.Name, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the dish
func (d Dish) Clone() Dish {
	d.Ingredients = cloneSlice(d.Ingredients)
	d.Instructions = cloneSlice(d.Instructions)
	return d
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// DrinkPreference is a chosen drink with a positive quantity (bottles or liters)
type DrinkPreference struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category DrinkCategory `json:"category"`
	Count    int           `json:"count"`
}

// PriceCache maps a product display name to a unit price in euro
type PriceCache map[string]float64

// AppState is the single persisted record of the planner
type AppState struct {
	PeopleCount int               `json:"peopleCount"`
	EventDays   int               `json:"eventDays"`
	Drinks      []DrinkPreference `json:"drinks"`
	Menu        []Dish            `json:"menu"`
	Prices      PriceCache        `json:"prices"`
}

// DefaultState returns the state used on first launch
func DefaultState() AppState {
	return AppState{
		PeopleCount: DefaultPeopleCount,
		EventDays:   DefaultEventDays,
		Drinks:      []DrinkPreference{},
		Menu:        []Dish{},
		Prices:      PriceCache{},
	}
}

// Clone returns a deep copy so callers can never alias the owner's slices
func (s AppState) Clone() AppState {
	out := AppState{
		PeopleCount: s.PeopleCount,
		EventDays:   s.EventDays,
		Drinks:      make([]DrinkPreference, len(s.Drinks)),
		Menu:        make([]Dish, len(s.Menu)),
		Prices:      make(PriceCache, len(s.Prices)),
	}
	copy(out.Drinks, s.Drinks)
	for i, d := range s.Menu {
		out.Menu[i] = d.Clone()
	}
	for k, v := range s.Prices {
		out.Prices[k] = v
	}
	return out
}

// DrinkCount returns the selected quantity of a catalog drink, 0 when absent
func (s AppState) DrinkCount(id string) int {
	for _, d := range s.Drinks {
		if d.ID == id {
			return d.Count
		}
	}
	return 0
}

// FindDish returns the dish with the given id
func (s AppState) FindDish(id string) (Dish, bool) {
	for _, d := range s.Menu {
		if d.ID == id {
			return d, true
		}
	}
	return Dish{}, false
}

// Encode serializes the state to the persisted blob format
func (s AppState) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses a persisted blob. Fields missing from the blob keep
// their default values and counts below 1 are clamped. Drinks without a
// positive count, dishes without a serving base and repeated ids are dropped.
func DecodeState(data []byte) (AppState, error) {
	state := DefaultState()
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), fmt.Errorf("decode state: %w", err)
	}

	state.PeopleCount = clampPositive(state.PeopleCount)
	state.EventDays = clampPositive(state.EventDays)
	state.Drinks = keepUnique(state.Drinks, func(d DrinkPreference) (string, bool) {
		return d.ID, d.Count > 0
	})
	state.Menu = keepUnique(state.Menu, func(d Dish) (string, bool) {
		return d.ID, d.BaseServings > 0
	})
	if state.Prices == nil {
		state.Prices = PriceCache{}
	}
	return state, nil
}

// keepUnique keeps the first entry per id among those accepted by key.
// The result is never nil.
func keepUnique[T any](in []T, key func(T) (string, bool)) []T {
	out := make([]T, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		id, ok := key(v)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, v)
	}
	return out
}

func clampPositive(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
