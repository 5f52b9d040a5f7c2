// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/holidaytable/planner/internal/domain/planner"
)

// DishFactory creates random but valid dishes
type DishFactory struct {
	faker *gofakeit.Faker
}

// NewDishFactory creates a new dish factory with seeded faker
func NewDishFactory(seed int64) *DishFactory {
	return &DishFactory{faker: gofakeit.New(seed)}
}

var testUnits = []string{"г", "мл", "шт", "кг", "ч.л."}

// Dish returns a valid dish with 2-6 ingredients
func (f *DishFactory) Dish() planner.Dish {
	cuisines := planner.SelectableCuisines()
	n := f.faker.IntRange(2, 6)

	ingredients := make([]planner.Ingredient, 0, n)
	for i := 0; i < n; i++ {
		ingredients = append(ingredients, planner.Ingredient{
			Name:   f.faker.Vegetable(),
			Amount: float64(f.faker.IntRange(1, 500)),
			Unit:   testUnits[f.faker.IntRange(0, len(testUnits)-1)],
		})
	}

	return planner.Dish{
		ID:           uuid.NewString(),
		Name:         f.faker.Dinner(),
		Emoji:        f.faker.Emoji(),
		Cuisine:      cuisines[f.faker.IntRange(0, len(cuisines)-1)],
		BaseServings: 4,
		Ingredients:  ingredients,
		Instructions: []string{f.faker.Sentence(6), f.faker.Sentence(8)},
	}
}

// DishBuilder provides a fluent interface for building test dishes
type DishBuilder struct {
	dish planner.Dish
}

// NewDishBuilder creates a builder with a named Ukrainian dish for 4 servings
func NewDishBuilder() *DishBuilder {
	faker := gofakeit.New(time.Now().UnixNano())
	return &DishBuilder{dish: planner.Dish{
		ID:           uuid.NewString(),
		Name:         faker.Dinner(),
		Emoji:        "🍲",
		Cuisine:      planner.CuisineUkrainian,
		BaseServings: 4,
		Ingredients:  []planner.Ingredient{},
		Instructions: []string{faker.Sentence(5)},
	}}
}

// WithID sets the dish id
func (b *DishBuilder) WithID(id string) *DishBuilder {
	b.dish.ID = id
	return b
}

// WithName sets the dish name
func (b *DishBuilder) WithName(name string) *DishBuilder {
	b.dish.Name = name
	return b
}

// WithCuisine sets the dish cuisine
func (b *DishBuilder) WithCuisine(c planner.Cuisine) *DishBuilder {
	b.dish.Cuisine = c
	return b
}

// WithBaseServings sets the number of servings the amounts are written for
func (b *DishBuilder) WithBaseServings(n int) *DishBuilder {
	b.dish.BaseServings = n
	return b
}

// WithIngredient appends an ingredient
func (b *DishBuilder) WithIngredient(name string, amount float64, unit string) *DishBuilder {
	b.dish.Ingredients = append(b.dish.Ingredients, planner.Ingredient{Name: name, Amount: amount, Unit: unit})
	return b
}

// WithInstructions replaces the instruction steps
func (b *DishBuilder) WithInstructions(steps ...string) *DishBuilder {
	b.dish.Instructions = steps
	return b
}

// Build returns the dish
func (b *DishBuilder) Build() planner.Dish {
	return b.dish.Clone()
}

// StateBuilder builds AppState values starting from the defaults
type StateBuilder struct {
	state planner.AppState
}

// NewStateBuilder creates a builder seeded with planner.DefaultState
func NewStateBuilder() *StateBuilder {
	return &StateBuilder{state: planner.DefaultState()}
}

// WithPeople sets the guest count
func (b *StateBuilder) WithPeople(n int) *StateBuilder {
	b.state.PeopleCount = n
	return b
}

// WithDays sets the event duration
func (b *StateBuilder) WithDays(n int) *StateBuilder {
	b.state.EventDays = n
	return b
}

// WithDish appends a dish to the menu
func (b *StateBuilder) WithDish(d planner.Dish) *StateBuilder {
	b.state.Menu = append(b.state.Menu, d)
	return b
}

// WithDrink selects a catalog drink; it panics on unknown ids
func (b *StateBuilder) WithDrink(id string, count int) *StateBuilder {
	option, ok := planner.LookupDrink(id)
	if !ok {
		panic("unknown catalog drink " + id)
	}
	b.state.Drinks = append(b.state.Drinks, planner.DrinkPreference{
		ID: option.ID, Name: option.Name, Category: option.Category, Count: count,
	})
	return b
}

// WithPrice caches a price
func (b *StateBuilder) WithPrice(name string, price float64) *StateBuilder {
	b.state.Prices[name] = price
	return b
}

// Build returns a deep copy of the state
func (b *StateBuilder) Build() planner.AppState {
	return b.state.Clone()
}
