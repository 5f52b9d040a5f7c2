package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/test/testutils"
)

// ReducerTestSuite covers every action the controller can dispatch
type ReducerTestSuite struct {
	suite.Suite
	now     time.Time
	factory *testutils.DishFactory
}

func (s *ReducerTestSuite) SetupSuite() {
	s.now = time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC)
	s.factory = testutils.NewDishFactory(42)
}

func TestReducerTestSuite(t *testing.T) {
	suite.Run(t, new(ReducerTestSuite))
}

func (s *ReducerTestSuite) TestPartySettings() {
	s.Run("PositiveCount_ShouldBeStored", func() {
		next, ev, err := planner.Reduce(planner.DefaultState(), planner.SetPeopleCount{Count: 9}, s.now)

		require.NoError(s.T(), err)
		assert.Equal(s.T(), 9, next.PeopleCount)
		assert.Equal(s.T(), planner.PartySizeChangedEvent{PeopleCount: 9, ChangedAt: s.now}, ev)
	})

	s.Run("ZeroOrNegative_ShouldClampToOne", func() {
		for _, n := range []int{0, -3} {
			next, _, err := planner.Reduce(planner.DefaultState(), planner.SetPeopleCount{Count: n}, s.now)
			require.NoError(s.T(), err)
			assert.Equal(s.T(), 1, next.PeopleCount)

			next, _, err = planner.Reduce(planner.DefaultState(), planner.SetEventDays{Days: n}, s.now)
			require.NoError(s.T(), err)
			assert.Equal(s.T(), 1, next.EventDays)
		}
	})
}

func (s *ReducerTestSuite) TestDrinkCounts() {
	s.Run("PositiveCount_ShouldUpsertSingleEntry", func() {
		// Arrange
		state := planner.DefaultState()

		// Act
		state, _, err := planner.Reduce(state, planner.SetDrinkCount{DrinkID: "wine_red", Count: 2}, s.now)
		require.NoError(s.T(), err)
		state, _, err = planner.Reduce(state, planner.SetDrinkCount{DrinkID: "wine_red", Count: 5}, s.now)
		require.NoError(s.T(), err)

		// Assert
		require.Len(s.T(), state.Drinks, 1)
		assert.Equal(s.T(), planner.DrinkPreference{
			ID: "wine_red", Name: "Вино (червоне)", Category: planner.DrinkCategoryAlcohol, Count: 5,
		}, state.Drinks[0])
	})

	s.Run("Upsert_ShouldMoveEntryToEnd", func() {
		state := testutils.NewStateBuilder().WithDrink("beer", 6).WithDrink("juice", 2).Build()

		state, _, err := planner.Reduce(state, planner.SetDrinkCount{DrinkID: "beer", Count: 10}, s.now)

		require.NoError(s.T(), err)
		require.Len(s.T(), state.Drinks, 2)
		assert.Equal(s.T(), "juice", state.Drinks[0].ID)
		assert.Equal(s.T(), "beer", state.Drinks[1].ID)
		assert.Equal(s.T(), 10, state.Drinks[1].Count)
	})

	s.Run("Zero_ShouldRemove", func() {
		state := testutils.NewStateBuilder().WithDrink("water", 3).Build()

		state, ev, err := planner.Reduce(state, planner.SetDrinkCount{DrinkID: "water", Count: 0}, s.now)

		require.NoError(s.T(), err)
		assert.Empty(s.T(), state.Drinks)
		assert.Equal(s.T(), 0, ev.(planner.DrinkCountChangedEvent).Count)
	})

	s.Run("Negative_ShouldBehaveLikeZero", func() {
		state := testutils.NewStateBuilder().WithDrink("cola", 3).Build()

		state, _, err := planner.Reduce(state, planner.SetDrinkCount{DrinkID: "cola", Count: -7}, s.now)

		require.NoError(s.T(), err)
		assert.Zero(s.T(), state.DrinkCount("cola"))
	})

	s.Run("UnknownDrink_ShouldFailAndKeepState", func() {
		state := testutils.NewStateBuilder().WithDrink("cola", 3).Build()

		next, ev, err := planner.Reduce(state, planner.SetDrinkCount{DrinkID: "absinthe", Count: 1}, s.now)

		assert.ErrorIs(s.T(), err, planner.ErrUnknownDrink)
		assert.Nil(s.T(), ev)
		assert.Equal(s.T(), state, next)
	})
}

func (s *ReducerTestSuite) TestMenu() {
	s.Run("AddDish_ShouldAppend", func() {
		dish := s.factory.Dish()

		next, ev, err := planner.Reduce(planner.DefaultState(), planner.AddDish{Dish: dish}, s.now)

		require.NoError(s.T(), err)
		require.Len(s.T(), next.Menu, 1)
		assert.Equal(s.T(), dish, next.Menu[0])
		assert.Equal(s.T(), dish.ID, ev.(planner.DishAddedEvent).DishID)
	})

	s.Run("AddDish_DuplicateID_ShouldFail", func() {
		dish := s.factory.Dish()
		state := testutils.NewStateBuilder().WithDish(dish).Build()

		_, _, err := planner.Reduce(state, planner.AddDish{Dish: dish}, s.now)

		assert.ErrorIs(s.T(), err, planner.ErrDuplicateDish)
	})

	s.Run("AddDish_InvalidDish_ShouldFail", func() {
		dish := testutils.NewDishBuilder().WithBaseServings(0).Build()

		_, _, err := planner.Reduce(planner.DefaultState(), planner.AddDish{Dish: dish}, s.now)

		assert.ErrorIs(s.T(), err, planner.ErrInvalidServings)
	})

	s.Run("RemoveDish_ShouldFilterByID", func() {
		a, b := s.factory.Dish(), s.factory.Dish()
		state := testutils.NewStateBuilder().WithDish(a).WithDish(b).Build()

		next, ev, err := planner.Reduce(state, planner.RemoveDish{DishID: a.ID}, s.now)

		require.NoError(s.T(), err)
		require.Len(s.T(), next.Menu, 1)
		assert.Equal(s.T(), b.ID, next.Menu[0].ID)
		assert.True(s.T(), ev.(planner.DishRemovedEvent).Found)
	})

	s.Run("RemoveDish_UnknownID_ShouldBeNoop", func() {
		state := testutils.NewStateBuilder().WithDish(s.factory.Dish()).Build()

		next, ev, err := planner.Reduce(state, planner.RemoveDish{DishID: "missing"}, s.now)

		require.NoError(s.T(), err)
		assert.Equal(s.T(), state, next)
		assert.False(s.T(), ev.(planner.DishRemovedEvent).Found)
	})
}

func (s *ReducerTestSuite) TestMergePrices() {
	s.Run("ShouldMergeAndOverwrite", func() {
		state := testutils.NewStateBuilder().WithPrice("цукор", 1.1).WithPrice("сіль", 0.5).Build()

		next, ev, err := planner.Reduce(state, planner.MergePrices{Prices: planner.PriceCache{
			"цукор":  1.4,
			"Пиво":   2.2,
			"борошно": 0,
			"масло":  -3,
		}}, s.now)

		require.NoError(s.T(), err)
		assert.Equal(s.T(), planner.PriceCache{"цукор": 1.4, "сіль": 0.5, "Пиво": 2.2}, next.Prices)
		merged := ev.(planner.PricesMergedEvent)
		assert.Equal(s.T(), 2, merged.Merged)
		assert.Equal(s.T(), 2, merged.Dropped)
	})
}

func TestReduce_DoesNotAliasInput(t *testing.T) {
	state := testutils.NewStateBuilder().WithPrice("цукор", 1).Build()

	next, _, err := planner.Reduce(state, planner.MergePrices{Prices: planner.PriceCache{"сіль": 2}}, time.Now())

	require.NoError(t, err)
	assert.NotContains(t, state.Prices, "сіль")
	assert.Contains(t, next.Prices, "сіль")
}
