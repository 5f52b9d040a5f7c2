package planner

import "errors"

// Domain errors for planner operations

var (
	// Dish validation errors
	ErrDishIDRequired         = errors.New("dish id is required")
	ErrDishNameRequired       = errors.New("dish name is required")
	ErrUnknownCuisine         = errors.New("unknown cuisine")
	ErrInvalidServings        = errors.New("base servings must be greater than 0")
	ErrIngredientNameRequired = errors.New("ingredient name is required")
	ErrNegativeAmount         = errors.New("ingredient amount cannot be negative")

	// Reducer errors
	ErrDuplicateDish = errors.New("dish with this id is already on the menu")
	ErrUnknownDrink  = errors.New("drink is not in the catalog")
)
