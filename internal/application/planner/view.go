package planner

import (
	"context"
	"strconv"

	"github.com/holidaytable/planner/internal/domain/planner"
)

// DrinkUnit is the quantity label of a drink line
const DrinkUnit = "шт/л"

// ShoppingRow is one display-ready line of the shopping list
type ShoppingRow struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Quantity  string  `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	Price     string  `json:"price"`
	Priced    bool    `json:"priced"`
	Cost      float64 `json:"cost"`
}

// ShoppingView is the shopping list as every front end shows it
type ShoppingView struct {
	Ingredients []ShoppingRow `json:"ingredients"`
	Drinks      []ShoppingRow `json:"drinks"`
	Total       float64       `json:"total"`
	TotalLabel  string        `json:"totalLabel"`
}

// NewShoppingView formats an estimate. Ingredient quantities are rounded
// to whole units; unknown prices show the placeholder.
func NewShoppingView(est planner.Estimate) ShoppingView {
	view := ShoppingView{
		Ingredients: make([]ShoppingRow, 0, len(est.Ingredients)),
		Drinks:      make([]ShoppingRow, 0, len(est.Drinks)),
		Total:       est.Total,
		TotalLabel:  planner.FormatEuro(est.Total),
	}

	for _, line := range est.Ingredients {
		view.Ingredients = append(view.Ingredients, ShoppingRow{
			Name:      line.Name,
			Amount:    line.Amount,
			Quantity:  planner.FormatAmount(line.Amount, 0),
			Unit:      line.Unit,
			UnitPrice: line.UnitPrice,
			Price:     planner.PriceLabel(line.UnitPrice, line.Priced),
			Priced:    line.Priced,
			Cost:      line.Cost,
		})
	}

	for _, line := range est.Drinks {
		view.Drinks = append(view.Drinks, ShoppingRow{
			Name:      line.Name,
			Amount:    float64(line.Count),
			Quantity:  strconv.Itoa(line.Count),
			Unit:      DrinkUnit,
			UnitPrice: line.UnitPrice,
			Price:     planner.PriceLabel(line.UnitPrice, line.Priced),
			Priced:    line.Priced,
			Cost:      line.Cost,
		})
	}

	return view
}

// ShoppingView returns the formatted shopping list of the current state
func (s *Service) ShoppingView(ctx context.Context) ShoppingView {
	return NewShoppingView(s.ShoppingList(ctx))
}
