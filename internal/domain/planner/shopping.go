package planner

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownPricePlaceholder is shown instead of a price that is not cached
const UnknownPricePlaceholder = "---"

// ShoppingItem is an aggregated ingredient across the whole menu
type ShoppingItem struct {
	// Name is the lower-cased ingredient name
	Name   string
	Unit   string
	Amount float64
}

// Key identifies the aggregation bucket of the item
func (i ShoppingItem) Key() string {
	return aggregationKey(i.Name, i.Unit)
}

func aggregationKey(name, unit string) string {
	return strings.ToLower(name) + "_" + unit
}

// AggregateIngredients sums the scaled amounts of all menu ingredients that
// share a lower-cased name and an exact unit. Items come out in the order
// their bucket was first seen.
func AggregateIngredients(s AppState) []ShoppingItem {
	index := make(map[string]int)
	var items []ShoppingItem

	for _, dish := range s.Menu {
		for _, ing := range dish.Ingredients {
			name := strings.ToLower(ing.Name)
			key := aggregationKey(name, ing.Unit)
			amount := ScaledAmount(ing.Amount, s.PeopleCount, dish.BaseServings)

			if i, ok := index[key]; ok {
				items[i].Amount += amount
				continue
			}
			index[key] = len(items)
			items = append(items, ShoppingItem{Name: name, Unit: ing.Unit, Amount: amount})
		}
	}
	return items
}

// LookupPrice finds the cached price for a product name. An exact key wins;
// otherwise the first key in sorted order whose lower-cased form contains
// the lower-cased name is used.
func LookupPrice(prices PriceCache, name string) (float64, bool) {
	if p, ok := prices[name]; ok && p > 0 {
		return p, true
	}

	needle := strings.ToLower(name)
	if needle == "" {
		return 0, false
	}

	keys := make([]string, 0, len(prices))
	for k := range prices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), needle) && prices[k] > 0 {
			return prices[k], true
		}
	}
	return 0, false
}

// NormalizedQuantity converts grams and milliliters to the kilogram and
// liter quantities prices are quoted for. Other units pass through.
func NormalizedQuantity(amount float64, unit string) float64 {
	switch unit {
	case "g", "г", "ml", "мл":
		return amount / 1000
	}
	return amount
}

// FormatEuro renders a euro amount with two decimals, e.g. €12.50
func FormatEuro(v float64) string {
	return fmt.Sprintf("€%.2f", v)
}

// PriceLabel renders a unit price, or the placeholder when it is unknown
func PriceLabel(price float64, priced bool) string {
	if !priced {
		return UnknownPricePlaceholder
	}
	return FormatEuro(price)
}

// IngredientCost is a priced shopping line
type IngredientCost struct {
	ShoppingItem
	UnitPrice float64
	Priced    bool
	Cost      float64
}

// DrinkCost is a priced drink line
type DrinkCost struct {
	DrinkPreference
	UnitPrice float64
	Priced    bool
	Cost      float64
}

// Estimate is the full shopping list with the budget total
type Estimate struct {
	Ingredients []IngredientCost
	Drinks      []DrinkCost
	Total       float64
}

// PricedCount returns how many lines have a known price
func (e Estimate) PricedCount() int {
	n := 0
	for _, l := range e.Ingredients {
		if l.Priced {
			n++
		}
	}
	for _, l := range e.Drinks {
		if l.Priced {
			n++
		}
	}
	return n
}

// EstimateCost prices the aggregated ingredients and the drinks. Lines
// without a price contribute nothing to the total.
func EstimateCost(s AppState) Estimate {
	var est Estimate

	for _, item := range AggregateIngredients(s) {
		line := IngredientCost{ShoppingItem: item}
		if price, ok := LookupPrice(s.Prices, item.Name); ok {
			line.UnitPrice = price
			line.Priced = true
			line.Cost = price * NormalizedQuantity(item.Amount, item.Unit)
		}
		est.Total += line.Cost
		est.Ingredients = append(est.Ingredients, line)
	}

	for _, d := range s.Drinks {
		line := DrinkCost{DrinkPreference: d}
		if price, ok := LookupPrice(s.Prices, d.Name); ok {
			line.UnitPrice = price
			line.Priced = true
			line.Cost = price * float64(d.Count)
		}
		est.Total += line.Cost
		est.Drinks = append(est.Drinks, line)
	}

	return est
}

// PriceQueryNames lists the product names a price refresh asks for:
// aggregated ingredient names followed by drink names.
func PriceQueryNames(s AppState) []string {
	items := AggregateIngredients(s)
	names := make([]string, 0, len(items)+len(s.Drinks))
	for _, item := range items {
		names = append(names, item.Name)
	}
	for _, d := range s.Drinks {
		names = append(names, d.Name)
	}
	return names
}
