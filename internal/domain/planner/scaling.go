package planner

import "strconv"

// ScaledAmount converts an ingredient amount written for baseServings people
// to the amount needed for people guests. The stored amount is never changed.
func ScaledAmount(amount float64, people, baseServings int) float64 {
	if baseServings <= 0 {
		return amount
	}
	return amount * float64(people) / float64(baseServings)
}

// FormatAmount renders a quantity with a fixed number of decimal places
func FormatAmount(amount float64, decimals int) string {
	return strconv.FormatFloat(amount, 'f', decimals, 64)
}

// ScaledIngredient is an ingredient with its amount for the current guest count
type ScaledIngredient struct {
	Ingredient
	Scaled float64
}

// ScaleDish returns every ingredient of a dish scaled to people guests
func ScaleDish(d Dish, people int) []ScaledIngredient {
	out := make([]ScaledIngredient, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		out = append(out, ScaledIngredient{
			Ingredient: ing,
			Scaled:     ScaledAmount(ing.Amount, people, d.BaseServings),
		})
	}
	return out
}
