package planner

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DrinkOption is a drink the user can pick a quantity for
type DrinkOption struct {
	ID       string        `yaml:"id" json:"id"`
	Name     string        `yaml:"name" json:"name"`
	Category DrinkCategory `yaml:"category" json:"category"`
}

type catalogFile struct {
	Drinks   []DrinkOption `yaml:"drinks"`
	Cuisines []Cuisine     `yaml:"cuisines"`
}

var catalog = mustParseCatalog(catalogYAML)

func parseCatalog(data []byte) (catalogFile, error) {
	var c catalogFile
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Drinks))
	for _, d := range c.Drinks {
		if d.ID == "" || d.Name == "" {
			return c, fmt.Errorf("catalog drink without id or name: %+v", d)
		}
		if d.Category != DrinkCategoryAlcohol && d.Category != DrinkCategorySoft {
			return c, fmt.Errorf("catalog drink %s: unknown category %q", d.ID, d.Category)
		}
		if seen[d.ID] {
			return c, fmt.Errorf("catalog drink %s listed twice", d.ID)
		}
		seen[d.ID] = true
	}
	for _, cu := range c.Cuisines {
		if !cu.Valid() {
			return c, fmt.Errorf("catalog cuisine %q is not a known cuisine", cu)
		}
	}
	return c, nil
}

func mustParseCatalog(data []byte) catalogFile {
	c, err := parseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// DrinkCatalog returns all drinks in display order
func DrinkCatalog() []DrinkOption {
	return append([]DrinkOption(nil), catalog.Drinks...)
}

// DrinksByCategory returns the catalog drinks of one category in display order
func DrinksByCategory(category DrinkCategory) []DrinkOption {
	var out []DrinkOption
	for _, d := range catalog.Drinks {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// LookupDrink finds a catalog drink by id
func LookupDrink(id string) (DrinkOption, bool) {
	for _, d := range catalog.Drinks {
		if d.ID == id {
			return d, true
		}
	}
	return DrinkOption{}, false
}

// SelectableCuisines returns the cuisines offered when adding a dish
func SelectableCuisines() []Cuisine {
	return append([]Cuisine(nil), catalog.Cuisines...)
}
