// Package export writes the shopping list as an XLSX workbook
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/domain/planner"
)

const (
	IngredientsSheet = "Продукти"
	DrinksSheet      = "Напої"
	TotalLabel       = "Орієнтовний бюджет"

	// ContentType is the media type of the workbook
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []interface{}{"Назва", "Кількість", "Од.", "Ціна за од., €", "Вартість, €"}

// WriteShoppingList renders view as a workbook with one sheet for
// ingredients and one for drinks. The budget total closes the ingredients
// sheet.
func WriteShoppingList(w io.Writer, view app.ShoppingView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", IngredientsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DrinksSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	total := []interface{}{TotalLabel, nil, nil, nil, view.Total}
	if err := writeSheet(f, IngredientsSheet, view.Ingredients, total); err != nil {
		return err
	}
	if err := writeSheet(f, DrinksSheet, view.Drinks, nil); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows []app.ShoppingRow, footer []interface{}) error {
	// StreamWriter keeps memory flat for long lists
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("%s: %w", sheet, err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("%s: %w", sheet, err)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{r.Name, r.Amount, r.Unit, unitPrice(r), r.Cost}); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	if footer != nil {
		// one blank row before the footer
		cell, _ := excelize.CoordinatesToCellName(1, len(rows)+3)
		if err := sw.SetRow(cell, footer); err != nil {
			return fmt.Errorf("%s footer: %w", sheet, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", sheet, err)
	}
	return nil
}

func unitPrice(r app.ShoppingRow) interface{} {
	if !r.Priced {
		return planner.UnknownPricePlaceholder
	}
	return r.UnitPrice
}
