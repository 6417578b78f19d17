package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
)

// outputColumns is the column order of the produced artifact.
var outputColumns = []interface{}{
	"Description", "Barcode", "Qty", "Price", "SinglePrice", "TranslatedDescription",
}

// Write renders a normalized table as an xlsx workbook. Description carries
// the cleaned text; Qty carries the resolved quantity.
func Write(t *pipeline.Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &outputColumns); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		values := []interface{}{
			row.CleanedDescription,
			row.Barcode,
			row.ResolvedQuantity,
			row.ExtendedPrice,
			row.SinglePrice,
			row.TranslatedDescription,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
