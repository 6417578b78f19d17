package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical column names every stage operates on after reconciliation.
const (
	ColDescription = "Description"
	ColBarcode     = "Barcode"
	ColQty         = "Qty"
	ColPrice       = "Price"
)

// columnAliases maps known vendor header variants (normalized: lowercased,
// spaces/underscores/dots stripped) to canonical names. The canonical names
// themselves are included so exact matches resolve in the same pass.
var columnAliases = map[string]string{
	"description":      ColDescription,
	"description1":     ColDescription,
	"itemdescription":  ColDescription,
	"goodsdescription": ColDescription,
	"productname":      ColDescription,

	"barcode":  ColBarcode,
	"barcode1": ColBarcode,
	"ean":      ColBarcode,

	"qty":      ColQty,
	"qty1":     ColQty,
	"quantity": ColQty,
	"stockqty": ColQty,

	"price":      ColPrice,
	"exprice":    ColPrice,
	"stockprice": ColPrice,
	"extprice":   ColPrice,
	"totalprice": ColPrice,
}

// substring fallbacks, tried in order for canonical names the alias map did
// not resolve. "code" is last so a "barcode" header is never claimed by it
// while a plain "itemcode" header still maps to Barcode.
var columnFallbacks = []struct {
	needle    string
	canonical string
}{
	{"desc", ColDescription},
	{"barcode", ColBarcode},
	{"qty", ColQty},
	{"quant", ColQty},
	{"price", ColPrice},
	{"amount", ColPrice},
	{"code", ColBarcode},
}

// Reconcile maps whatever column names the spreadsheet arrived with onto the
// canonical schema and builds the typed row set. Missing Description, Qty or
// Price is a SchemaError; a missing Barcode column is synthesized empty.
// The source table is not modified.
func Reconcile(src SourceTable) (*Table, []Diag, error) {
	indexes := map[string]int{
		ColDescription: -1,
		ColBarcode:     -1,
		ColQty:         -1,
		ColPrice:       -1,
	}
	claimed := make(map[int]bool, len(src.Columns))

	// Pass 1: exact names and known aliases.
	for i, col := range src.Columns {
		canonical, ok := columnAliases[normalizeHeader(col)]
		if !ok || indexes[canonical] != -1 {
			continue
		}
		indexes[canonical] = i
		claimed[i] = true
	}

	// Pass 2: case-insensitive substring match over the remaining headers.
	for _, fb := range columnFallbacks {
		if indexes[fb.canonical] != -1 {
			continue
		}
		for i, col := range src.Columns {
			if claimed[i] {
				continue
			}
			if strings.Contains(strings.ToLower(col), fb.needle) {
				indexes[fb.canonical] = i
				claimed[i] = true
				break
			}
		}
	}

	for _, required := range []string{ColDescription, ColQty, ColPrice} {
		if indexes[required] == -1 {
			return nil, nil, &SchemaError{Column: required, Headers: src.Columns}
		}
	}

	table := &Table{Rows: make([]Row, 0, len(src.Records))}
	var diags []Diag

	for rowIdx, record := range src.Records {
		row := Row{
			Description: cell(record, indexes[ColDescription]),
			Barcode:     cell(record, indexes[ColBarcode]),
		}

		rawQty := cell(record, indexes[ColQty])
		qty, err := coerceNumber(rawQty)
		if err != nil {
			diags = append(diags, Diag{
				Row:   rowIdx,
				Stage: StageReconcile,
				Err:   &RowParseError{Field: ColQty, Value: rawQty, Err: err},
			})
		}
		row.Quantity = qty
		row.ResolvedQuantity = qty

		rawPrice := cell(record, indexes[ColPrice])
		price, err := coerceNumber(rawPrice)
		if err != nil {
			diags = append(diags, Diag{
				Row:   rowIdx,
				Stage: StageReconcile,
				Err:   &RowParseError{Field: ColPrice, Value: rawPrice, Err: err},
			})
		}
		row.ExtendedPrice = price

		table.Rows = append(table.Rows, row)
	}

	return table, diags, nil
}

// cell returns record[i], tolerating ragged records and the synthesized
// Barcode index of -1.
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '.', '-':
			return -1
		}
		return r
	}, h)
}

// coerceNumber converts a spreadsheet cell to a float64. Empty cells coerce
// to 0 silently; non-empty unparsable cells also coerce to 0 but report the
// error so the stage can emit a diagnostic.
func coerceNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return v, nil
}
