package pipeline

import (
	"errors"
	"testing"
)

func TestReconcile_ColumnMapping(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
	}{
		{
			name:    "canonical names",
			columns: []string{"Description", "Barcode", "Qty", "Price"},
		},
		{
			name:    "known aliases",
			columns: []string{"Description1", "Barcode1", "StockQty", "StockPrice"},
		},
		{
			name:    "extended price alias",
			columns: []string{"Description", "Barcode", "Qty", "ExPrice"},
		},
		{
			name:    "substring fallback",
			columns: []string{"ItemDesc", "ProductCode", "QtyShipped", "NetAmount"},
		},
		{
			name:    "case insensitive",
			columns: []string{"DESCRIPTION", "BARCODE", "QTY", "PRICE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := SourceTable{
				Columns: tt.columns,
				Records: [][]string{{"Noodles", "69-123", "2", "10.50"}},
			}

			table, diags, err := Reconcile(src)
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			if len(diags) != 0 {
				t.Errorf("Reconcile() diags = %v, want none", diags)
			}
			if len(table.Rows) != 1 {
				t.Fatalf("Reconcile() rows = %d, want 1", len(table.Rows))
			}

			row := table.Rows[0]
			if row.Description != "Noodles" {
				t.Errorf("Description = %q, want %q", row.Description, "Noodles")
			}
			if row.Barcode != "69-123" {
				t.Errorf("Barcode = %q, want %q", row.Barcode, "69-123")
			}
			if row.Quantity != 2 {
				t.Errorf("Quantity = %v, want 2", row.Quantity)
			}
			if row.ExtendedPrice != 10.50 {
				t.Errorf("ExtendedPrice = %v, want 10.50", row.ExtendedPrice)
			}
		})
	}
}

func TestReconcile_MissingRequiredColumns(t *testing.T) {
	tests := []struct {
		name       string
		columns    []string
		wantColumn string
	}{
		{
			name:       "missing description",
			columns:    []string{"Barcode", "Qty", "Price"},
			wantColumn: ColDescription,
		},
		{
			name:       "missing qty",
			columns:    []string{"Description", "Barcode", "Price"},
			wantColumn: ColQty,
		},
		{
			name:       "missing price",
			columns:    []string{"Description", "Barcode", "Qty"},
			wantColumn: ColPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := SourceTable{Columns: tt.columns, Records: [][]string{{"a", "b", "c"}}}

			_, _, err := Reconcile(src)
			if err == nil {
				t.Fatal("Reconcile() error = nil, want SchemaError")
			}

			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("Reconcile() error = %T, want *SchemaError", err)
			}
			if schemaErr.Column != tt.wantColumn {
				t.Errorf("SchemaError.Column = %q, want %q", schemaErr.Column, tt.wantColumn)
			}
		})
	}
}

func TestReconcile_MissingBarcodeSynthesized(t *testing.T) {
	src := SourceTable{
		Columns: []string{"Description", "Qty", "Price"},
		Records: [][]string{{"Noodles", "2", "10"}},
	}

	table, _, err := Reconcile(src)
	if err != nil {
		t.Fatalf("Reconcile() error = %v, want nil for missing Barcode", err)
	}
	if table.Rows[0].Barcode != "" {
		t.Errorf("Barcode = %q, want empty", table.Rows[0].Barcode)
	}
}

func TestReconcile_NumericCoercion(t *testing.T) {
	tests := []struct {
		name      string
		qty       string
		price     string
		wantQty   float64
		wantPrice float64
		wantDiags int
	}{
		{"plain numbers", "3", "12.75", 3, 12.75, 0},
		{"thousands separators", "1,200", "1,050.25", 1200, 1050.25, 0},
		{"empty cells coerce silently", "", "", 0, 0, 0},
		{"garbage coerces with diagnostics", "abc", "n/a", 0, 0, 2},
		{"negative values pass through", "-1", "-5", -1, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := SourceTable{
				Columns: []string{"Description", "Qty", "Price"},
				Records: [][]string{{"X", tt.qty, tt.price}},
			}

			table, diags, err := Reconcile(src)
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			if table.Rows[0].Quantity != tt.wantQty {
				t.Errorf("Quantity = %v, want %v", table.Rows[0].Quantity, tt.wantQty)
			}
			if table.Rows[0].ExtendedPrice != tt.wantPrice {
				t.Errorf("ExtendedPrice = %v, want %v", table.Rows[0].ExtendedPrice, tt.wantPrice)
			}
			if len(diags) != tt.wantDiags {
				t.Errorf("diags = %d, want %d (%v)", len(diags), tt.wantDiags, diags)
			}
			for _, d := range diags {
				var rowErr *RowParseError
				if !errors.As(d.Err, &rowErr) {
					t.Errorf("diag error = %T, want *RowParseError", d.Err)
				}
			}
		})
	}
}

func TestReconcile_RaggedRecords(t *testing.T) {
	src := SourceTable{
		Columns: []string{"Description", "Barcode", "Qty", "Price"},
		Records: [][]string{{"Short row"}},
	}

	table, _, err := Reconcile(src)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	row := table.Rows[0]
	if row.Description != "Short row" || row.Barcode != "" || row.Quantity != 0 || row.ExtendedPrice != 0 {
		t.Errorf("ragged row not padded: %+v", row)
	}
}
