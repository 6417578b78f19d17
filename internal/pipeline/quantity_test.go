package pipeline

import "testing"

func TestResolveQuantities(t *testing.T) {
	tests := []struct {
		name        string
		description string
		quantity    float64
		want        float64
		wantDiags   int
	}{
		{"no multiplier", "Plain Noodles", 3, 3, 0},
		{"single multiplier", "Noodles *6", 2, 12, 0},
		{"two multipliers compound", "WIDGET *2*3", 1, 6, 0},
		{"three multipliers compound", "Box *2 *3 *4", 1, 24, 0},
		{"multiplier mid-word", "Cookies*12 Pack", 2, 24, 0},
		{"zero quantity stays zero", "Noodles *6", 0, 0, 0},
		{"overflow falls back to original", "Bad *99999999999999999999", 5, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &Table{Rows: []Row{{Description: tt.description, Quantity: tt.quantity}}}

			diags := ResolveQuantities(table)
			if len(diags) != tt.wantDiags {
				t.Errorf("diags = %d, want %d (%v)", len(diags), tt.wantDiags, diags)
			}
			if got := table.Rows[0].ResolvedQuantity; got != tt.want {
				t.Errorf("ResolvedQuantity = %v, want %v", got, tt.want)
			}
			if table.Rows[0].Quantity != tt.quantity {
				t.Errorf("Quantity mutated to %v, want %v preserved", table.Rows[0].Quantity, tt.quantity)
			}
		})
	}
}

func TestResolveQuantities_RowCountPreserved(t *testing.T) {
	table := &Table{Rows: []Row{
		{Description: "A *2", Quantity: 1},
		{Description: "B *99999999999999999999", Quantity: 1},
		{Description: "C", Quantity: 1},
	}}

	ResolveQuantities(table)
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}
}
