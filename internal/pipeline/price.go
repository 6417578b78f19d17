package pipeline

import "math"

// DerivePrices computes the per-unit price for every row:
// round(ExtendedPrice/ResolvedQuantity, 2) when the resolved quantity is
// positive, the raw extended price otherwise. Rounding is half away from
// zero; the tests pin this choice.
func DerivePrices(t *Table) {
	for i := range t.Rows {
		row := &t.Rows[i]
		if row.ResolvedQuantity > 0 {
			row.SinglePrice = roundCents(row.ExtendedPrice / row.ResolvedQuantity)
		} else {
			row.SinglePrice = row.ExtendedPrice
		}
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
