package pipeline

import (
	"regexp"
	"strconv"
)

// multiplierPattern matches pack-size multiplier tokens like "*6" or "*12"
// embedded in the raw description.
var multiplierPattern = regexp.MustCompile(`\*(\d+)`)

// ResolveQuantities folds every multiplier token found in the raw description
// into the reported quantity, left to right. A row with no multipliers keeps
// its quantity unchanged; a row whose multiplier fails to parse falls back to
// its original quantity and is never dropped.
func ResolveQuantities(t *Table) []Diag {
	var diags []Diag

	for i := range t.Rows {
		row := &t.Rows[i]
		row.ResolvedQuantity = row.Quantity

		matches := multiplierPattern.FindAllStringSubmatch(row.Description, -1)
		if len(matches) == 0 {
			continue
		}

		resolved := row.Quantity
		ok := true
		for _, m := range matches {
			// \d+ can still overflow int on absurd input.
			n, err := strconv.Atoi(m[1])
			if err != nil {
				diags = append(diags, Diag{
					Row:   i,
					Stage: StageQuantity,
					Err:   &RowParseError{Field: "multiplier", Value: m[0], Err: err},
				})
				ok = false
				break
			}
			resolved *= float64(n)
		}
		if ok {
			row.ResolvedQuantity = resolved
		}
	}

	return diags
}
