package pipeline

// SourceTable is the decoded form of an uploaded spreadsheet: a header row of
// column names plus the data records, exactly as the file-reading collaborator
// produced them. The pipeline never touches file bytes itself.
type SourceTable struct {
	Columns []string
	Records [][]string
}

// Row is one invoice line item after schema reconciliation.
// Quantity and ExtendedPrice hold the coerced numeric values (non-numeric
// source cells coerce to 0); the remaining fields are filled in stage by stage.
type Row struct {
	Description   string
	Barcode       string
	Quantity      float64
	ExtendedPrice float64

	// ResolvedQuantity is Quantity folded with the pack-size multipliers found
	// in the raw description. It never drops below Quantity unless the source
	// quantity was already non-positive.
	ResolvedQuantity float64

	// SinglePrice is the derived per-unit price; falls back to ExtendedPrice
	// when ResolvedQuantity is not positive.
	SinglePrice float64

	CleanedDescription    string
	TranslatedDescription string
}

// Table is an ordered sequence of reconciled rows sharing the canonical schema.
// Stages derive each table from the previous one; row order is preserved
// throughout the pipeline.
type Table struct {
	Rows []Row
}

// Diag is a row-local diagnostic emitted by a stage. Row-local problems never
// abort the table; the affected row falls back to a defined value and the
// diagnostic records what happened, so the fallback policy is visible at the
// stage boundary instead of buried in a blanket recover.
type Diag struct {
	Row   int
	Stage string
	Err   error
}
