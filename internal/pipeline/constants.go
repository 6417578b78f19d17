package pipeline

import "time"

// Default values for the normalization pipeline. Overridable via flags or
// environment in the binaries.
const (
	// DefaultSourceLang is the language vendor invoices usually arrive in.
	DefaultSourceLang = "zh"

	// DefaultTargetLang is the language descriptions are translated into.
	DefaultTargetLang = "en"

	// DefaultTranslateTimeout bounds a single external translation call.
	DefaultTranslateTimeout = 10 * time.Second

	// DefaultTranslateParallelism caps concurrent translation calls per table.
	DefaultTranslateParallelism = 4
)

// Stage labels reported to the progress tracker and the audit recorder.
const (
	StageReconcile = "reconciling schema"
	StageQuantity  = "resolving quantities"
	StagePrice     = "deriving unit prices"
	StageClean     = "cleaning descriptions"
	StageTranslate = "translating descriptions"
)
