package pipeline

import "fmt"

// SchemaError reports that a required canonical column could not be found in
// the uploaded file. It is fatal for the whole table; the caller should relay
// it to the user as "your file is missing required data".
type SchemaError struct {
	Column  string
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found (file headers: %v)", e.Column, e.Headers)
}

// RowParseError reports a quantity/price coercion or multiplier parse failure
// for a single row. It is never fatal: the row keeps a fallback value and the
// error only surfaces as a diagnostic.
type RowParseError struct {
	Field string
	Value string
	Err   error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q: %v", e.Field, e.Value, e.Err)
}

func (e *RowParseError) Unwrap() error { return e.Err }

// TranslationError reports a failed external translation call for a single
// row. The row keeps its cleaned description as the translation.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }
