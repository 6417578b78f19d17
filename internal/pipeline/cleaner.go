package pipeline

import (
	"regexp"
	"strings"
)

// DefaultGlyphClass is the character class of packaging glyphs stripped by the
// first cleaning rule: the 箱 ("box") ideograph, a literal backslash, P and #.
// These show up in vendor exports as packaging shorthand, not product text.
const DefaultGlyphClass = `[箱\\P#]`

// Cleaner applies an ordered cascade of deletion rules to raw descriptions.
// The rules only ever delete text, so repeating the cascade reaches a fixed
// point; Clean runs to that fixed point, which makes it idempotent.
type Cleaner struct {
	rules []*regexp.Regexp
}

// NewCleaner builds a cleaner with the default packaging-glyph class.
func NewCleaner() *Cleaner {
	return NewCleanerWithGlyphs(DefaultGlyphClass)
}

// NewCleanerWithGlyphs builds a cleaner whose first rule strips the given
// character class. The rest of the cascade is fixed and order-sensitive:
// multiplier annotations must go before the numeric-fragment rules, and the
// leading-punctuation trim must run last.
func NewCleanerWithGlyphs(glyphClass string) *Cleaner {
	return &Cleaner{rules: []*regexp.Regexp{
		// 1. packaging glyphs and stray control characters
		regexp.MustCompile(glyphClass),
		// 2. multiplier annotations: "*" and everything after it, stopping at
		//    weight-unit letters so "*5Kg" keeps its "Kg"
		regexp.MustCompile(`\*[^Kg]*`),
		// 3. leading item-numbering prefix like "12."
		regexp.MustCompile(`^\d+\.`),
		// 4. standalone 3-digit SKU fragments
		regexp.MustCompile(`\b\d{3}\b`),
		// 5. 2-digit fragments wrapped in periods, ".24."
		regexp.MustCompile(`\.\d{2}\.`),
		// 6. leading run of non-alphanumeric characters, last so earlier
		//    deletions cannot leave new leading punctuation behind
		regexp.MustCompile(`^[^\p{L}\p{N}]+`),
	}}
}

// Clean runs the cascade until the text stops changing.
func (c *Cleaner) Clean(s string) string {
	for {
		next := c.applyOnce(s)
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
}

func (c *Cleaner) applyOnce(s string) string {
	for _, rule := range c.rules {
		s = rule.ReplaceAllString(s, "")
	}
	return s
}

// CleanDescriptions fills CleanedDescription for every row and normalizes
// barcodes by dropping embedded dashes. Only those two columns are touched;
// the raw description stays intact for anything still reading it.
func CleanDescriptions(t *Table, c *Cleaner) {
	for i := range t.Rows {
		row := &t.Rows[i]
		row.CleanedDescription = c.Clean(row.Description)
		row.Barcode = strings.ReplaceAll(row.Barcode, "-", "")
	}
}
