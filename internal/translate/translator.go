// Package translate wraps the external text-translation capability behind a
// small interface so the pipeline can be tested without a network and the
// backing service can be swapped.
package translate

import (
	"context"
	"errors"
)

// ErrEmptyResult reports that the service answered successfully but returned
// no usable text. Callers treat it like any other per-row failure.
var ErrEmptyResult = errors.New("translation service returned an empty result")

// Translator translates a single piece of text between two languages. A call
// may fail; callers degrade per row and must never abort a whole table over
// one failure.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Noop echoes the input unchanged. Used when translation is disabled.
type Noop struct{}

// Translate implements the Translator interface.
func (Noop) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return text, nil
}

var _ Translator = Noop{}
