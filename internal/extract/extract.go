// Package extract finds the numeric quantities in a cell's text that are
// candidates for unit conversion.
//
// Numbers are matched on a copy of the text with date, year, and
// financial-year spans blanked out, so offsets stay valid in the original.
// When pattern matching finds nothing but the text still holds digits in
// another script, an optional Classifier is asked instead.
package extract

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/internal/classify"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// Classifier returns the monetary numbers in free text. Implementations
// may call a remote model; errors are never surfaced past the Extractor.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]float64, error)
}

// NopClassifier finds nothing. It stands in when no fallback is configured.
type NopClassifier struct{}

// Classify returns no numbers.
func (NopClassifier) Classify(context.Context, string) ([]float64, error) {
	return nil, nil
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) ([]float64, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}

// Extractor finds numbers in text.
type Extractor struct {
	// Fallback is consulted when pattern matching finds no number but the
	// text contains digits. Nil disables the fallback.
	Fallback Classifier

	// DateHeuristic reports whether a set of values is really a date split
	// into parts. When it returns true no numbers are reported. Nil
	// disables the check.
	DateHeuristic func(values []float64) bool

	logger *zap.Logger
}

// New returns an Extractor with DefaultDateHeuristic installed. fallback
// and logger may be nil.
func New(fallback Classifier, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		Fallback:      fallback,
		DateHeuristic: DefaultDateHeuristic,
		logger:        logger,
	}
}

// DefaultDateHeuristic treats exactly three values shaped like day, month,
// and year (first two in 1..31, third after 1900) as a date.
func DefaultDateHeuristic(values []float64) bool {
	if len(values) != 3 {
		return false
	}
	return values[0] > 0 && values[0] < 32 &&
		values[1] > 0 && values[1] < 32 &&
		values[2] > 1900
}

// FindNumbers returns the numbers in text in left-to-right order, each with
// its byte span in text. Values from the fallback classifier are matched
// back to the text where possible and are otherwise unpositioned.
func (e *Extractor) FindNumbers(ctx context.Context, text string) []types.Number {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	masked := classify.Mask(text)
	nums := classify.Scan(masked)
	if len(nums) == 0 && e.Fallback != nil && strings.IndexFunc(masked, isForeignDigit) >= 0 {
		nums = e.fallback(ctx, text)
	}

	if e.DateHeuristic != nil && len(nums) > 0 && e.DateHeuristic(values(nums)) {
		return nil
	}
	return nums
}

func (e *Extractor) fallback(ctx context.Context, text string) []types.Number {
	vals, err := e.Fallback.Classify(ctx, text)
	if err != nil {
		e.log().Warn("fallback classifier failed",
			zap.String("op", "extract.FindNumbers"),
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		return nil
	}
	return locate(text, vals)
}

// isForeignDigit reports a decimal digit outside ASCII, such as Devanagari.
func isForeignDigit(r rune) bool {
	return r > unicode.MaxASCII && unicode.IsDigit(r)
}

func (e *Extractor) log() *zap.Logger {
	if e.logger == nil {
		return zap.NewNop()
	}
	return e.logger
}

func values(nums []types.Number) []float64 {
	out := make([]float64, len(nums))
	for i, n := range nums {
		out[i] = n.Value
	}
	return out
}

func formatLiteral(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
