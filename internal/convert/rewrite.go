// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/internal/classify"
	"github.com/pdiddy/unit-converter/internal/extract"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// Rewriter produces the converted value of a single cell.
type Rewriter struct {
	Unit      types.Unit
	Threshold float64

	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewRewriter returns a Rewriter for unit and threshold. A nil extractor
// gets one without a fallback classifier.
func NewRewriter(unit types.Unit, threshold float64, ex *extract.Extractor, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ex == nil {
		ex = extract.New(nil, logger)
	}
	return &Rewriter{Unit: unit, Threshold: threshold, extractor: ex, logger: logger}
}

// Extractor returns the number extractor the Rewriter uses.
func (r *Rewriter) Extractor() *extract.Extractor {
	return r.extractor
}

// Rewrite returns the converted value of cell. Formula text is never
// altered: a formula cell is rewritten through its computed value, and is
// preserved when that value is unknown.
func (r *Rewriter) Rewrite(ctx context.Context, cell types.Cell) types.CellResult {
	if cell.IsFormula() {
		if cell.Computed == nil {
			return preserved(cell.Value)
		}
		return r.rewriteValue(ctx, cell.Computed)
	}
	return r.rewriteValue(ctx, cell.Value)
}

func (r *Rewriter) rewriteValue(ctx context.Context, v any) types.CellResult {
	if f, ok := toFloat(v); ok {
		return r.rewriteNumber(v, f)
	}
	if s, ok := v.(string); ok {
		return r.rewriteText(ctx, s)
	}
	return preserved(v)
}

func (r *Rewriter) rewriteNumber(orig any, f float64) types.CellResult {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return preserved(orig)
	}
	if math.Abs(f) <= r.Threshold {
		return types.CellResult{Value: orig, Outcome: types.OutcomeNumericPassthrough}
	}
	return types.CellResult{
		Value:   ConvertValue(f, r.Unit, r.Threshold),
		Outcome: types.OutcomeConverted,
	}
}

func (r *Rewriter) rewriteText(ctx context.Context, s string) types.CellResult {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || classify.IsNonMonetary(s) {
		return preserved(s)
	}

	nums := r.extractor.FindNumbers(ctx, s)
	if len(nums) == 0 {
		return preserved(s)
	}

	largest := 0.0
	for _, n := range nums {
		largest = math.Max(largest, math.Abs(n.Value))
	}
	if largest <= r.Threshold {
		return types.CellResult{Value: s, Outcome: types.OutcomeNumericPassthrough}
	}

	// A cell that is nothing but one number becomes a number.
	if len(nums) == 1 && nums[0].Positioned() && trimmed == nums[0].Literal {
		return types.CellResult{
			Value:   ConvertValue(nums[0].Value, r.Unit, r.Threshold),
			Outcome: types.OutcomeConverted,
		}
	}

	out, replaced := r.substitute(s, nums)
	if replaced == 0 {
		r.logger.Debug("no number could be placed in text",
			zap.String("op", "convert.Rewrite"),
			zap.Int("numbers", len(nums)),
		)
		return preserved(s)
	}
	return types.CellResult{Value: out, Outcome: types.OutcomeConverted}
}

// substitute replaces every number above threshold with its converted
// literal. Positioned numbers are replaced at their own spans, right to
// left; unpositioned ones replace the first occurrence of their literal.
func (r *Rewriter) substitute(s string, nums []types.Number) (string, int) {
	var positioned, loose []types.Number
	for _, n := range nums {
		if math.Abs(n.Value) <= r.Threshold {
			continue
		}
		if n.Positioned() && n.End <= len(s) {
			positioned = append(positioned, n)
		} else {
			loose = append(loose, n)
		}
	}

	sort.Slice(positioned, func(i, j int) bool { return positioned[i].Start > positioned[j].Start })

	replaced := 0
	out := s
	prevStart := len(s) + 1
	for _, n := range positioned {
		if n.End > prevStart {
			continue
		}
		lit := FormatNumber(Convert(n.Value, r.Unit, r.Threshold))
		out = out[:n.Start] + lit + out[n.End:]
		prevStart = n.Start
		replaced++
	}

	for _, n := range loose {
		if n.Literal == "" || !strings.Contains(out, n.Literal) {
			continue
		}
		lit := FormatNumber(Convert(n.Value, r.Unit, r.Threshold))
		out = strings.Replace(out, n.Literal, lit, 1)
		replaced++
	}
	return out, replaced
}

func preserved(v any) types.CellResult {
	return types.CellResult{Value: v, Outcome: types.OutcomePreserved}
}
