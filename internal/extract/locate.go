package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/unit-converter/internal/classify"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// locate matches values reported by the fallback classifier to number
// tokens in text, reading digits of any script. Values that cannot be
// matched are returned unpositioned.
func locate(text string, vals []float64) []types.Number {
	norm, offsets := normalizeDigits(text)
	tokens := classify.Scan(norm)
	used := make([]bool, len(tokens))

	nums := make([]types.Number, 0, len(vals))
	for _, v := range vals {
		n := types.Number{Value: v, Literal: formatLiteral(v), Start: -1, End: -1}
		for i, tok := range tokens {
			if used[i] || tok.Value != v {
				continue
			}
			used[i] = true
			n.Start, n.End = offsets[tok.Start], offsets[tok.End]
			n.Literal = text[n.Start:n.End]
			break
		}
		nums = append(nums, n)
	}
	return nums
}

// normalizeDigits rewrites every decimal digit to ASCII. offsets maps each
// byte of the result (and its end) back to a byte offset in text.
func normalizeDigits(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for off, r := range text {
		if r >= utf8.RuneSelf && unicode.IsDigit(r) {
			b.WriteByte(byte('0' + digitValue(r)))
			offsets = append(offsets, off)
			continue
		}
		b.WriteRune(r)
		for k := 0; k < utf8.RuneLen(r); k++ {
			offsets = append(offsets, off+k)
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// digitValue returns the value of a decimal digit. Unicode lays out each
// script's digits as a contiguous run starting at zero.
func digitValue(r rune) int {
	zero := r
	for r-zero < 9 && unicode.IsDigit(zero-1) {
		zero--
	}
	return int(r - zero)
}
