// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether a cell's text carries a monetary
// magnitude or something that only looks numeric: dates, financial years,
// identifiers, phone numbers, and formulas.
//
// The rules run in a fixed order and the first match wins. Date-shaped text
// is only recognised when it makes up the whole cell; inside longer text,
// date and year spans are masked so an amount sitting next to a date is
// still found.
package classify

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// amountFloor is the smallest ungrouped integer that counts as an amount
// when deciding whether date-bearing text is still monetary.
const amountFloor = 100

// IsNonMonetary reports whether text must be preserved verbatim. Empty text
// returns false; callers treat it as nothing to convert.
func IsNonMonetary(text string) bool {
	return Reason(text) != ""
}

// Reason names the rule that makes text non-monetary, or returns "" when
// the text is empty or may carry an amount.
func Reason(text string) string {
	s := strings.TrimSpace(text)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "="):
		return "formula"
	case bareYearRe.MatchString(s):
		return "year"
	case fiscalYearRe.MatchString(s):
		return "financial year"
	case simpleNumberRe.MatchString(s):
		return ""
	case isDateShaped(s):
		return "date"
	case dateKeywordRe.MatchString(s) && hasDigit(s) && !HasAmount(s):
		return "date keyword"
	case isIdentifier(s):
		return "identifier"
	case calendarNameRe.MatchString(s):
		return "calendar name"
	case calendarWordRe.MatchString(s) && hasDigit(s) && !HasAmount(s):
		return "calendar word"
	}
	return ""
}

// IsSimpleNumber reports whether the whole of text is one formatted number.
func IsSimpleNumber(text string) bool {
	return simpleNumberRe.MatchString(strings.TrimSpace(text))
}

func isDateShaped(s string) bool {
	return wholeDateRe.MatchString(s) || datePhraseRe.MatchString(s) || closingYearRe.MatchString(s)
}

func isIdentifier(s string) bool {
	for _, re := range identifierRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// HasAmount reports whether text still holds an amount-looking number once
// its date, year, and financial-year spans are masked.
func HasAmount(text string) bool {
	for _, n := range Scan(Mask(text)) {
		if strings.ContainsAny(n.Literal, ",.") {
			return true
		}
		if n.Value >= amountFloor || n.Value <= -amountFloor {
			return true
		}
	}
	return false
}

// DateSpans returns the byte ranges of dates, financial years, and years
// led by a date word in text, sorted and merged.
func DateSpans(text string) [][2]int {
	var spans [][2]int
	for _, re := range dateSpanRes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if insideNumber(text, loc[0], loc[1]) {
				continue
			}
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
	}
	for _, loc := range contextYearRe.FindAllStringSubmatchIndex(text, -1) {
		if insideNumber(text, loc[2], loc[3]) {
			continue
		}
		spans = append(spans, [2]int{loc[2], loc[3]})
	}
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp[0] <= last[1] {
			if sp[1] > last[1] {
				last[1] = sp[1]
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// insideNumber rejects a span that is really part of a grouped or decimal
// number, such as the "2019" in "2019.50" or the "March 15" in "March 15,000".
func insideNumber(s string, start, end int) bool {
	if start >= 2 && (s[start-1] == ',' || s[start-1] == '.') && isASCIIDigit(s[start-2]) {
		return true
	}
	if end+1 < len(s) && (s[end] == ',' || s[end] == '.') && isASCIIDigit(s[end+1]) {
		return true
	}
	return false
}

// Mask blanks every date span in text with spaces. Byte offsets are kept,
// so positions found in the result are valid in the original.
func Mask(text string) string {
	spans := DateSpans(text)
	if len(spans) == 0 {
		return text
	}
	b := []byte(text)
	for _, sp := range spans {
		for i := sp[0]; i < sp[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// Scan finds number tokens in text, left to right. Digits joined to a
// word, as in "80C" or "26AS", are not numbers. A leading minus sign is
// included when it is not joined to a preceding word or number.
func Scan(text string) []types.Number {
	locs := numberTokenRe.FindAllStringIndex(text, -1)
	out := make([]types.Number, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if inWord(text, start, end) {
			continue
		}
		if start >= 1 && text[start-1] == '-' && (start == 1 || !isASCIIAlnum(text[start-2])) {
			start--
		}
		lit := text[start:end]
		v, err := strconv.ParseFloat(strings.ReplaceAll(lit, ",", ""), 64)
		if err != nil {
			continue
		}
		out = append(out, types.Number{Value: v, Literal: lit, Start: start, End: end})
	}
	return out
}

// inWord reports whether the token text[start:end] touches a letter. A
// currency prefix such as "Rs" or "INR" does not count.
func inWord(text string, start, end int) bool {
	if end < len(text) && isASCIILetter(text[end]) {
		return true
	}
	if start == 0 || !isASCIILetter(text[start-1]) {
		return false
	}
	word := start
	for word > 0 && isASCIILetter(text[word-1]) {
		word--
	}
	return !currencyWordRe.MatchString(text[word:start])
}

func isASCIIDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isASCIIAlnum(c byte) bool { return isASCIIDigit(c) || isASCIILetter(c) }
