// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert rescales monetary figures into a presentation unit and
// rewrites cells and tables with the converted values.
package convert

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

// Convert rescales magnitude into unit. Values whose absolute value is at
// or below threshold are returned unchanged; others are divided by the
// unit factor and rounded half away from zero to two decimal places.
func Convert(magnitude float64, unit types.Unit, threshold float64) float64 {
	if !scalable(magnitude, threshold) {
		return magnitude
	}
	f, _ := quotient(magnitude, unit).Round(2).Float64()
	return f
}

// ConvertValue is Convert for cell values. The result is an int64 only
// when the exact quotient is whole; 21 in Lakhs rounds to the float 0, not
// the integer 0.
func ConvertValue(magnitude float64, unit types.Unit, threshold float64) any {
	if !scalable(magnitude, threshold) {
		return Native(magnitude)
	}
	q := quotient(magnitude, unit)
	if q.IsInteger() && q.Abs().LessThan(decimal.NewFromInt(maxExactInt)) {
		return q.IntPart()
	}
	f, _ := q.Round(2).Float64()
	return f
}

func scalable(magnitude, threshold float64) bool {
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return false
	}
	return math.Abs(magnitude) > threshold
}

func quotient(magnitude float64, unit types.Unit) decimal.Decimal {
	return decimal.NewFromFloat(magnitude).Div(decimal.NewFromFloat(unit.Factor()))
}

// Native returns v as an int64 when it is integral and exactly
// representable, so spreadsheets store 7 rather than 7.0.
func Native(v float64) any {
	if v == math.Trunc(v) && math.Abs(v) < maxExactInt {
		return int64(v)
	}
	return v
}

// FormatNumber renders v as the shortest plain decimal literal, such as
// "1.5", "7", or "-0.25".
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// toFloat reports the numeric value of a native number.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
