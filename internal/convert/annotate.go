// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// labelCeiling bounds the magnitude of a value that looks converted.
const labelCeiling = 1000

var plainDecimalRe = regexp.MustCompile(`^-?\d+(?:\.\d{1,2})?$`)

// UnitLabels returns one label per column: unit.Label() when the first
// sampleRows rows of that column hold a value that looks converted, and ""
// otherwise. sampleRows <= 0 samples every row.
//
// A value looks converted when it is numeric, below 1000 in magnitude, and
// exact at two decimal places. When outcomes is non-nil the cell must also
// have been converted, so columns of small untouched numbers stay blank.
func UnitLabels(rows [][]types.Cell, outcomes [][]types.Outcome, unit types.Unit, sampleRows int) []string {
	width := types.Table{Rows: rows}.Width()
	labels := make([]string, width)

	n := len(rows)
	if sampleRows > 0 && sampleRows < n {
		n = sampleRows
	}

	for col := 0; col < width; col++ {
		for row := 0; row < n; row++ {
			if col >= len(rows[row]) {
				continue
			}
			if outcomes != nil && !wasConverted(outcomes, row, col) {
				continue
			}
			if looksConverted(displayValue(rows[row][col])) {
				labels[col] = unit.Label()
				break
			}
		}
	}
	return labels
}

// Annotate returns a copy of t with a label row prepended.
func Annotate(t types.Table, outcomes [][]types.Outcome, unit types.Unit, sampleRows int) types.Table {
	labels := UnitLabels(t.Rows, outcomes, unit, sampleRows)
	header := make([]types.Cell, len(labels))
	for i, l := range labels {
		header[i] = types.Cell{Value: l, Sheet: t.Name, Row: 1, Col: i + 1}
	}

	rows := make([][]types.Cell, 0, len(t.Rows)+1)
	rows = append(rows, header)
	rows = append(rows, t.Rows...)
	return types.Table{Name: t.Name, Rows: rows}
}

// HasLabels reports whether any column received a label.
func HasLabels(labels []string) bool {
	for _, l := range labels {
		if l != "" {
			return true
		}
	}
	return false
}

func wasConverted(outcomes [][]types.Outcome, row, col int) bool {
	return row < len(outcomes) && col < len(outcomes[row]) && outcomes[row][col] == types.OutcomeConverted
}

// displayValue is what a reader sees in the cell.
func displayValue(c types.Cell) any {
	if c.IsFormula() && c.Computed != nil {
		return c.Computed
	}
	return c.Value
}

func looksConverted(v any) bool {
	if f, ok := toFloat(v); ok {
		return math.Abs(f) < labelCeiling && f == math.Round(f*100)/100
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if !plainDecimalRe.MatchString(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && math.Abs(f) < labelCeiling
}
