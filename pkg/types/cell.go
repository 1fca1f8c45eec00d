// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Cell is one value read from a spreadsheet or an extracted PDF table.
type Cell struct {
	// Value is the stored value: string, float64, int64, bool, or nil.
	Value any `json:"value" yaml:"value"`

	// Formula is the formula text without the leading "=". Non-empty marks a
	// formula cell.
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`

	// Computed is the last computed value of a formula cell, if known.
	Computed any `json:"computed,omitempty" yaml:"computed,omitempty"`

	// Sheet, Row, and Col locate the cell (1-based). Zero when unknown.
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Row   int    `json:"row,omitempty" yaml:"row,omitempty"`
	Col   int    `json:"col,omitempty" yaml:"col,omitempty"`
}

// IsFormula reports whether the cell holds a formula, either explicitly or
// as a string value beginning with "=".
func (c Cell) IsFormula() bool {
	if c.Formula != "" {
		return true
	}
	s, ok := c.Value.(string)
	return ok && strings.HasPrefix(s, "=")
}

// Outcome classifies what happened to a cell during rewriting.
type Outcome string

const (
	// OutcomePreserved means the value was non-monetary, empty, or unparseable.
	OutcomePreserved Outcome = "preserved"

	// OutcomeNumericPassthrough means numbers were present but none exceeded
	// the threshold.
	OutcomeNumericPassthrough Outcome = "passthrough"

	// OutcomeConverted means at least one number was rescaled.
	OutcomeConverted Outcome = "converted"
)

// CellResult is the rewritten value of a cell and how it was derived.
type CellResult struct {
	Value   any     `json:"value" yaml:"value"`
	Outcome Outcome `json:"outcome" yaml:"outcome"`
}

// Changed reports whether the value differs from the input.
func (r CellResult) Changed() bool {
	return r.Outcome == OutcomeConverted
}

// Number is a numeric quantity found in text. Start and End are byte
// offsets of Literal in the source; both are -1 when the position is not
// known.
type Number struct {
	Value   float64 `json:"value" yaml:"value"`
	Literal string  `json:"literal" yaml:"literal"`
	Start   int     `json:"start" yaml:"start"`
	End     int     `json:"end" yaml:"end"`
}

// Positioned reports whether n carries a usable source span.
func (n Number) Positioned() bool {
	return n.Start >= 0 && n.End > n.Start
}

// Table is a named grid of cells. Row 0 is the first row.
type Table struct {
	Name string   `json:"name" yaml:"name"`
	Rows [][]Cell `json:"rows" yaml:"rows"`
}

// Width returns the length of the longest row.
func (t Table) Width() int {
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// ExtractedTable is a table recovered from a PDF page.
type ExtractedTable struct {
	Table
	// Page is the 1-based page number.
	Page int `json:"page" yaml:"page"`
	// Index is the 1-based table position within the page.
	Index int `json:"index" yaml:"index"`
}

// StringRows builds a Table from raw string rows.
func StringRows(name string, rows [][]string) Table {
	t := Table{Name: name, Rows: make([][]Cell, len(rows))}
	for i, r := range rows {
		cells := make([]Cell, len(r))
		for j, v := range r {
			cells[j] = Cell{Value: v, Sheet: name, Row: i + 1, Col: j + 1}
		}
		t.Rows[i] = cells
	}
	return t
}
