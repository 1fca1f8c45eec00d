// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spreadsheet reads and writes workbooks for conversion. Workbooks
// are edited in place so formulas, styles and layout survive; legacy .xls
// files are imported into a fresh workbook first.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// ole2Magic starts every legacy binary .xls file.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Book is an open workbook.
type Book struct {
	f *excelize.File

	// dateStyles caches whether a style id carries a date number format.
	dateStyles map[int]bool

	// stale is set once a formula input may have changed; cached formula
	// results are then dropped when the workbook is written.
	stale bool
}

// NewBook returns an empty workbook holding only the default sheet.
func NewBook() *Book {
	return &Book{f: excelize.NewFile(), dateStyles: map[int]bool{}}
}

// IsLegacy reports whether data is a binary .xls workbook.
func IsLegacy(data []byte) bool {
	return bytes.HasPrefix(data, ole2Magic)
}

// Open reads a workbook from data. name is used in errors only.
func Open(data []byte, name string) (*Book, error) {
	if IsLegacy(data) {
		return openLegacy(data, name)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &types.SourceFormatError{Source: name, Format: "xlsx", Err: err}
	}
	return &Book{f: f, dateStyles: map[int]bool{}}, nil
}

// OpenFile reads the workbook at path.
func OpenFile(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Open(data, path)
}

// ReadWorkbook returns every sheet of data as a table, in workbook order.
func ReadWorkbook(data []byte, name string) ([]types.Table, error) {
	b, err := Open(data, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	var out []types.Table
	for _, sheet := range b.SheetNames() {
		t, err := b.ReadSheet(sheet)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Close releases the workbook.
func (b *Book) Close() error {
	return b.f.Close()
}

// SheetNames returns the sheet names in workbook order.
func (b *Book) SheetNames() []string {
	return b.f.GetSheetList()
}

// Dimensions returns the number of rows and columns in use on sheet.
func (b *Book) Dimensions(sheet string) (rows, cols int, err error) {
	if dim, err := b.f.GetSheetDimension(sheet); err == nil && dim != "" {
		parts := strings.Split(dim, ":")
		if c, r, err := excelize.CellNameToCoordinates(parts[len(parts)-1]); err == nil {
			rows, cols = r, c
		}
	}

	// The stored dimension can be missing or stale.
	grid, err := b.f.GetRows(sheet)
	if err != nil {
		return 0, 0, fmt.Errorf("reading rows of %s: %w", sheet, err)
	}
	rows = max(rows, len(grid))
	for _, r := range grid {
		cols = max(cols, len(r))
	}
	return rows, cols, nil
}

// Cell returns the cell at 1-based row and col. Formula cells carry their
// formula text and last computed value; when the workbook holds no cached
// result the value is calculated.
func (b *Book) Cell(sheet string, row, col int) (types.Cell, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return types.Cell{}, err
	}
	cell := types.Cell{Sheet: sheet, Row: row, Col: col}

	value, err := b.value(sheet, name)
	if err != nil {
		return cell, err
	}

	formula, err := b.f.GetCellFormula(sheet, name)
	if err != nil {
		return cell, fmt.Errorf("reading formula %s!%s: %w", sheet, name, err)
	}
	if formula == "" {
		cell.Value = value
		return cell, nil
	}

	cell.Formula = formula
	cell.Value = "=" + formula
	cell.Computed = value
	if value == nil {
		if calc, err := b.f.CalcCellValue(sheet, name); err == nil {
			cell.Computed = parseScalar(calc)
		}
	}
	return cell, nil
}

// ReadSheet returns the whole used range of sheet as a table.
func (b *Book) ReadSheet(sheet string) (types.Table, error) {
	rows, cols, err := b.Dimensions(sheet)
	if err != nil {
		return types.Table{}, err
	}
	t := types.Table{Name: sheet, Rows: make([][]types.Cell, rows)}
	for r := 1; r <= rows; r++ {
		t.Rows[r-1] = make([]types.Cell, cols)
		for c := 1; c <= cols; c++ {
			cell, err := b.Cell(sheet, r, c)
			if err != nil {
				return types.Table{}, err
			}
			t.Rows[r-1][c-1] = cell
		}
	}
	return t, nil
}

// SetCell writes cell at its own position. A formula cell keeps its
// formula text; its cached result is cleared on write so spreadsheet
// applications recalculate it from the converted inputs.
func (b *Book) SetCell(sheet string, cell types.Cell) error {
	name, err := excelize.CoordinatesToCellName(cell.Col, cell.Row)
	if err != nil {
		return err
	}
	b.stale = true
	if cell.Formula == "" {
		return b.f.SetCellValue(sheet, name, cell.Value)
	}
	if got, _ := b.f.GetCellFormula(sheet, name); got != cell.Formula {
		return b.f.SetCellFormula(sheet, name, cell.Formula)
	}
	return nil
}

// dropFormulaCache clears every cached formula result and asks readers to
// recalculate on load. excelize can only store a formula beside a text
// (t="str") result, so a numeric cache cannot be kept.
func (b *Book) dropFormulaCache() error {
	if err := b.f.UpdateLinkedValue(); err != nil {
		return fmt.Errorf("clearing formula results: %w", err)
	}
	fullCalc := true
	return b.f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc})
}

// PrependRow inserts a row above the first row of sheet holding labels.
// Existing formulas are shifted to follow their references.
func (b *Book) PrependRow(sheet string, labels []string) error {
	if err := b.f.InsertRows(sheet, 1, 1); err != nil {
		return fmt.Errorf("inserting label row in %s: %w", sheet, err)
	}
	for i, label := range labels {
		if label == "" {
			continue
		}
		name, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := b.f.SetCellStr(sheet, name, label); err != nil {
			return err
		}
	}
	return nil
}

// Bytes serialises the workbook.
func (b *Book) Bytes() ([]byte, error) {
	if b.stale {
		if err := b.dropFormulaCache(); err != nil {
			return nil, err
		}
	}
	buf, err := b.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveAs writes the workbook to path.
func (b *Book) SaveAs(path string) error {
	if b.stale {
		if err := b.dropFormulaCache(); err != nil {
			return err
		}
	}
	return b.f.SaveAs(path)
}

// value decodes the stored value of a cell.
func (b *Book) value(sheet, name string) (any, error) {
	raw, err := b.f.GetCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading %s!%s: %w", sheet, name, err)
	}
	if raw == "" {
		return nil, nil
	}
	typ, err := b.f.GetCellType(sheet, name)
	if err != nil {
		return nil, fmt.Errorf("reading type of %s!%s: %w", sheet, name, err)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError, excelize.CellTypeDate:
		return raw, nil
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}
	if b.isDate(sheet, name) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return t, nil
		}
	}
	return n, nil
}

// isDate reports whether the cell's number format displays a date or time.
// Serial dates are numbers on disk and must not be scaled.
func (b *Book) isDate(sheet, name string) bool {
	idx, err := b.f.GetCellStyle(sheet, name)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := b.dateStyles[idx]; ok {
		return v
	}
	style, err := b.f.GetStyle(idx)
	isDate := err == nil && style != nil && dateFormat(style.NumFmt, style.CustomNumFmt)
	b.dateStyles[idx] = isDate
	return isDate
}

// dateFormat reports whether a number format is a date or time format.
func dateFormat(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return customDateFormat(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		// Locale specific date formats.
		return true
	}
	return false
}

// customDateFormat looks for date or time tokens outside quoted literals
// and bracketed sections.
func customDateFormat(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '\\':
			i++
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		case strings.IndexByte("dmyhsDMYHS", ch) >= 0:
			return true
		}
	}
	return false
}

// parseScalar turns a calculated or imported string into a number when it
// is one.
func parseScalar(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// openLegacy imports a binary .xls workbook into a new xlsx workbook.
// Formulas are not carried over; cells hold their displayed values.
func openLegacy(data []byte, name string) (*Book, error) {
	tmp, err := os.CreateTemp("", "unit-converter-*.xls")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	tmp.Close()

	wb, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, &types.SourceFormatError{Source: name, Format: "xls", Err: err}
	}

	book := NewBook()
	used := map[string]bool{}
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		var grid [][]any
		for _, row := range sheet.GetRows() {
			var vals []any
			for _, col := range row.GetCols() {
				vals = append(vals, parseScalar(col.GetString()))
			}
			grid = append(grid, vals)
		}
		if err := book.addGrid(SheetName(sheet.GetName(), used), grid); err != nil {
			book.Close()
			return nil, &types.SourceFormatError{Source: name, Format: "xls", Err: err}
		}
	}
	if len(used) == 0 {
		book.Close()
		return nil, &types.SourceFormatError{Source: name, Format: "xls", Err: errors.New("no sheets")}
	}
	if err := book.dropDefaultSheet(used); err != nil {
		book.Close()
		return nil, err
	}
	return book, nil
}

// WriteWorkbook builds a new workbook with one sheet per table. Sheet
// names are sanitised and made unique.
func WriteWorkbook(tables []types.Table) ([]byte, error) {
	book := NewBook()
	defer book.Close()

	used := map[string]bool{}
	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		grid := make([][]any, len(t.Rows))
		for r, row := range t.Rows {
			grid[r] = make([]any, len(row))
			for c, cell := range row {
				grid[r][c] = cell.Value
			}
		}
		if err := book.addGrid(SheetName(name, used), grid); err != nil {
			return nil, err
		}
	}
	if len(tables) == 0 {
		return book.Bytes()
	}
	if err := book.dropDefaultSheet(used); err != nil {
		return nil, err
	}
	return book.Bytes()
}

// addGrid creates sheet and fills it with values.
func (b *Book) addGrid(sheet string, grid [][]any) error {
	if _, err := b.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %q: %w", sheet, err)
	}
	for r, row := range grid {
		for c, v := range row {
			if v == nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := b.f.SetCellValue(sheet, name, v); err != nil {
				return fmt.Errorf("writing %s!%s: %w", sheet, name, err)
			}
		}
	}
	return nil
}

// dropDefaultSheet removes the sheet excelize creates with a new file
// unless one of ours took its name.
func (b *Book) dropDefaultSheet(used map[string]bool) error {
	const def = "Sheet1"
	if used[strings.ToLower(def)] {
		return nil
	}
	if err := b.f.DeleteSheet(def); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	b.f.SetActiveSheet(0)
	return nil
}

// SheetName makes name valid as a sheet name: it strips \ / * ? [ ] :,
// truncates to 31 characters and, when used is non-nil, appends a suffix
// until the name is unique. The chosen name is recorded in used.
func SheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/*?[]:`, r) {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		name = "Sheet"
	}
	name = truncate(name, maxSheetName)
	if used == nil {
		return name
	}

	candidate := name
	for i := 2; used[strings.ToLower(candidate)] || used[candidate]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	used[candidate] = true
	used[strings.ToLower(candidate)] = true
	return candidate
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
