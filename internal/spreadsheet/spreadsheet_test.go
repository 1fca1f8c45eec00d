// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spreadsheet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// balanceSheet builds a small statement:
//
//	A1 Particulars  B1 FY 2024-25
//	A2 Cash         B2 100000
//	A3 Debtors      B3 200000
//	A4 Total        B4 =SUM(B2:B3)
//	A5 As at        B5 31-03-2025 (date formatted serial)
//	A6 Audited      B6 TRUE
func balanceSheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const s = "Sheet1"
	require.NoError(t, f.SetSheetName(s, "Balance Sheet"))
	const sheet = "Balance Sheet"
	set := func(cell string, v any) {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	set("A1", "Particulars")
	set("B1", "FY 2024-25")
	set("A2", "Cash")
	set("B2", 100000)
	set("A3", "Debtors")
	set("B3", 200000)
	set("A4", "Total")
	require.NoError(t, f.SetCellFormula(sheet, "B4", "SUM(B2:B3)"))
	set("A5", "As at")
	set("B5", 45747)
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B5", "B5", style))
	set("A6", "Audited")
	set("B6", true)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func openBook(t *testing.T, data []byte) *Book {
	t.Helper()
	b, err := Open(data, "test.xlsx")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestReadSheet(t *testing.T) {
	b := openBook(t, balanceSheet(t))
	assert.Equal(t, []string{"Balance Sheet"}, b.SheetNames())

	rows, cols, err := b.Dimensions("Balance Sheet")
	require.NoError(t, err)
	assert.Equal(t, 6, rows)
	assert.Equal(t, 2, cols)

	tbl, err := b.ReadSheet("Balance Sheet")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 6)

	assert.Equal(t, "Particulars", tbl.Rows[0][0].Value)
	assert.Equal(t, "FY 2024-25", tbl.Rows[0][1].Value)
	assert.Equal(t, 100000.0, tbl.Rows[1][1].Value)
	assert.Equal(t, 2, tbl.Rows[1][1].Row)
	assert.Equal(t, 2, tbl.Rows[1][1].Col)
	assert.Equal(t, "Balance Sheet", tbl.Rows[1][1].Sheet)

	total := tbl.Rows[3][1]
	assert.True(t, total.IsFormula())
	assert.Equal(t, "SUM(B2:B3)", total.Formula)
	assert.Equal(t, "=SUM(B2:B3)", total.Value)
	assert.Equal(t, 300000.0, total.Computed)

	date, ok := tbl.Rows[4][1].Value.(time.Time)
	require.True(t, ok, "date formatted serial should read as time, got %T", tbl.Rows[4][1].Value)
	assert.Equal(t, time.March, date.Month())
	assert.Equal(t, 2025, date.Year())

	assert.Equal(t, true, tbl.Rows[5][1].Value)
}

func TestReadWorkbook(t *testing.T) {
	data, err := WriteWorkbook([]types.Table{
		types.StringRows("One", [][]string{{"Cash", "150000"}}),
		types.StringRows("Two", [][]string{{"x"}}),
	})
	require.NoError(t, err)

	tables, err := ReadWorkbook(data, "book.xlsx")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "One", tables[0].Name)
	assert.Equal(t, "150000", tables[0].Rows[0][1].Value)
	assert.Equal(t, "Two", tables[1].Name)
}

func TestSetCellKeepsFormula(t *testing.T) {
	b := openBook(t, balanceSheet(t))
	// Give B4 a cached result, as a workbook saved by a spreadsheet app has.
	require.NoError(t, b.f.SetCellValue("Balance Sheet", "B4", 300000))
	require.NoError(t, b.f.SetCellFormula("Balance Sheet", "B4", "SUM(B2:B3)"))

	require.NoError(t, b.SetCell("Balance Sheet", types.Cell{Row: 2, Col: 2, Value: int64(1)}))
	require.NoError(t, b.SetCell("Balance Sheet", types.Cell{Row: 3, Col: 2, Value: int64(2)}))
	require.NoError(t, b.SetCell("Balance Sheet", types.Cell{
		Row: 4, Col: 2, Value: "=SUM(B2:B3)", Formula: "SUM(B2:B3)", Computed: int64(3),
	}))

	data, err := b.Bytes()
	require.NoError(t, err)
	reopened := openBook(t, data)

	formula, err := reopened.f.GetCellFormula("Balance Sheet", "B4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B2:B3)", formula)

	cell, err := reopened.Cell("Balance Sheet", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cell.Value)

	// The stale 300000 is gone and the result is not stored as text.
	typ, err := reopened.f.GetCellType("Balance Sheet", "B4")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeFormula, typ)
	raw, err := reopened.f.GetCellValue("Balance Sheet", "B4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Empty(t, raw)

	total, err := reopened.Cell("Balance Sheet", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, total.Computed)

	props, err := reopened.f.GetCalcProps()
	require.NoError(t, err)
	require.NotNil(t, props.FullCalcOnLoad)
	assert.True(t, *props.FullCalcOnLoad)
}

func TestSetCellTextFormulaResult(t *testing.T) {
	b := openBook(t, balanceSheet(t))
	require.NoError(t, b.SetCell("Balance Sheet", types.Cell{
		Row: 4, Col: 2, Value: "=SUM(B2:B3)", Formula: "SUM(B2:B3)", Computed: "3 lakhs",
	}))

	formula, err := b.f.GetCellFormula("Balance Sheet", "B4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B2:B3)", formula)
}

func TestPrependRow(t *testing.T) {
	b := openBook(t, balanceSheet(t))
	require.NoError(t, b.PrependRow("Balance Sheet", []string{"", "(in Lakhs)"}))

	label, err := b.f.GetCellValue("Balance Sheet", "B1")
	require.NoError(t, err)
	assert.Equal(t, "(in Lakhs)", label)

	blank, err := b.f.GetCellValue("Balance Sheet", "A1")
	require.NoError(t, err)
	assert.Empty(t, blank)

	header, err := b.f.GetCellValue("Balance Sheet", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Particulars", header)

	formula, err := b.f.GetCellFormula("Balance Sheet", "B5")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(formula, "SUM("), "formula moved with its row, got %q", formula)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("not a workbook"), "junk.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSourceFormat)
}

func TestIsLegacy(t *testing.T) {
	assert.True(t, IsLegacy(append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, 0, 0)))
	assert.False(t, IsLegacy([]byte("PK\x03\x04")))
	assert.False(t, IsLegacy(nil))
}

func TestWriteWorkbook(t *testing.T) {
	tables := []types.Table{
		types.StringRows("Page_1_Table_1", [][]string{{"", "(in Lakhs)"}, {"Cash", "1"}}),
		types.StringRows("Notes: 2024/25", [][]string{{"x"}}),
		types.StringRows("Page_1_Table_1", [][]string{{"dup"}}),
	}
	data, err := WriteWorkbook(tables)
	require.NoError(t, err)

	b := openBook(t, data)
	assert.Equal(t, []string{"Page_1_Table_1", "Notes 202425", "Page_1_Table_1_2"}, b.SheetNames())

	v, err := b.f.GetCellValue("Page_1_Table_1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "(in Lakhs)", v)
}

func TestWriteWorkbookNamedSheet1(t *testing.T) {
	data, err := WriteWorkbook([]types.Table{types.StringRows("Sheet1", [][]string{{"a"}})})
	require.NoError(t, err)

	b := openBook(t, data)
	assert.Equal(t, []string{"Sheet1"}, b.SheetNames())
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Balance Sheet", "Balance Sheet"},
		{`P&L [FY24]: Q1/Q2\*?`, "P&L FY24 Q1Q2"},
		{"", "Sheet"},
		{"[]", "Sheet"},
		{strings.Repeat("a", 40), strings.Repeat("a", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SheetName(tt.in, nil))
		})
	}
}

func TestSheetNameUnique(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("b", 35)
	assert.Equal(t, strings.Repeat("b", 31), SheetName(long, used))
	assert.Equal(t, strings.Repeat("b", 29)+"_2", SheetName(long, used))
	assert.Equal(t, "Cash", SheetName("Cash", used))
	assert.Equal(t, "CASH_2", SheetName("CASH", used))
}

func TestDateFormat(t *testing.T) {
	custom := func(s string) *string { return &s }
	assert.True(t, dateFormat(14, nil))
	assert.True(t, dateFormat(22, nil))
	assert.False(t, dateFormat(0, nil))
	assert.False(t, dateFormat(4, nil))
	assert.True(t, dateFormat(0, custom("dd-mmm-yyyy")))
	assert.False(t, dateFormat(0, custom(`#,##0.00 "days"`)))
	assert.False(t, dateFormat(0, custom("[Red]#,##0")))
	assert.True(t, dateFormat(0, custom("[$-409]mmmm d, yyyy")))
}
