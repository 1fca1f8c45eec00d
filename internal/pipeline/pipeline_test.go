// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unit-converter/internal/convert"
	"github.com/pdiddy/unit-converter/internal/spreadsheet"
	"github.com/pdiddy/unit-converter/internal/store"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// fakeSource implements TableSource with canned tables.
type fakeSource struct {
	tables []types.ExtractedTable
	err    error
}

func (f *fakeSource) Tables(_ context.Context, _ []byte, _ string) ([]types.ExtractedTable, error) {
	return f.tables, f.err
}

// fakeRecorder collects recorded runs.
type fakeRecorder struct {
	mu   sync.Mutex
	runs []store.RunRecord
}

func (f *fakeRecorder) RecordRun(_ context.Context, rec store.RunRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, rec)
	return int64(len(f.runs)), nil
}

func newPipeline(t *testing.T, outDir string, pdf TableSource) *Pipeline {
	t.Helper()
	cfg := types.DefaultConfig().Conversion
	cfg.OutDir = outDir
	cfg.Workers = 2
	rw := convert.NewRewriter(types.UnitLakhs, cfg.Threshold, nil, nil)
	return New(cfg, convert.NewTableConverter(rw, cfg, nil, nil), pdf, nil)
}

// writeStatement creates a workbook:
//
//	Particulars | FY 2024-25    | Note
//	Cash        | 150000        | 5
//	Debtors     | "1,50,000"    | 10
//	Total       | =SUM(B2:B3)   |
//	CIN U72300DL2015NPL285463
func writeStatement(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	set := func(cell string, v any) {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	set("A1", "Particulars")
	set("B1", "FY 2024-25")
	set("C1", "Note")
	set("A2", "Cash")
	set("B2", 150000)
	set("C2", 5)
	set("A3", "Debtors")
	set("B3", "1,50,000")
	set("C3", 10)
	set("A4", "Total")
	require.NoError(t, f.SetCellFormula(sheet, "B4", "SUM(B2:B3)"))
	set("A5", "CIN U72300DL2015NPL285463")

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"a.xlsx", FormatXLSX, false},
		{"A.XLSX", FormatXLSX, false},
		{"b.xlsm", FormatXLSM, false},
		{"c.xls", FormatXLS, false},
		{"d.pdf", FormatPDF, false},
		{"e.docx", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "converted_Balance.xlsx"), OutputPath("out", "in/Balance.xlsx"))
	assert.Equal(t, filepath.Join("out", "converted_Macro.xlsm"), OutputPath("out", "Macro.xlsm"))
	assert.Equal(t, filepath.Join("out", "converted_Old.xlsx"), OutputPath("out", "Old.xls"))
	assert.Equal(t, filepath.Join("out", "converted_Annual Report.xlsx"), OutputPath("out", "Annual Report.pdf"))
	assert.Equal(t, filepath.Join("out", "converted_a.yaml"), ReportPath(filepath.Join("out", "converted_a.xlsx")))
}

func TestConvertFileWorkbook(t *testing.T) {
	dir := t.TempDir()
	src := writeStatement(t, dir, "Balance.xlsx")
	outDir := filepath.Join(dir, "out")

	p := newPipeline(t, outDir, nil)
	p.WriteReport = true
	report, err := p.ConvertFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, report.Format)
	assert.Equal(t, filepath.Join(outDir, "converted_Balance.xlsx"), report.Output)
	require.Len(t, report.Sheets, 1)
	assert.Equal(t, 3, report.Converted())
	assert.Equal(t, []string{"", "(in Lakhs)", ""}, report.Sheets[0].Labels)

	book, err := spreadsheet.OpenFile(report.Output)
	require.NoError(t, err)
	defer book.Close()

	cell := func(row, col int) types.Cell {
		c, err := book.Cell("Sheet1", row, col)
		require.NoError(t, err)
		return c
	}

	// Label row.
	assert.Nil(t, cell(1, 1).Value)
	assert.Equal(t, "(in Lakhs)", cell(1, 2).Value)
	assert.Nil(t, cell(1, 3).Value)

	// Original rows follow, converted.
	assert.Equal(t, "Particulars", cell(2, 1).Value)
	assert.Equal(t, "FY 2024-25", cell(2, 2).Value)
	assert.Equal(t, 1.5, cell(3, 2).Value)
	assert.Equal(t, 5.0, cell(3, 3).Value)
	assert.Equal(t, 1.5, cell(4, 2).Value)
	assert.Equal(t, 10.0, cell(4, 3).Value)
	assert.Equal(t, "CIN U72300DL2015NPL285463", cell(6, 1).Value)

	total := cell(5, 2)
	assert.True(t, total.IsFormula())
	assert.True(t, strings.HasPrefix(total.Formula, "SUM("), "formula kept, got %q", total.Formula)

	data, err := os.ReadFile(ReportPath(report.Output))
	require.NoError(t, err)
	var saved types.ConversionReport
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, types.UnitLakhs, saved.Unit)
	assert.Equal(t, src, saved.Source)
}

func TestConvertFilePDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Statement.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 fake"), 0o644))

	source := &fakeSource{tables: []types.ExtractedTable{{
		Table: types.StringRows("Page_1_Table_1", [][]string{
			{"Particulars", "31.03.2025"},
			{"Share capital", "2,50,00,000"},
			{"Closing balance as at 31.03.2025 is 1,50,000", ""},
		}),
		Page: 1, Index: 1,
	}}}
	p := newPipeline(t, filepath.Join(dir, "out"), source)

	report, err := p.ConvertFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, report.Format)
	assert.Equal(t, 2, report.Converted())

	data, err := os.ReadFile(report.Output)
	require.NoError(t, err)
	tables, err := spreadsheet.ReadWorkbook(data, report.Output)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	tbl := tables[0]
	assert.Equal(t, "Page_1_Table_1", tbl.Name)
	assert.Equal(t, "(in Lakhs)", tbl.Rows[0][1].Value)
	assert.Equal(t, "31.03.2025", tbl.Rows[1][1].Value)
	assert.Equal(t, 250.0, tbl.Rows[2][1].Value)
	assert.Equal(t, "Closing balance as at 31.03.2025 is 1.5", tbl.Rows[3][0].Value)
}

func TestConvertFilePDFWithoutTables(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Empty.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))
	outDir := filepath.Join(dir, "out")

	p := newPipeline(t, outDir, &fakeSource{})
	_, err := p.ConvertFile(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSourceFormat)

	_, statErr := os.Stat(OutputPath(outDir, src))
	assert.True(t, os.IsNotExist(statErr), "no output for an unreadable document")
}

func TestConvertFileUnsupported(t *testing.T) {
	p := newPipeline(t, t.TempDir(), nil)
	_, err := p.ConvertFile(context.Background(), "notes.docx")
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestConvertFileCorruptWorkbook(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("not a zip"), 0o644))

	p := newPipeline(t, filepath.Join(dir, "out"), nil)
	_, err := p.ConvertFile(context.Background(), src)
	assert.ErrorIs(t, err, types.ErrSourceFormat)
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	good := writeStatement(t, dir, "Balance.xlsx")
	bad := filepath.Join(dir, "notes.docx")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	rec := &fakeRecorder{}
	p := newPipeline(t, filepath.Join(dir, "out"), nil)
	p.Recorder = rec

	var buf bytes.Buffer
	result := p.ConvertBatch(context.Background(), []string{good, bad}, &buf)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
	assert.Equal(t, 2, result.Total())

	out := buf.String()
	assert.Contains(t, out, "converted: Balance.xlsx")
	assert.Contains(t, out, "failed:  notes.docx")
	assert.Contains(t, out, "Batch summary: 1 converted, 0 skipped, 1 failed (total: 2)")

	require.Len(t, rec.runs, 2)
	assert.Equal(t, types.RunConverted, rec.runs[0].Status)
	assert.Equal(t, 3, rec.runs[0].Converted)
	assert.Equal(t, types.RunFailed, rec.runs[1].Status)
	assert.NotEmpty(t, rec.runs[1].Error)

	// A second run skips what already exists.
	buf.Reset()
	result = p.ConvertBatch(context.Background(), []string{good}, &buf)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, buf.String(), "skipped: Balance.xlsx")

	// Force converts again.
	p.Force = true
	buf.Reset()
	result = p.ConvertBatch(context.Background(), []string{good}, &buf)
	assert.Equal(t, 1, result.Converted)
}

func TestConvertBatchCancelled(t *testing.T) {
	dir := t.TempDir()
	good := writeStatement(t, dir, "Balance.xlsx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	result := newPipeline(t, filepath.Join(dir, "out"), nil).ConvertBatch(ctx, []string{good}, &buf)
	assert.Equal(t, 0, result.Total())
	assert.Contains(t, buf.String(), "Batch summary: 0 converted")
}
