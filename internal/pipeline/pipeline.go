// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline converts whole documents: it reads a workbook or PDF,
// rewrites every table through the cell converter, annotates each sheet
// with its unit row, and writes the converted workbook.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unit-converter/internal/convert"
	"github.com/pdiddy/unit-converter/internal/spreadsheet"
	"github.com/pdiddy/unit-converter/internal/store"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// Document formats.
const (
	FormatXLSX = "xlsx"
	FormatXLSM = "xlsm"
	FormatXLS  = "xls"
	FormatPDF  = "pdf"
)

// outputPrefix is prepended to the source name to form the output name.
const outputPrefix = "converted_"

var errNoTables = errors.New("no tables or text found")

// TableSource produces the tables of a PDF document.
type TableSource interface {
	Tables(ctx context.Context, data []byte, source string) ([]types.ExtractedTable, error)
}

// RunRecorder stores the outcome of each document. *store.Store implements it.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec store.RunRecord) (int64, error)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline converts documents with one unit and threshold.
type Pipeline struct {
	Config types.ConversionConfig
	Tables *convert.TableConverter
	PDF    TableSource

	// Recorder, if set, receives one record per document.
	Recorder RunRecorder

	// WriteReport also writes converted_<name>.yaml next to the output.
	WriteReport bool

	// Force converts documents whose output already exists.
	Force bool

	logger *zap.Logger
}

// New returns a Pipeline. pdf may be nil when only workbooks are converted.
func New(cfg types.ConversionConfig, tables *convert.TableConverter, pdf TableSource, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{Config: cfg, Tables: tables, PDF: pdf, logger: logger}
}

// DetectFormat returns the document format implied by path's extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xlsm":
		return FormatXLSM, nil
	case ".xls":
		return FormatXLS, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, filepath.Base(path))
}

// OutputPath is where the converted form of source is written. Macro
// workbooks keep their extension; everything else becomes .xlsx.
func OutputPath(outDir, source string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)
	outExt := ".xlsx"
	if strings.EqualFold(ext, ".xlsm") {
		outExt = ".xlsm"
	}
	return filepath.Join(outDir, outputPrefix+stem+outExt)
}

// ReportPath is where the YAML report for output is written.
func ReportPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".yaml"
}

func (p *Pipeline) outDir() string {
	if p.Config.OutDir == "" {
		return types.DefaultOutDir
	}
	return p.Config.OutDir
}

// ConvertFile converts the document at path and writes the result. No
// output is written when the document cannot be read.
func (p *Pipeline) ConvertFile(ctx context.Context, path string) (types.ConversionReport, error) {
	report := types.ConversionReport{
		Source:    path,
		Unit:      p.Tables.Rewriter.Unit,
		Threshold: p.Tables.Rewriter.Threshold,
		StartedAt: time.Now(),
	}

	format, err := DetectFormat(path)
	if err != nil {
		return report, err
	}
	report.Format = format

	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("reading %s: %w", path, err)
	}

	out, sheets, err := p.ConvertBytes(ctx, data, path, format)
	if err != nil {
		return report, err
	}
	report.Sheets = sheets

	dir := p.outDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return report, fmt.Errorf("creating output directory: %w", err)
	}
	report.Output = OutputPath(dir, path)
	if err := os.WriteFile(report.Output, out, 0o644); err != nil {
		return report, fmt.Errorf("writing %s: %w", report.Output, err)
	}
	report.Duration = time.Since(report.StartedAt)

	if p.WriteReport {
		if err := writeYAML(ReportPath(report.Output), report); err != nil {
			return report, err
		}
	}

	p.logger.Info("converted document",
		zap.String("op", "pipeline.ConvertFile"),
		zap.String("source", path),
		zap.String("output", report.Output),
		zap.Int("sheets", len(report.Sheets)),
		zap.Int("converted", report.Converted()),
		zap.Duration("elapsed", report.Duration),
	)
	return report, nil
}

// ConvertBytes converts an in-memory document of the given format and
// returns the converted workbook.
func (p *Pipeline) ConvertBytes(ctx context.Context, data []byte, source, format string) ([]byte, []types.SheetReport, error) {
	switch format {
	case FormatXLSX, FormatXLSM, FormatXLS:
		return p.convertWorkbook(ctx, data, source)
	case FormatPDF:
		return p.convertPDF(ctx, data, source)
	}
	return nil, nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, format)
}

// convertWorkbook edits the workbook in place: converted cells are written
// back and a label row is inserted at the top of every sheet. Formulas,
// styles and untouched cells are left as they are.
func (p *Pipeline) convertWorkbook(ctx context.Context, data []byte, source string) ([]byte, []types.SheetReport, error) {
	book, err := spreadsheet.Open(data, source)
	if err != nil {
		return nil, nil, err
	}
	defer book.Close()

	var reports []types.SheetReport
	for _, sheet := range book.SheetNames() {
		t, err := book.ReadSheet(sheet)
		if err != nil {
			return nil, nil, &types.SourceFormatError{Source: source, Format: "xlsx", Err: err}
		}
		res, err := p.Tables.Convert(ctx, t)
		if err != nil {
			return nil, nil, err
		}

		for r, row := range res.Table.Rows {
			for c, cell := range row {
				if res.Outcomes[r][c] != types.OutcomeConverted {
					continue
				}
				if err := book.SetCell(sheet, cell); err != nil {
					return nil, nil, fmt.Errorf("writing %s row %d col %d: %w", sheet, cell.Row, cell.Col, err)
				}
			}
		}

		labels := convert.UnitLabels(res.Table.Rows, res.Outcomes, p.Tables.Rewriter.Unit, p.Config.SampleRows)
		if err := book.PrependRow(sheet, labels); err != nil {
			return nil, nil, err
		}
		res.Report.Labels = labels
		reports = append(reports, res.Report)
	}

	out, err := book.Bytes()
	if err != nil {
		return nil, nil, err
	}
	return out, reports, nil
}

// convertPDF converts every table of a PDF into its own sheet.
func (p *Pipeline) convertPDF(ctx context.Context, data []byte, source string) ([]byte, []types.SheetReport, error) {
	if p.PDF == nil {
		return nil, nil, fmt.Errorf("%w: pdf support not configured", types.ErrUnsupportedFormat)
	}
	extracted, err := p.PDF.Tables(ctx, data, source)
	if err != nil {
		return nil, nil, err
	}
	if len(extracted) == 0 {
		return nil, nil, &types.SourceFormatError{Source: source, Format: FormatPDF, Err: errNoTables}
	}

	tables := make([]types.Table, 0, len(extracted))
	reports := make([]types.SheetReport, 0, len(extracted))
	for _, et := range extracted {
		res, err := p.Tables.Convert(ctx, et.Table)
		if err != nil {
			return nil, nil, err
		}
		annotated := convert.Annotate(res.Table, res.Outcomes, p.Tables.Rewriter.Unit, p.Config.SampleRows)
		res.Report.Labels = stringValues(annotated.Rows[0])
		tables = append(tables, annotated)
		reports = append(reports, res.Report)
	}

	out, err := spreadsheet.WriteWorkbook(tables)
	if err != nil {
		return nil, nil, err
	}
	return out, reports, nil
}

// ConvertBatch converts each path in turn, printing per-document status to
// w and returning a summary. Documents whose output already exists are
// skipped unless Force is set. A failed document does not stop the batch;
// cancellation does.
func (p *Pipeline) ConvertBatch(ctx context.Context, paths []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		base := filepath.Base(path)

		if !p.Force {
			if _, err := os.Stat(OutputPath(p.outDir(), path)); err == nil {
				fmt.Fprintf(w, "skipped: %s (already converted)\n", base)
				result.Skipped++
				p.record(ctx, store.RunRecord{
					Source: path, Unit: p.Tables.Rewriter.Unit, Threshold: p.Tables.Rewriter.Threshold,
					Status: types.RunSkipped, StartedAt: time.Now(),
				})
				continue
			}
		}

		report, err := p.ConvertFile(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
			result.Failed++
			p.record(ctx, store.RunRecord{
				Source: path, Format: report.Format, Unit: report.Unit, Threshold: report.Threshold,
				Status: types.RunFailed, Error: err.Error(), StartedAt: report.StartedAt,
				Duration: time.Since(report.StartedAt),
			})
			continue
		}

		fmt.Fprintf(w, "converted: %s -> %s (%d cells)\n", base, report.Output, report.Converted())
		result.Converted++
		p.record(ctx, store.FromReport(report))
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// record stores rec when a recorder is configured. Failures are logged,
// not returned; history is best effort.
func (p *Pipeline) record(ctx context.Context, rec store.RunRecord) {
	if p.Recorder == nil {
		return
	}
	if _, err := p.Recorder.RecordRun(ctx, rec); err != nil {
		p.logger.Warn("recording run failed",
			zap.String("op", "pipeline.record"),
			zap.String("source", rec.Source),
			zap.Error(err),
		)
	}
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func stringValues(cells []types.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if s, ok := c.Value.(string); ok {
			out[i] = s
		}
	}
	return out
}
