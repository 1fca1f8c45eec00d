// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc turns PDF financial statements into grids of cell text.
// Tables are found with a geometric detector over positioned text; a PDF
// with no detectable table falls back to its text lines.
package pdfdoc

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/pkg/types"
)

// TextSheet is the name of the sheet holding fallback text lines.
const TextSheet = "Text"

// Extractor reads tables and text from PDF documents.
type Extractor struct {
	// Detector names the tabula table detector.
	Detector string

	logger *zap.Logger
}

// New returns an Extractor using the geometric detector.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{Detector: defaultDetector, logger: logger}
}

// TableName is the sheet name for table t (1-based) on page p (1-based).
func TableName(page, table int) string {
	return fmt.Sprintf("Page_%d_Table_%d", page, table)
}

// Tables returns every table in data in page order. When none is found
// the text lines become a single table named Text, one line per row.
func (e *Extractor) Tables(ctx context.Context, data []byte, source string) ([]types.ExtractedTable, error) {
	tables, err := e.ExtractTables(ctx, data)
	if err != nil {
		return nil, &types.SourceFormatError{Source: source, Format: "pdf", Err: err}
	}
	if len(tables) > 0 {
		return tables, nil
	}

	e.logger.Info("no tables detected, using text lines",
		zap.String("op", "pdfdoc.Tables"),
		zap.String("source", source),
	)
	text, err := e.ExtractText(ctx, data)
	if err != nil {
		return nil, &types.SourceFormatError{Source: source, Format: "pdf", Err: err}
	}
	lines := TextLines(text)
	if len(lines) == 0 {
		return nil, nil
	}
	return []types.ExtractedTable{{Table: TextTable(lines)}}, nil
}

// TextLines splits text into trimmed non-empty lines.
func TextLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// TextTable is a one-column table with a row per line.
func TextTable(lines []string) types.Table {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l}
	}
	return types.StringRows(TextSheet, rows)
}

// withTempFile writes data to a temporary file for readers that need a
// path, and removes it afterwards.
func withTempFile(data []byte, fn func(path string) error) error {
	tmp, err := os.CreateTemp("", "unit-converter-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return fn(tmp.Name())
}

// recoverParse converts a parser panic on malformed input into an error.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("parsing pdf: %v", r)
	}
}
