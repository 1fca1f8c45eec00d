// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// RunStatus is the result of converting one document.
type RunStatus string

const (
	RunConverted RunStatus = "converted"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// ProgressEvent reports conversion progress within one sheet or table.
type ProgressEvent struct {
	Stage     string `json:"stage" yaml:"stage"`
	Sheet     string `json:"sheet" yaml:"sheet"`
	Processed int    `json:"processed" yaml:"processed"`
	Total     int    `json:"total" yaml:"total"`
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(ProgressEvent)

// SheetReport summarises what happened to one sheet.
type SheetReport struct {
	Name        string   `json:"name" yaml:"name"`
	Cells       int      `json:"cells" yaml:"cells"`
	Converted   int      `json:"converted" yaml:"converted"`
	Passthrough int      `json:"passthrough" yaml:"passthrough"`
	Preserved   int      `json:"preserved" yaml:"preserved"`
	Labels      []string `json:"labels" yaml:"labels"`
}

// ConversionReport describes one converted document.
type ConversionReport struct {
	Source    string        `json:"source" yaml:"source"`
	Output    string        `json:"output" yaml:"output"`
	Format    string        `json:"format" yaml:"format"`
	Unit      Unit          `json:"unit" yaml:"unit"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Sheets    []SheetReport `json:"sheets" yaml:"sheets"`
}

// Converted returns the number of converted cells across all sheets.
func (r ConversionReport) Converted() int {
	n := 0
	for _, s := range r.Sheets {
		n += s.Converted
	}
	return n
}

// Source document errors.
var (
	ErrSourceFormat      = errors.New("unreadable source document")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// SourceFormatError reports a document that could not be opened or parsed.
// It always unwraps to ErrSourceFormat as well as the underlying cause.
type SourceFormatError struct {
	Source string
	Format string
	Err    error
}

func (e *SourceFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", ErrSourceFormat, e.Source, e.Format)
	}
	return fmt.Sprintf("%s: %s (%s): %v", ErrSourceFormat, e.Source, e.Format, e.Err)
}

func (e *SourceFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceFormat}
	}
	return []error{ErrSourceFormat, e.Err}
}
