// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists conversion run history and remembered classifier
// answers in SQLite.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unit-converter/pkg/types"
)

const defaultListLimit = 20

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// RunRecord is one stored conversion run.
type RunRecord struct {
	ID        int64               `json:"id" yaml:"id"`
	Source    string              `json:"source" yaml:"source"`
	Output    string              `json:"output,omitempty" yaml:"output,omitempty"`
	Format    string              `json:"format" yaml:"format"`
	Unit      types.Unit          `json:"unit" yaml:"unit"`
	Threshold float64             `json:"threshold" yaml:"threshold"`
	Status    types.RunStatus     `json:"status" yaml:"status"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
	Cells     int                 `json:"cells" yaml:"cells"`
	Converted int                 `json:"converted" yaml:"converted"`
	StartedAt time.Time           `json:"started_at" yaml:"started_at"`
	Duration  time.Duration       `json:"duration" yaml:"duration"`
	Sheets    []types.SheetReport `json:"sheets,omitempty" yaml:"sheets,omitempty"`
}

// FromReport builds a successful RunRecord from a conversion report.
func FromReport(r types.ConversionReport) RunRecord {
	rec := RunRecord{
		Source:    r.Source,
		Output:    r.Output,
		Format:    r.Format,
		Unit:      r.Unit,
		Threshold: r.Threshold,
		Status:    types.RunConverted,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Sheets:    r.Sheets,
	}
	for _, s := range r.Sheets {
		rec.Cells += s.Cells
		rec.Converted += s.Converted
	}
	return rec
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultStorePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			output TEXT,
			format TEXT,
			unit TEXT NOT NULL,
			threshold REAL NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			cells INTEGER,
			converted INTEGER,
			sheets TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS classifier_cache (
			key TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			amounts TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores rec and returns its id.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (int64, error) {
	sheets, err := json.Marshal(rec.Sheets)
	if err != nil {
		return 0, fmt.Errorf("marshaling sheets: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (source, output, format, unit, threshold, status, error, cells, converted, sheets, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Source, rec.Output, rec.Format, string(rec.Unit), rec.Threshold, string(rec.Status), rec.Error,
		rec.Cells, rec.Converted, string(sheets),
		rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first. limit <= 0 uses 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, output, format, unit, threshold, status, error, cells, converted, sheets, started_at, duration_ms
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec                          RunRecord
			output, format, errText      sql.NullString
			sheets                       sql.NullString
			unit, status, startedAt      string
			cells, converted, durationMs sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &output, &format, &unit, &rec.Threshold, &status, &errText,
			&cells, &converted, &sheets, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.Output = output.String
		rec.Format = format.String
		rec.Error = errText.String
		rec.Unit = types.Unit(unit)
		rec.Status = types.RunStatus(status)
		rec.Cells = int(cells.Int64)
		rec.Converted = int(converted.Int64)
		rec.Duration = time.Duration(durationMs.Int64) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			rec.StartedAt = t
		}
		if sheets.Valid && sheets.String != "" && sheets.String != "null" {
			if err := json.Unmarshal([]byte(sheets.String), &rec.Sheets); err != nil {
				return nil, fmt.Errorf("decoding sheets for run %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ExportYAML writes the most recent runs to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(runs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// LookupClassification returns the remembered amounts for text.
func (s *Store) LookupClassification(ctx context.Context, text string) ([]float64, bool, error) {
	var amounts string
	err := s.db.QueryRowContext(ctx,
		`SELECT amounts FROM classifier_cache WHERE key = ?`, cacheKey(text),
	).Scan(&amounts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying classifier cache: %w", err)
	}

	var out []float64
	if err := json.Unmarshal([]byte(amounts), &out); err != nil {
		return nil, false, fmt.Errorf("decoding cached amounts: %w", err)
	}
	return out, true, nil
}

// SaveClassification remembers the amounts found in text.
func (s *Store) SaveClassification(ctx context.Context, text string, amounts []float64) error {
	if amounts == nil {
		amounts = []float64{}
	}
	data, err := json.Marshal(amounts)
	if err != nil {
		return fmt.Errorf("marshaling amounts: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO classifier_cache (key, text, amounts, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET amounts = excluded.amounts, updated_at = excluded.updated_at`,
		cacheKey(text), text, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving classification: %w", err)
	}
	return nil
}

// cacheKey is a fixed-length key for arbitrary cell text.
func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
