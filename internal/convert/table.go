// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/pkg/types"
)

const defaultProgressEvery = 200

// TableConverter rewrites every cell of a table on a bounded worker pool.
type TableConverter struct {
	Rewriter *Rewriter

	// Workers bounds concurrency. Zero uses runtime.NumCPU().
	Workers int

	// ProgressEvery is the number of cells between progress events.
	ProgressEvery int

	// Progress, if set, is called every ProgressEvery cells and once when
	// the table is finished. Calls are serialised.
	Progress types.ProgressFunc

	logger *zap.Logger
	mu     sync.Mutex
}

// NewTableConverter returns a TableConverter for rw configured from cfg.
func NewTableConverter(rw *Rewriter, cfg types.ConversionConfig, progress types.ProgressFunc, logger *zap.Logger) *TableConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableConverter{
		Rewriter:      rw,
		Workers:       cfg.Workers,
		ProgressEvery: cfg.ProgressEvery,
		Progress:      progress,
		logger:        logger,
	}
}

// TableResult is a rewritten table with the outcome of every cell.
type TableResult struct {
	Table    types.Table
	Outcomes [][]types.Outcome
	Report   types.SheetReport
}

// Convert rewrites t. Results are written back by (row, col), so the
// output keeps the input's shape whatever order workers finish in. Formula
// cells keep their formula and carry the converted value in Computed.
func (tc *TableConverter) Convert(ctx context.Context, t types.Table) (TableResult, error) {
	total := 0
	out := types.Table{Name: t.Name, Rows: make([][]types.Cell, len(t.Rows))}
	outcomes := make([][]types.Outcome, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = make([]types.Cell, len(row))
		outcomes[i] = make([]types.Outcome, len(row))
		total += len(row)
	}

	workers := tc.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	every := tc.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}

	var processed atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers).WithCancelOnError()
	for i := range t.Rows {
		p.Go(func(ctx context.Context) error {
			for j, cell := range t.Rows[i] {
				if err := ctx.Err(); err != nil {
					return err
				}
				res := tc.Rewriter.Rewrite(ctx, cell)
				out.Rows[i][j] = apply(cell, res)
				outcomes[i][j] = res.Outcome

				if n := processed.Add(1); n%int64(every) == 0 {
					tc.report(t.Name, int(n), total)
				}
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return TableResult{}, err
	}
	tc.report(t.Name, total, total)

	rep := types.SheetReport{Name: t.Name, Cells: total}
	for _, row := range outcomes {
		for _, o := range row {
			switch o {
			case types.OutcomeConverted:
				rep.Converted++
			case types.OutcomeNumericPassthrough:
				rep.Passthrough++
			default:
				rep.Preserved++
			}
		}
	}

	tc.logger.Debug("table converted",
		zap.String("op", "convert.TableConverter.Convert"),
		zap.String("table", t.Name),
		zap.Int("cells", total),
		zap.Int("converted", rep.Converted),
	)
	return TableResult{Table: out, Outcomes: outcomes, Report: rep}, nil
}

func (tc *TableConverter) report(name string, processed, total int) {
	if tc.Progress == nil {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.Progress(types.ProgressEvent{Stage: "convert", Sheet: name, Processed: processed, Total: total})
}

// apply writes a rewrite result into a copy of cell.
func apply(cell types.Cell, res types.CellResult) types.Cell {
	if res.Outcome != types.OutcomeConverted {
		return cell
	}
	if cell.IsFormula() {
		cell.Computed = res.Value
		return cell
	}
	cell.Value = res.Value
	return cell
}
