// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"
	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/pkg/types"
)

const defaultDetector = "geometric"

// ExtractTables detects tables on every page of data.
func (e *Extractor) ExtractTables(ctx context.Context, data []byte) (out []types.ExtractedTable, err error) {
	name := e.Detector
	if name == "" {
		name = defaultDetector
	}
	detector := tables.GetDetector(name)
	if detector == nil {
		return nil, fmt.Errorf("unknown table detector %q", name)
	}

	err = withTempFile(data, func(path string) (err error) {
		defer recoverParse(&err)

		r, err := reader.Open(path)
		if err != nil {
			return fmt.Errorf("opening pdf: %w", err)
		}
		defer r.Close()

		count, err := r.PageCount()
		if err != nil {
			return fmt.Errorf("counting pages: %w", err)
		}

		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := r.GetPage(i)
			if err != nil {
				e.logger.Debug("skipping unreadable page", zap.String("op", "pdfdoc.ExtractTables"), zap.Int("page", i+1), zap.Error(err))
				continue
			}
			fragments, err := r.ExtractTextFragments(page)
			if err != nil {
				e.logger.Debug("skipping page without text", zap.String("op", "pdfdoc.ExtractTables"), zap.Int("page", i+1), zap.Error(err))
				continue
			}

			width, _ := page.Width()
			height, _ := page.Height()
			mp := model.NewPage(width, height)
			mp.Number = i + 1
			mp.RawText = modelFragments(fragments)

			found, err := detector.Detect(mp)
			if err != nil {
				e.logger.Debug("table detection failed", zap.String("op", "pdfdoc.ExtractTables"), zap.Int("page", i+1), zap.Error(err))
				continue
			}
			n := 0
			for _, t := range found {
				grid := tableGrid(t)
				if len(grid) == 0 {
					continue
				}
				n++
				out = append(out, types.ExtractedTable{
					Table: types.StringRows(TableName(i+1, n), grid),
					Page:  i + 1,
					Index: n,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extracted tables", zap.String("op", "pdfdoc.ExtractTables"), zap.Int("tables", len(out)))
	return out, nil
}

// modelFragments converts reader fragments to the layout model.
func modelFragments(fragments []text.TextFragment) []model.TextFragment {
	out := make([]model.TextFragment, len(fragments))
	for i, f := range fragments {
		out[i] = model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		}
	}
	return out
}

// tableGrid returns the cell text of t, dropping rows with no text at all.
// Rows are padded to the widest row.
func tableGrid(t *model.Table) [][]string {
	if t == nil {
		return nil
	}
	width := 0
	var grid [][]string
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		blank := true
		for j, c := range row {
			cells[j] = strings.TrimSpace(c.Text)
			if cells[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		width = max(width, len(cells))
		grid = append(grid, cells)
	}
	for i, r := range grid {
		for len(r) < width {
			r = append(r, "")
		}
		grid[i] = r
	}
	return grid
}
