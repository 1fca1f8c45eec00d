// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{in: "Lakhs", want: UnitLakhs},
		{in: "lakh", want: UnitLakhs},
		{in: " LAC ", want: UnitLakhs},
		{in: "crore", want: UnitCrore},
		{in: "Cr", want: UnitCrore},
		{in: "thousand", want: UnitThousand},
		{in: "k", want: UnitThousand},
		{in: "Hundred", want: UnitHundred},
		{in: "million", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnitFactorAndLabel(t *testing.T) {
	assert.Equal(t, 100.0, UnitHundred.Factor())
	assert.Equal(t, 1000.0, UnitThousand.Factor())
	assert.Equal(t, 100000.0, UnitLakhs.Factor())
	assert.Equal(t, 10000000.0, UnitCrore.Factor())
	assert.Equal(t, 1.0, Unit("Bogus").Factor())
	assert.Equal(t, "(in Lakhs)", UnitLakhs.Label())
}

func TestCellIsFormula(t *testing.T) {
	assert.True(t, Cell{Formula: "SUM(A1:A3)"}.IsFormula())
	assert.True(t, Cell{Value: "=B2*2"}.IsFormula())
	assert.False(t, Cell{Value: "150000"}.IsFormula())
	assert.False(t, Cell{Value: 42.0}.IsFormula())
}

func TestTableWidthAndStringRows(t *testing.T) {
	tbl := StringRows("Page_1_Table_1", [][]string{{"a", "b"}, {"c", "d", "e"}})
	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, "e", tbl.Rows[1][2].Value)
	assert.Equal(t, 2, tbl.Rows[1][2].Row)
	assert.Equal(t, 3, tbl.Rows[1][2].Col)
	assert.Equal(t, "Page_1_Table_1", tbl.Rows[1][2].Sheet)
}

func TestSourceFormatErrorUnwraps(t *testing.T) {
	err := &SourceFormatError{Source: "a.pdf", Format: "pdf", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(err, ErrSourceFormat))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "a.pdf")

	bare := &SourceFormatError{Source: "b.xlsx", Format: "xlsx"}
	assert.True(t, errors.Is(bare, ErrSourceFormat))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Conversion.Unit = "Million"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Conversion.Threshold = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Logging.Level = "verbose"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Logging.Format = "xml"
	assert.Error(t, bad.Validate())
}

func TestConversionReportConverted(t *testing.T) {
	r := ConversionReport{Sheets: []SheetReport{{Converted: 3}, {Converted: 4}}}
	assert.Equal(t, 7, r.Converted())
}
