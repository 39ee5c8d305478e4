// Package dataset loads tabular files (CSV/TSV/XLSX) into typed in-memory
// frames. A Frame keeps the raw cells alongside parsed numeric and datetime
// views so downstream consumers (profiling, chart binding) never re-parse.
package dataset

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// Column kinds, decided by the predominant parsed type of the column's cells.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Column is one typed column of a Frame. Raw always has Frame.Len() entries;
// "" means missing. Nums and Times are parallel views: Nums[i] is NaN and
// Times[i] is the zero time where the cell did not parse as that type.
type Column struct {
	Name string
	Unit string
	Kind string

	Raw   []string
	Nums  []float64
	Times []time.Time

	numCnt int
	dtCnt  int
	txtCnt int
	miss   int
}

// Missing reports how many cells in the column are empty.
func (c *Column) Missing() int { return c.miss }

// NonNull reports how many cells in the column are populated.
func (c *Column) NonNull() int { return len(c.Raw) - c.miss }

// NumericValues returns the parsed numeric cells, skipping misses and
// non-numeric noise.
func (c *Column) NumericValues() []float64 {
	out := make([]float64, 0, c.numCnt)
	for _, v := range c.Nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Frame is a fully loaded tabular dataset.
type Frame struct {
	Name      string
	Path      string
	Cols      []*Column
	Rows      int // total rows in the source
	Processed int // rows actually loaded (<= Options.MaxRows)
	Warnings  []string
}

// Len returns the number of loaded rows.
func (f *Frame) Len() int { return f.Processed }

// Column resolves a column by name, case-insensitively.
func (f *Frame) Column(name string) (*Column, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range f.Cols {
		if strings.ToLower(c.Name) == want {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames lists the frame's column names in order.
func (f *Frame) ColumnNames() []string {
	out := make([]string, len(f.Cols))
	for i, c := range f.Cols {
		out[i] = c.Name
	}
	return out
}

// Options controls loading behavior.
type Options struct {
	// MaxRows limits rows loaded; 0 means the default cap (100000).
	MaxRows int
	// Delimiter for CSV. If 0, auto-detects from the extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, strip common separators (',' '.' space)
	// XLSX sheet selection. SheetName wins over SheetIndex (1-based).
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable loading defaults.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Load dispatches on file extension and returns a typed Frame.
func Load(path string, opt Options) (*Frame, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".tsv"):
		return LoadCSV(path, opt)
	case strings.HasSuffix(lower, ".xlsx"):
		return LoadXLSX(path, opt)
	case strings.HasSuffix(lower, ".xls"):
		return nil, fmt.Errorf("legacy .xls workbooks are not supported: convert %s to .xlsx or .csv and retry", filepath.Base(path))
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (expected .csv, .tsv, or .xlsx)", filepath.Ext(path))
	}
}

// build assembles a Frame from a header and a row source callback. next
// returns the successive data rows until it reports false.
func build(name string, header []string, next func() ([]string, bool), opt Options) *Frame {
	ncol := len(header)
	f := &Frame{Name: name, Cols: make([]*Column, ncol)}
	for i, h := range header {
		clean, unit := splitUnits(strings.TrimSpace(h))
		f.Cols[i] = &Column{Name: clean, Unit: unit}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = 100000
	}
	for {
		rec, ok := next()
		if !ok {
			break
		}
		f.Rows++
		if f.Processed >= maxRows {
			continue
		}
		f.Processed++
		if len(rec) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		}
		for j := 0; j < ncol; j++ {
			c := f.Cols[j]
			v := strings.TrimSpace(rec[j])
			c.Raw = append(c.Raw, v)
			c.Nums = append(c.Nums, math.NaN())
			c.Times = append(c.Times, time.Time{})
			if v == "" {
				c.miss++
				continue
			}
			if strings.Contains(v, "%") && c.Unit == "" {
				c.Unit = "%"
			}
			if x, ok := parseNumeric(v, opt); ok {
				c.Nums[len(c.Nums)-1] = x
				c.numCnt++
				continue
			}
			if t, ok := parseTimeMaybe(v); ok {
				c.Times[len(c.Times)-1] = t
				c.dtCnt++
				continue
			}
			c.txtCnt++
		}
	}
	for _, c := range f.Cols {
		c.Kind = inferKind(c)
	}
	if f.Processed < f.Rows {
		f.Warnings = append(f.Warnings, fmt.Sprintf("loaded only %d/%d rows due to row cap", f.Processed, f.Rows))
	}
	return f
}

// inferKind decides the column kind by the predominant parsed type.
func inferKind(c *Column) string {
	switch {
	case c.numCnt > 0 && c.numCnt >= c.dtCnt && c.numCnt >= c.txtCnt:
		return KindNumeric
	case c.dtCnt > 0 && c.dtCnt >= c.txtCnt:
		return KindDatetime
	case c.txtCnt > 0:
		if looksCategorical(c) {
			return KindCategorical
		}
		return KindText
	default:
		return KindUnknown
	}
}

// looksCategorical treats short tokens (<= 64 chars) as category levels;
// columns of longer free text stay KindText.
func looksCategorical(c *Column) bool {
	for _, v := range c.Raw {
		if v != "" && len(v) <= 64 {
			return true
		}
	}
	return false
}
