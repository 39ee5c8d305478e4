// Package profile computes prompt-ready summaries of loaded datasets:
// per-column statistics, group-by aggregates, correlations, and sample rows.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/plotloom/plotloom-cli/internal/dataset"
)

// Options controls profiling behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outliers counts robust Z-score (MAD) outliers with |z| > OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary // by column name
	CorrPairs []PairCorr
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Profile analyzes a loaded frame.
func Profile(f *dataset.Frame, opt Options) *Report {
	rep := &Report{Name: f.Name, Rows: f.Rows, Processed: f.Processed}
	rep.Warnings = append(rep.Warnings, f.Warnings...)

	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	if sampleRows > f.Len() {
		sampleRows = f.Len()
	}
	for i := 0; i < sampleRows; i++ {
		row := make([]string, len(f.Cols))
		for j, c := range f.Cols {
			row[j] = c.Raw[i]
		}
		rep.Samples = append(rep.Samples, row)
	}

	var numCols []int
	for idx, c := range f.Cols {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind, Unit: c.Unit, NonNull: c.NonNull(), Missing: c.Missing()}
		switch c.Kind {
		case dataset.KindNumeric:
			vals := c.NumericValues()
			s.Min, s.Max, s.Mean, s.Std = welford(vals)
			numCols = append(numCols, idx)
			if opt.Outliers && len(vals) >= 8 {
				s.OutliersCount, s.OutliersMaxAbsZ, s.OutlierThreshold = countOutliers(vals, opt.OutlierThreshold)
			}
		case dataset.KindCategorical:
			cats := map[string]int{}
			for _, v := range c.Raw {
				if v == "" || len(v) > 64 {
					continue
				}
				if len(cats) <= 10000 { // guard memory
					cats[v]++
				}
			}
			tops := make([]CategoryCount, 0, len(cats))
			for k, v := range cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
			s.Unique = len(cats)
		case dataset.KindText:
			for _, v := range c.Raw {
				if v != "" && len(s.ExampleTexts) < 3 {
					s.ExampleTexts = append(s.ExampleTexts, v)
				}
			}
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		rep.Groups = groupBy(f, opt.GroupBy, numCols, opt.Correlations)
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(f, numCols)
	}
	return rep
}

// welford computes min/max/mean/std in a single pass.
func welford(vals []float64) (min, max, mean, std float64) {
	if len(vals) == 0 {
		return 0, 0, 0, 0
	}
	min = math.Inf(1)
	max = math.Inf(-1)
	var n int
	var m2 float64
	for _, x := range vals {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	if n > 1 {
		std = math.Sqrt(m2 / float64(n-1))
	}
	return
}

func countOutliers(vals []float64, thr float64) (count int, maxAbsZ, threshold float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			z := 0.6745 * (v - median) / mad
			az := math.Abs(z)
			if az > thr {
				count++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return count, maxAbsZ, thr
}

func groupBy(f *dataset.Frame, by []string, numCols []int, withCorr bool) []GroupResult {
	var keyCols []*dataset.Column
	for _, name := range by {
		if c, ok := f.Column(name); ok {
			keyCols = append(keyCols, c)
		}
	}
	if len(keyCols) == 0 {
		return nil
	}
	type gAcc struct {
		size int
		rows []int
		sum  map[int]float64
		cnt  map[int]int
		min  map[int]float64
		max  map[int]float64
	}
	groups := map[string]*gAcc{}
	for i := 0; i < f.Len(); i++ {
		var parts []string
		for _, kc := range keyCols {
			parts = append(parts, fmt.Sprintf("%s=%s", kc.Name, safeVal(kc.Raw[i])))
		}
		key := strings.Join(parts, " | ")
		ga := groups[key]
		if ga == nil {
			ga = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
			groups[key] = ga
		}
		ga.size++
		ga.rows = append(ga.rows, i)
		for _, idx := range numCols {
			x := f.Cols[idx].Nums[i]
			if math.IsNaN(x) {
				continue
			}
			ga.sum[idx] += x
			ga.cnt[idx]++
			if _, ok := ga.min[idx]; !ok || x < ga.min[idx] {
				ga.min[idx] = x
			}
			if _, ok := ga.max[idx]; !ok || x > ga.max[idx] {
				ga.max[idx] = x
			}
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for _, idx := range numCols {
			if ga.cnt[idx] == 0 {
				continue
			}
			name := f.Cols[idx].Name
			gr.Metrics[name] = NumSummary{Count: ga.cnt[idx], Min: ga.min[idx], Max: ga.max[idx], Mean: ga.sum[idx] / float64(ga.cnt[idx])}
		}
		if withCorr && len(numCols) >= 2 && ga.size >= 3 {
			gr.CorrPairs = rowSubsetCorr(f, numCols, ga.rows)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// rowSubsetCorr computes Pearson pairs over a subset of rows, sorted by |r|.
func rowSubsetCorr(f *dataset.Frame, numCols []int, rows []int) []PairCorr {
	var pairs []PairCorr
	for a := 0; a < len(numCols); a++ {
		for b := a + 1; b < len(numCols); b++ {
			xa := f.Cols[numCols[a]].Nums
			xb := f.Cols[numCols[b]].Nums
			var cnt, sumX, sumY, sumXX, sumYY, sumXY float64
			for _, i := range rows {
				x, y := xa[i], xb[i]
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				cnt++
				sumX += x
				sumY += y
				sumXX += x * x
				sumYY += y * y
				sumXY += x * y
			}
			if cnt < 3 {
				continue
			}
			denom := math.Sqrt((cnt*sumXX - sumX*sumX) * (cnt*sumYY - sumY*sumY))
			if denom == 0 {
				continue
			}
			r := (cnt*sumXY - sumX*sumY) / denom
			if r > 1 {
				r = 1
			} else if r < -1 {
				r = -1
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			pairs = append(pairs, PairCorr{A: f.Cols[numCols[a]].Name, B: f.Cols[numCols[b]].Name, R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}

// correlations computes exact pairwise Pearson r with per-pair missingness.
func correlations(f *dataset.Frame, numCols []int) *CorrMatrix {
	n := len(numCols)
	names := make([]string, n)
	for i, idx := range numCols {
		names[i] = f.Cols[idx].Name
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			xa := f.Cols[numCols[a]].Nums
			xb := f.Cols[numCols[b]].Nums
			var cnt, sumX, sumY, sumXX, sumYY, sumXY float64
			for i := 0; i < f.Len(); i++ {
				x, y := xa[i], xb[i]
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				cnt++
				sumX += x
				sumY += y
				sumXX += x * x
				sumYY += y * y
				sumXY += x * y
			}
			var r float64
			if cnt >= 2 {
				denom := math.Sqrt((cnt*sumXX - sumX*sumX) * (cnt*sumYY - sumY*sumY))
				if denom != 0 {
					r = (cnt*sumXY - sumX*sumY) / denom
				}
			}
			if r > 1 {
				r = 1
			} else if r < -1 {
				r = -1
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

// TopPairs lists correlation pairs ordered by |r| descending.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		d := v - median
		if d < 0 {
			d = -d
		}
		dev[i] = d
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
