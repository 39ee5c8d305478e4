package chartspec

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/plotloom/plotloom-cli/internal/dataset"
)

const (
	maxGroupSeries = 8
	maxCategories  = 20
	maxPieSlices   = 8
)

// XYSeries is one plottable series for line and scatter charts. X holds
// numeric positions unless T is set, in which case the x axis is time.
type XYSeries struct {
	Name string
	X    []float64
	T    []time.Time
	Y    []float64
}

// BarSeries is one group of values aligned with Bound.Categories.
type BarSeries struct {
	Name   string
	Values []float64
}

// Slice is one pie segment.
type Slice struct {
	Label string
	Value float64
}

// Bound is a chart definition resolved against a loaded frame, ready to render.
type Bound struct {
	Spec       *Spec
	Title      string
	XLabel     string
	YLabel     string
	TimeX      bool
	Series     []XYSeries
	Categories []string
	Bars       []BarSeries
	Slices     []Slice
}

// Bind resolves a validated definition against the loaded frames.
func Bind(s *Spec, frames map[string]*dataset.Frame) (*Bound, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f, err := resolveFrame(s.Dataset, frames)
	if err != nil {
		return nil, err
	}

	b := &Bound{Spec: s, Title: s.Title, XLabel: s.X}
	switch s.Type {
	case TypeLine, TypeScatter:
		err = bindXY(b, s, f)
	case TypeBar:
		err = bindBar(b, s, f)
	case TypeHistogram:
		err = bindHistogram(b, s, f)
	case TypePie:
		err = bindPie(b, s, f)
	}
	if err != nil {
		return nil, err
	}
	if b.Title == "" {
		b.Title = defaultTitle(s)
	}
	return b, nil
}

func resolveFrame(name string, frames map[string]*dataset.Frame) (*dataset.Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no datasets loaded")
	}
	if name == "" {
		if len(frames) == 1 {
			for _, f := range frames {
				return f, nil
			}
		}
		return nil, fmt.Errorf("chart names no dataset and %d are loaded (%s)", len(frames), frameNames(frames))
	}
	if f, ok := frames[name]; ok {
		return f, nil
	}
	for k, f := range frames {
		if strings.EqualFold(k, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown dataset %q (loaded: %s)", name, frameNames(frames))
}

func frameNames(frames map[string]*dataset.Frame) string {
	names := make([]string, 0, len(frames))
	for k := range frames {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func column(f *dataset.Frame, name, role string) (*dataset.Column, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("unknown %s column %q (available: %s)", role, name, strings.Join(f.ColumnNames(), ", "))
	}
	return c, nil
}

func numericColumn(f *dataset.Frame, name, role string) (*dataset.Column, error) {
	c, err := column(f, name, role)
	if err != nil {
		return nil, err
	}
	if c.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("%s column %q is %s, need numeric", role, c.Name, c.Kind)
	}
	return c, nil
}

func bindXY(b *Bound, s *Spec, f *dataset.Frame) error {
	xc, err := column(f, s.X, "x")
	if err != nil {
		return err
	}
	switch xc.Kind {
	case dataset.KindNumeric, dataset.KindDatetime:
	default:
		return fmt.Errorf("x column %q is %s; line and scatter need a numeric or datetime x", xc.Name, xc.Kind)
	}
	b.TimeX = xc.Kind == dataset.KindDatetime

	if s.GroupBy != "" {
		gc, err := column(f, s.GroupBy, "group_by")
		if err != nil {
			return err
		}
		yc, err := numericColumn(f, s.Y[0], "y")
		if err != nil {
			return err
		}
		b.YLabel = yc.Name
		for _, g := range topGroups(gc, maxGroupSeries) {
			ser := collectXY(g, xc, yc, f.Len(), func(i int) bool { return gc.Raw[i] == g })
			if len(ser.Y) > 0 {
				appendSeries(b, s, ser)
			}
		}
		if len(b.Series) == 0 {
			return fmt.Errorf("no plottable points for %q grouped by %q", yc.Name, gc.Name)
		}
		return nil
	}

	for _, yName := range s.Y {
		yc, err := numericColumn(f, yName, "y")
		if err != nil {
			return err
		}
		ser := collectXY(yc.Name, xc, yc, f.Len(), nil)
		if len(ser.Y) == 0 {
			return fmt.Errorf("columns %q and %q share no plottable rows", xc.Name, yc.Name)
		}
		appendSeries(b, s, ser)
	}
	if len(s.Y) == 1 {
		b.YLabel = s.Y[0]
	}
	return nil
}

// collectXY gathers paired x/y points, skipping unparseable cells.
func collectXY(name string, xc, yc *dataset.Column, n int, keep func(int) bool) XYSeries {
	ser := XYSeries{Name: name}
	timeX := xc.Kind == dataset.KindDatetime
	for i := 0; i < n; i++ {
		if keep != nil && !keep(i) {
			continue
		}
		y := yc.Nums[i]
		if math.IsNaN(y) {
			continue
		}
		if timeX {
			t := xc.Times[i]
			if t.IsZero() {
				continue
			}
			ser.T = append(ser.T, t)
		} else {
			x := xc.Nums[i]
			if math.IsNaN(x) {
				continue
			}
			ser.X = append(ser.X, x)
		}
		ser.Y = append(ser.Y, y)
	}
	return ser
}

// appendSeries adds the series, sorting points by x for line charts so the
// stroke follows the axis.
func appendSeries(b *Bound, s *Spec, ser XYSeries) {
	if s.Type == TypeLine {
		idx := make([]int, len(ser.Y))
		for i := range idx {
			idx[i] = i
		}
		if b.TimeX {
			sort.SliceStable(idx, func(i, j int) bool { return ser.T[idx[i]].Before(ser.T[idx[j]]) })
		} else {
			sort.SliceStable(idx, func(i, j int) bool { return ser.X[idx[i]] < ser.X[idx[j]] })
		}
		sorted := XYSeries{Name: ser.Name}
		for _, i := range idx {
			if b.TimeX {
				sorted.T = append(sorted.T, ser.T[i])
			} else {
				sorted.X = append(sorted.X, ser.X[i])
			}
			sorted.Y = append(sorted.Y, ser.Y[i])
		}
		ser = sorted
	}
	b.Series = append(b.Series, ser)
}

// topGroups returns the most frequent group values, largest first.
func topGroups(c *dataset.Column, limit int) []string {
	counts := map[string]int{}
	for _, v := range c.Raw {
		if v != "" {
			counts[v]++
		}
	}
	vals := make([]string, 0, len(counts))
	for v := range counts {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool {
		if counts[vals[i]] == counts[vals[j]] {
			return vals[i] < vals[j]
		}
		return counts[vals[i]] > counts[vals[j]]
	})
	if len(vals) > limit {
		vals = vals[:limit]
	}
	return vals
}

type accum struct {
	count    int
	sum      float64
	min, max float64
}

func (a *accum) add(v float64) {
	if a.count == 0 {
		a.min, a.max = v, v
	} else {
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	a.count++
	a.sum += v
}

func (a *accum) value(agg string) float64 {
	switch agg {
	case AggCount:
		return float64(a.count)
	case AggSum:
		return a.sum
	case AggMin:
		return a.min
	case AggMax:
		return a.max
	default: // mean
		if a.count == 0 {
			return 0
		}
		return a.sum / float64(a.count)
	}
}

func bindBar(b *Bound, s *Spec, f *dataset.Frame) error {
	xc, err := column(f, s.X, "x")
	if err != nil {
		return err
	}

	agg := s.Aggregate
	if agg == "" {
		if len(s.Y) > 0 {
			agg = AggMean
		} else {
			agg = AggCount
		}
	}
	if agg != AggCount && len(s.Y) == 0 {
		return fmt.Errorf("bar chart with aggregate %q needs a y column", agg)
	}

	// series name -> category -> accumulator
	type named struct {
		name string
		vals map[string]*accum
	}
	var series []named
	catOrder := []string{}
	catSeen := map[string]bool{}
	touch := func(cat string) {
		if !catSeen[cat] {
			catSeen[cat] = true
			catOrder = append(catOrder, cat)
		}
	}

	label := func(i int) string {
		v := strings.TrimSpace(xc.Raw[i])
		if v == "" {
			return "(missing)"
		}
		return v
	}

	switch {
	case s.GroupBy != "":
		gc, err := column(f, s.GroupBy, "group_by")
		if err != nil {
			return err
		}
		var yc *dataset.Column
		if agg != AggCount {
			if yc, err = numericColumn(f, s.Y[0], "y"); err != nil {
				return err
			}
		}
		byGroup := map[string]*named{}
		for _, g := range topGroups(gc, maxGroupSeries) {
			n := &named{name: g, vals: map[string]*accum{}}
			byGroup[g] = n
			series = append(series, *n)
		}
		for i := 0; i < f.Len(); i++ {
			n, ok := byGroup[gc.Raw[i]]
			if !ok {
				continue
			}
			v := 1.0
			if yc != nil {
				v = yc.Nums[i]
				if math.IsNaN(v) {
					continue
				}
			}
			cat := label(i)
			touch(cat)
			a := n.vals[cat]
			if a == nil {
				a = &accum{}
				n.vals[cat] = a
			}
			a.add(v)
		}
		for i := range series {
			series[i] = *byGroup[series[i].name]
		}
	case len(s.Y) > 0 && agg != AggCount:
		for _, yName := range s.Y {
			yc, err := numericColumn(f, yName, "y")
			if err != nil {
				return err
			}
			n := named{name: yc.Name, vals: map[string]*accum{}}
			for i := 0; i < f.Len(); i++ {
				v := yc.Nums[i]
				if math.IsNaN(v) {
					continue
				}
				cat := label(i)
				touch(cat)
				a := n.vals[cat]
				if a == nil {
					a = &accum{}
					n.vals[cat] = a
				}
				a.add(v)
			}
			series = append(series, n)
		}
	default: // plain row counts per category
		n := named{name: "count", vals: map[string]*accum{}}
		for i := 0; i < f.Len(); i++ {
			cat := label(i)
			touch(cat)
			a := n.vals[cat]
			if a == nil {
				a = &accum{}
				n.vals[cat] = a
			}
			a.add(1)
		}
		series = append(series, n)
	}

	if len(catOrder) == 0 {
		return fmt.Errorf("no plottable categories in column %q", xc.Name)
	}

	// Rank categories by the first series, largest first, and cap.
	first := series[0].vals
	sort.SliceStable(catOrder, func(i, j int) bool {
		var vi, vj float64
		if a := first[catOrder[i]]; a != nil {
			vi = a.value(agg)
		}
		if a := first[catOrder[j]]; a != nil {
			vj = a.value(agg)
		}
		if vi == vj {
			return catOrder[i] < catOrder[j]
		}
		return vi > vj
	})
	limit := maxCategories
	if s.TopN > 0 && s.TopN < limit {
		limit = s.TopN
	}
	if len(catOrder) > limit {
		catOrder = catOrder[:limit]
	}

	b.Categories = catOrder
	for _, n := range series {
		bs := BarSeries{Name: n.name}
		for _, cat := range catOrder {
			if a := n.vals[cat]; a != nil {
				bs.Values = append(bs.Values, a.value(agg))
			} else {
				bs.Values = append(bs.Values, 0)
			}
		}
		b.Bars = append(b.Bars, bs)
	}
	b.YLabel = aggLabel(agg, s.Y)
	return nil
}

func bindHistogram(b *Bound, s *Spec, f *dataset.Frame) error {
	xc, err := numericColumn(f, s.X, "x")
	if err != nil {
		return err
	}
	vals := xc.NumericValues()
	if len(vals) == 0 {
		return fmt.Errorf("column %q has no numeric values to bin", xc.Name)
	}
	bins := s.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		b.Categories = []string{formatTick(min)}
		b.Bars = []BarSeries{{Name: "count", Values: []float64{float64(len(vals))}}}
		b.YLabel = "count"
		return nil
	}
	width := (max - min) / float64(bins)
	counts := make([]float64, bins)
	for _, v := range vals {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	cats := make([]string, bins)
	for i := 0; i < bins; i++ {
		lo := min + width*float64(i)
		cats[i] = fmt.Sprintf("%s–%s", formatTick(lo), formatTick(lo+width))
	}
	b.Categories = cats
	b.Bars = []BarSeries{{Name: "count", Values: counts}}
	b.YLabel = "count"
	return nil
}

func bindPie(b *Bound, s *Spec, f *dataset.Frame) error {
	xc, err := column(f, s.X, "x")
	if err != nil {
		return err
	}
	agg := s.Aggregate
	if agg == "" {
		if len(s.Y) > 0 {
			agg = AggSum
		} else {
			agg = AggCount
		}
	}
	var yc *dataset.Column
	if agg != AggCount {
		if len(s.Y) == 0 {
			return fmt.Errorf("pie chart with aggregate %q needs a y column", agg)
		}
		if yc, err = numericColumn(f, s.Y[0], "y"); err != nil {
			return err
		}
	}

	acc := map[string]*accum{}
	order := []string{}
	for i := 0; i < f.Len(); i++ {
		lbl := strings.TrimSpace(xc.Raw[i])
		if lbl == "" {
			lbl = "(missing)"
		}
		v := 1.0
		if yc != nil {
			v = yc.Nums[i]
			if math.IsNaN(v) {
				continue
			}
		}
		a := acc[lbl]
		if a == nil {
			a = &accum{}
			acc[lbl] = a
			order = append(order, lbl)
		}
		a.add(v)
	}
	if len(order) == 0 {
		return fmt.Errorf("no plottable categories in column %q", xc.Name)
	}
	sort.SliceStable(order, func(i, j int) bool {
		vi, vj := acc[order[i]].value(agg), acc[order[j]].value(agg)
		if vi == vj {
			return order[i] < order[j]
		}
		return vi > vj
	})
	limit := maxPieSlices
	if s.TopN > 0 && s.TopN < limit {
		limit = s.TopN
	}
	var other float64
	for i, lbl := range order {
		v := acc[lbl].value(agg)
		if v < 0 {
			return fmt.Errorf("pie values must not be negative (%s = %g)", lbl, v)
		}
		if i < limit {
			b.Slices = append(b.Slices, Slice{Label: lbl, Value: v})
		} else {
			other += v
		}
	}
	if other > 0 {
		b.Slices = append(b.Slices, Slice{Label: "Other", Value: other})
	}
	b.YLabel = aggLabel(agg, s.Y)
	return nil
}

func aggLabel(agg string, y []string) string {
	if agg == AggCount || len(y) == 0 {
		return "count"
	}
	if len(y) == 1 {
		return fmt.Sprintf("%s(%s)", agg, y[0])
	}
	return agg
}

func defaultTitle(s *Spec) string {
	switch s.Type {
	case TypeHistogram:
		return fmt.Sprintf("Distribution of %s", s.X)
	case TypePie:
		return fmt.Sprintf("Share by %s", s.X)
	default:
		if len(s.Y) > 0 {
			return fmt.Sprintf("%s by %s", strings.Join(s.Y, ", "), s.X)
		}
		return fmt.Sprintf("Count by %s", s.X)
	}
}

func formatTick(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
