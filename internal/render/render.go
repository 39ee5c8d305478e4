// Package render turns bound chart definitions into dark-themed PNG or SVG
// images using go-chart.
package render

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/plotloom/plotloom-cli/internal/chartspec"
	"github.com/plotloom/plotloom-cli/internal/utils"
)

// Options controls output size and encoding.
type Options struct {
	Width  int
	Height int
	Format string // "png" or "svg"
}

// DefaultOptions matches the configured defaults.
func DefaultOptions() Options {
	return Options{Width: 1024, Height: 576, Format: "png"}
}

func (o Options) normalize() (Options, chart.RendererProvider, error) {
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 576
	}
	switch o.Format {
	case "", "png":
		o.Format = "png"
		return o, chart.PNG, nil
	case "svg":
		return o, chart.SVG, nil
	default:
		return o, nil, fmt.Errorf("unsupported chart format %q (want png or svg)", o.Format)
	}
}

// Chart renders a bound definition to image bytes.
func Chart(b *chartspec.Bound, opt Options) ([]byte, error) {
	opt, provider, err := opt.normalize()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch b.Spec.Type {
	case chartspec.TypeLine, chartspec.TypeScatter:
		err = renderXY(b, opt, provider, &buf)
	case chartspec.TypeBar, chartspec.TypeHistogram:
		err = renderBars(b, opt, provider, &buf)
	case chartspec.TypePie:
		err = renderPie(b, opt, provider, &buf)
	default:
		err = fmt.Errorf("unsupported chart type %q", b.Spec.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", b.Spec.Type, err)
	}
	return buf.Bytes(), nil
}

// WriteArtifact renders the chart and writes it under dir as
// chart_<n>_<slug>.<ext>, returning the full path.
func WriteArtifact(dir string, n int, b *chartspec.Bound, opt Options) (string, error) {
	data, err := Chart(b, opt)
	if err != nil {
		return "", err
	}
	opt, _, _ = opt.normalize()
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("chart_%d_%s.%s", n, utils.Slug(b.Title), opt.Format))
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func renderXY(b *chartspec.Bound, opt Options, provider chart.RendererProvider, buf *bytes.Buffer) error {
	var series []chart.Series
	minY := math.MaxFloat64
	maxY := -math.MaxFloat64
	scatter := b.Spec.Type == chartspec.TypeScatter

	for i, s := range b.Series {
		for _, v := range s.Y {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
		st := lineStyle(i)
		if scatter {
			st = pointStyle(i)
		}
		if b.TimeX {
			ts, ys := s.T, s.Y
			// go-chart needs at least two x positions to span a range
			if len(ts) == 1 {
				ts = append(ts, ts[0].Add(time.Second))
				ys = append(ys, ys[0])
				if !scatter {
					st.DotWidth = 6
				}
			}
			series = append(series, chart.TimeSeries{Name: s.Name, XValues: ts, YValues: ys, Style: st})
		} else {
			xs, ys := s.X, s.Y
			if len(xs) == 1 {
				xs = append(xs, xs[0]+1)
				ys = append(ys, ys[0])
				if !scatter {
					st.DotWidth = 6
				}
			}
			series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: st})
		}
	}
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	var yRange *chart.ContinuousRange
	if minY <= maxY {
		lo, hi := niceAxisBounds(minY, maxY)
		yRange = &chart.ContinuousRange{Min: lo, Max: hi}
	}

	xAxis := chart.XAxis{
		Name:           b.XLabel,
		Style:          axisStyle(),
		NameStyle:      axisStyle(),
		TickStyle:      axisStyle(),
		GridMajorStyle: gridStyle(),
	}
	if b.TimeX {
		xAxis.ValueFormatter = chart.TimeValueFormatterWithFormat("2006-01-02")
	}

	ch := chart.Chart{
		Title:      b.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: backgroundStyle(),
		Canvas:     canvasStyle(),
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Name:           b.YLabel,
			Style:          axisStyle(),
			NameStyle:      axisStyle(),
			TickStyle:      axisStyle(),
			GridMajorStyle: gridStyle(),
			Range:          yRange,
		},
		Series: series,
	}
	if len(b.Series) > 1 {
		legendStyle := chart.Style{
			FillColor:   colorCanvas,
			FontColor:   colorText,
			StrokeColor: colorAxis,
		}
		ch.Elements = []chart.Renderable{chart.Legend(&ch, legendStyle)}
	}
	return ch.Render(provider, buf)
}

func renderBars(b *chartspec.Bound, opt Options, provider chart.RendererProvider, buf *bytes.Buffer) error {
	if len(b.Bars) == 0 || len(b.Categories) == 0 {
		return fmt.Errorf("no bars to plot")
	}
	multi := len(b.Bars) > 1
	var values []chart.Value
	maxV := 0.0
	for ci, cat := range b.Categories {
		for si, bs := range b.Bars {
			label := cat
			if multi {
				label = fmt.Sprintf("%s · %s", cat, bs.Name)
			}
			v := bs.Values[ci]
			if v > maxV {
				maxV = v
			}
			values = append(values, chart.Value{Label: label, Value: v, Style: barStyle(si)})
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	_, hi := niceAxisBounds(0, maxV)

	barWidth := (opt.Width - 150) / len(values)
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 8 {
		barWidth = 8
	}

	ch := chart.BarChart{
		Title:      b.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: backgroundStyle(),
		Canvas:     canvasStyle(),
		BarWidth:   barWidth,
		XAxis:      axisStyle(),
		YAxis: chart.YAxis{
			Name:           b.YLabel,
			Style:          axisStyle(),
			NameStyle:      axisStyle(),
			TickStyle:      axisStyle(),
			GridMajorStyle: gridStyle(),
			Range:          &chart.ContinuousRange{Min: 0, Max: hi},
		},
		Bars: values,
	}
	return ch.Render(provider, buf)
}

func renderPie(b *chartspec.Bound, opt Options, provider chart.RendererProvider, buf *bytes.Buffer) error {
	if len(b.Slices) == 0 {
		return fmt.Errorf("no slices to plot")
	}
	values := make([]chart.Value, 0, len(b.Slices))
	for i, s := range b.Slices {
		st := barStyle(i)
		st.FontColor = colorBackground
		values = append(values, chart.Value{Label: s.Label, Value: s.Value, Style: st})
	}
	ch := chart.PieChart{
		Title:      b.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: backgroundStyle(),
		Canvas:     canvasStyle(),
		Values:     values,
	}
	return ch.Render(provider, buf)
}

// niceAxisBounds pads the data range and rounds the ends to the span's order
// of magnitude so axis labels land on round numbers.
func niceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	if pad <= 0 {
		pad = 1
	}
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}
