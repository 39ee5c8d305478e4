package render

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Dark palette. Charts are meant to be dropped into dark terminals and docs,
// so the background stays near-black with a slightly lifted canvas.
var (
	colorBackground = drawing.ColorFromHex("121212")
	colorCanvas     = drawing.ColorFromHex("1e1e1e")
	colorText       = drawing.ColorFromHex("e0e0e0")
	colorAxis       = drawing.ColorFromHex("555555")
	colorGrid       = drawing.ColorFromHex("2e2e2e")

	seriesPalette = []drawing.Color{
		drawing.ColorFromHex("4fc3f7"), // light blue
		drawing.ColorFromHex("ffb74d"), // orange
		drawing.ColorFromHex("81c784"), // green
		drawing.ColorFromHex("e57373"), // red
		drawing.ColorFromHex("ba68c8"), // purple
		drawing.ColorFromHex("ffd54f"), // amber
		drawing.ColorFromHex("4db6ac"), // teal
		drawing.ColorFromHex("f06292"), // pink
	}
)

func seriesColor(i int) drawing.Color {
	return seriesPalette[i%len(seriesPalette)]
}

func backgroundStyle() chart.Style {
	return chart.Style{
		FillColor: colorBackground,
		Padding:   chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 32},
	}
}

func canvasStyle() chart.Style {
	return chart.Style{FillColor: colorCanvas}
}

func titleStyle() chart.Style {
	return chart.Style{FontColor: colorText, FontSize: 13}
}

func axisStyle() chart.Style {
	return chart.Style{StrokeColor: colorAxis, FontColor: colorText}
}

func gridStyle() chart.Style {
	return chart.Style{StrokeColor: colorGrid, StrokeWidth: 1}
}

func lineStyle(i int) chart.Style {
	return chart.Style{StrokeColor: seriesColor(i), StrokeWidth: 2}
}

// pointStyle renders dots only, no connecting stroke.
func pointStyle(i int) chart.Style {
	return chart.Style{StrokeWidth: 0, DotWidth: 4, DotColor: seriesColor(i)}
}

func barStyle(i int) chart.Style {
	c := seriesColor(i)
	return chart.Style{FillColor: c, StrokeColor: c, FontColor: colorText}
}
