package chartspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotloom/plotloom-cli/internal/dataset"
)

func loadFrame(t *testing.T, name, csv string) *dataset.Frame {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	f, err := dataset.Load(path, dataset.DefaultOptions())
	require.NoError(t, err)
	return f
}

const salesCSV = `Region,Revenue,Units,Date
North,100,10,2024-01-01
South,80,8,2024-01-01
North,120,12,2024-02-01
South,90,9,2024-02-01
North,140,14,2024-03-01
South,70,7,2024-03-01
`

func salesFrames(t *testing.T) map[string]*dataset.Frame {
	t.Helper()
	return map[string]*dataset.Frame{"sales.csv": loadFrame(t, "sales.csv", salesCSV)}
}

func TestParseSpecScalarY(t *testing.T) {
	s, err := ParseSpec(`{"type":"LINE","dataset":"d","x":"Date","y":"Revenue"}`)
	require.NoError(t, err)
	assert.Equal(t, "line", s.Type)
	assert.Equal(t, []string{"Revenue"}, s.Y)

	s, err = ParseSpec(`{"type":"bar","dataset":"d","x":"Region","y":["Revenue","Units"]}`)
	require.NoError(t, err)
	assert.Len(t, s.Y, 2)

	_, err = ParseSpec(`{"type":"bar","y":{"a":1}}`)
	assert.Error(t, err)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	s := &Spec{Type: "donut", Aggregate: "mode", TopN: -1}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chart type")
	assert.Contains(t, err.Error(), "missing x column")
	assert.Contains(t, err.Error(), "unknown aggregate")
	assert.Contains(t, err.Error(), "top_n")
}

func TestBindLineTimeX(t *testing.T) {
	b, err := Bind(&Spec{Type: TypeLine, Dataset: "sales.csv", X: "Date", Y: []string{"Revenue"}}, salesFrames(t))
	require.NoError(t, err)
	assert.True(t, b.TimeX)
	require.Len(t, b.Series, 1)
	require.Len(t, b.Series[0].T, 6)
	for i := 1; i < len(b.Series[0].T); i++ {
		assert.False(t, b.Series[0].T[i].Before(b.Series[0].T[i-1]), "points must be time-sorted")
	}
}

func TestBindLineGroupBy(t *testing.T) {
	b, err := Bind(&Spec{Type: TypeLine, Dataset: "sales.csv", X: "Date", Y: []string{"Revenue"}, GroupBy: "Region"}, salesFrames(t))
	require.NoError(t, err)
	require.Len(t, b.Series, 2)
	names := []string{b.Series[0].Name, b.Series[1].Name}
	assert.ElementsMatch(t, []string{"North", "South"}, names)
	for _, s := range b.Series {
		assert.Len(t, s.Y, 3)
	}
}

func TestBindBarAggregates(t *testing.T) {
	frames := salesFrames(t)

	b, err := Bind(&Spec{Type: TypeBar, Dataset: "sales.csv", X: "Region", Y: []string{"Revenue"}, Aggregate: AggSum}, frames)
	require.NoError(t, err)
	require.Equal(t, []string{"North", "South"}, b.Categories, "sorted by value desc")
	require.Len(t, b.Bars, 1)
	assert.Equal(t, []float64{360, 240}, b.Bars[0].Values)
	assert.Equal(t, "sum(Revenue)", b.YLabel)

	b, err = Bind(&Spec{Type: TypeBar, Dataset: "sales.csv", X: "Region"}, frames)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, b.Bars[0].Values)
	assert.Equal(t, "count", b.YLabel)

	b, err = Bind(&Spec{Type: TypeBar, Dataset: "sales.csv", X: "Region", Y: []string{"Revenue"}}, frames)
	require.NoError(t, err)
	assert.InDelta(t, 120, b.Bars[0].Values[0], 1e-9, "default aggregate is mean")
}

func TestBindBarTopN(t *testing.T) {
	csv := "K,V\na,1\nb,5\nc,3\nd,4\ne,2\n"
	frames := map[string]*dataset.Frame{"k.csv": loadFrame(t, "k.csv", csv)}
	b, err := Bind(&Spec{Type: TypeBar, Dataset: "k.csv", X: "K", Y: []string{"V"}, Aggregate: AggSum, TopN: 2}, frames)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, b.Categories)
}

func TestBindHistogram(t *testing.T) {
	csv := "V\n1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
	frames := map[string]*dataset.Frame{"v.csv": loadFrame(t, "v.csv", csv)}
	b, err := Bind(&Spec{Type: TypeHistogram, Dataset: "v.csv", X: "V", Bins: 3}, frames)
	require.NoError(t, err)
	require.Len(t, b.Categories, 3)
	require.Len(t, b.Bars, 1)
	var total float64
	for _, v := range b.Bars[0].Values {
		total += v
	}
	assert.Equal(t, float64(10), total)
	assert.Equal(t, "count", b.YLabel)
}

func TestBindHistogramDefaultBins(t *testing.T) {
	csv := "V\n"
	for i := 0; i < 50; i++ {
		csv += "5\n"
	}
	frames := map[string]*dataset.Frame{"v.csv": loadFrame(t, "v.csv", csv)}
	b, err := Bind(&Spec{Type: TypeHistogram, Dataset: "v.csv", X: "V"}, frames)
	require.NoError(t, err)
	require.Len(t, b.Categories, 1, "degenerate range collapses to one bin")
	assert.Equal(t, float64(50), b.Bars[0].Values[0])
}

func TestBindPie(t *testing.T) {
	b, err := Bind(&Spec{Type: TypePie, Dataset: "sales.csv", X: "Region", Y: []string{"Revenue"}}, salesFrames(t))
	require.NoError(t, err)
	require.Len(t, b.Slices, 2)
	assert.Equal(t, "North", b.Slices[0].Label)
	assert.Equal(t, float64(360), b.Slices[0].Value)
}

func TestBindPieOtherBucket(t *testing.T) {
	csv := "K\n"
	for i := 0; i < 12; i++ {
		csv += string(rune('a'+i)) + "\n"
	}
	frames := map[string]*dataset.Frame{"k.csv": loadFrame(t, "k.csv", csv)}
	b, err := Bind(&Spec{Type: TypePie, Dataset: "k.csv", X: "K"}, frames)
	require.NoError(t, err)
	last := b.Slices[len(b.Slices)-1]
	assert.Equal(t, "Other", last.Label)
	assert.Equal(t, float64(4), last.Value)
}

func TestBindErrors(t *testing.T) {
	frames := salesFrames(t)

	_, err := Bind(&Spec{Type: TypeLine, Dataset: "nope.csv", X: "Date", Y: []string{"Revenue"}}, frames)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset")
	assert.Contains(t, err.Error(), "sales.csv")

	_, err = Bind(&Spec{Type: TypeLine, Dataset: "sales.csv", X: "Date", Y: []string{"Rev"}}, frames)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown y column")
	assert.Contains(t, err.Error(), "Revenue")

	_, err = Bind(&Spec{Type: TypeLine, Dataset: "sales.csv", X: "Region", Y: []string{"Revenue"}}, frames)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric or datetime")

	_, err = Bind(&Spec{Type: TypeScatter, Dataset: "sales.csv", X: "Revenue", Y: []string{"Region"}}, frames)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need numeric")
}

func TestBindSingleFrameFallback(t *testing.T) {
	b, err := Bind(&Spec{Type: TypeBar, X: "Region"}, salesFrames(t))
	require.NoError(t, err)
	assert.NotEmpty(t, b.Categories)
}

func TestDefaultTitles(t *testing.T) {
	b, err := Bind(&Spec{Type: TypeHistogram, Dataset: "sales.csv", X: "Revenue"}, salesFrames(t))
	require.NoError(t, err)
	assert.Equal(t, "Distribution of Revenue", b.Title)

	b, err = Bind(&Spec{Type: TypeLine, Dataset: "sales.csv", X: "Date", Y: []string{"Revenue"}}, salesFrames(t))
	require.NoError(t, err)
	assert.Equal(t, "Revenue by Date", b.Title)
}
