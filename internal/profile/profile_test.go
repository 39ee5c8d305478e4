package profile

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plotloom/plotloom-cli/internal/dataset"
)

func loadFixture(t *testing.T, csv string) *dataset.Frame {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f, err := dataset.Load(path, dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return f
}

const scoresCSV = `Group,Score,Hours
A,10,1
A,20,2
A,30,3
A,40,4
A,50,5
B,12,6
B,24,7
B,36,8
B,48,9
B,60,10
`

func TestProfileSchemaAndStats(t *testing.T) {
	f := loadFixture(t, scoresCSV)
	rep := Profile(f, DefaultOptions())

	if len(rep.Cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(rep.Cols))
	}
	var score *ColumnSummary
	for i := range rep.Cols {
		if rep.Cols[i].Name == "Score" {
			score = &rep.Cols[i]
		}
	}
	if score == nil {
		t.Fatal("Score column missing from report")
	}
	if score.Kind != dataset.KindNumeric {
		t.Fatalf("Score kind = %s, want numeric", score.Kind)
	}
	if score.Min != 10 || score.Max != 60 {
		t.Errorf("Score min/max = %g/%g, want 10/60", score.Min, score.Max)
	}
	if math.Abs(score.Mean-33) > 1e-9 {
		t.Errorf("Score mean = %g, want 33", score.Mean)
	}
	if score.Std <= 0 {
		t.Errorf("Score std should be positive, got %g", score.Std)
	}

	var group *ColumnSummary
	for i := range rep.Cols {
		if rep.Cols[i].Name == "Group" {
			group = &rep.Cols[i]
		}
	}
	if group == nil || group.Kind != dataset.KindCategorical {
		t.Fatalf("Group should be categorical, got %+v", group)
	}
	if group.Unique != 2 || len(group.TopValues) != 2 {
		t.Errorf("Group unique=%d top=%d, want 2/2", group.Unique, len(group.TopValues))
	}
}

func TestProfileGroupByAndCorrelations(t *testing.T) {
	f := loadFixture(t, scoresCSV)
	opt := DefaultOptions()
	opt.GroupBy = []string{"Group"}
	opt.Correlations = true
	rep := Profile(f, opt)

	if len(rep.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rep.Groups))
	}
	for _, g := range rep.Groups {
		if g.Size != 5 {
			t.Errorf("group %s size = %d, want 5", g.Key, g.Size)
		}
		m, ok := g.Metrics["Score"]
		if !ok {
			t.Fatalf("group %s missing Score metric", g.Key)
		}
		if m.Count != 5 {
			t.Errorf("group %s Score count = %d, want 5", g.Key, m.Count)
		}
		// Score is a linear function of Hours within each group.
		if len(g.CorrPairs) == 0 || math.Abs(g.CorrPairs[0].R-1) > 1e-9 {
			t.Errorf("group %s expected perfect Score~Hours correlation, got %+v", g.Key, g.CorrPairs)
		}
	}
	if rep.Corr == nil {
		t.Fatal("expected overall correlation matrix")
	}
	pairs := rep.Corr.TopPairs(5)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 correlation pair, got %d", len(pairs))
	}
	if pairs[0].R < 0.5 {
		t.Errorf("Score~Hours r = %.3f, want strongly positive", pairs[0].R)
	}
}

func TestProfileOutliers(t *testing.T) {
	csv := "Value\n10\n11\n9\n10\n12\n10\n11\n9\n10\n500\n"
	f := loadFixture(t, csv)
	rep := Profile(f, DefaultOptions())
	c := rep.Cols[0]
	if c.OutliersCount != 1 {
		t.Errorf("outliers = %d, want 1 (the 500)", c.OutliersCount)
	}
	if c.OutliersMaxAbsZ <= 3.5 {
		t.Errorf("max |z| = %g, want > 3.5", c.OutliersMaxAbsZ)
	}
}

func TestMarkdownSections(t *testing.T) {
	f := loadFixture(t, scoresCSV)
	opt := DefaultOptions()
	opt.GroupBy = []string{"Group"}
	opt.Correlations = true
	md := Profile(f, opt).Markdown()

	for _, want := range []string{
		"[DATASET SUMMARY]",
		"[SCHEMA]",
		"[GROUP-BY SUMMARY]",
		"[PER-GROUP CORRELATIONS]",
		"[CORRELATIONS]",
		"[HEAD AND SAMPLE ROWS]",
		"Group=A (n=5)",
		"Score ~ Hours",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, md)
		}
	}
	if strings.Contains(md, "[NOTES]") {
		t.Errorf("unexpected notes section:\n%s", md)
	}
}

func TestMarkdownNotesOnRowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("N\n")
	for i := 0; i < 20; i++ {
		b.WriteString("1\n")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "cap.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	opt := dataset.DefaultOptions()
	opt.MaxRows = 10
	f, err := dataset.Load(path, opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	md := Profile(f, DefaultOptions()).Markdown()
	if !strings.Contains(md, "[NOTES]") {
		t.Errorf("expected notes about row cap:\n%s", md)
	}
}

func TestQuantileAndMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 {
		t.Errorf("median = %g, want 3", med)
	}
	if mad != 1 {
		t.Errorf("mad = %g, want 1", mad)
	}
	if q := quantile([]float64{1, 2, 3, 4}, 0.5); q != 2.5 {
		t.Errorf("quantile 0.5 = %g, want 2.5", q)
	}
}
