package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const salesCSV = `Region,Revenue (USD),Date,Share,Note
North,1200.50,02/01/2024,10%,first quarter revenue looked strong across the board with every store beating plan
South,980,03/01/2024,8%,softer demand across coastal stores dragged the quarter well below the initial forecast
North,"1.050,25",04/01/2024,9%,locale formatted figures arrive from the EU reporting system and need separate handling
East,1500,05/01/2024,,share figure missing because the regional report arrived after the cutoff this month
South,760,06/01/2024,6%,clearance pricing pulled the average selling price down for the entire southern region
`

func TestLoadCSVKindsAndUnits(t *testing.T) {
	path := writeTemp(t, "sales.csv", salesCSV)
	f, err := LoadCSV(path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if f.Len() != 5 || f.Rows != 5 {
		t.Fatalf("rows: got %d/%d, want 5/5", f.Len(), f.Rows)
	}
	region, ok := f.Column("region")
	if !ok {
		t.Fatal("region column not found (case-insensitive lookup)")
	}
	if region.Kind != KindCategorical {
		t.Errorf("region kind = %s, want categorical", region.Kind)
	}
	rev, _ := f.Column("Revenue")
	if rev == nil || rev.Kind != KindNumeric {
		t.Fatalf("revenue should be numeric, got %+v", rev)
	}
	if rev.Unit != "USD" {
		t.Errorf("revenue unit = %q, want USD", rev.Unit)
	}
	vals := rev.NumericValues()
	if len(vals) != 5 {
		t.Fatalf("revenue values: %d, want 5", len(vals))
	}
	// "1.050,25" must parse with comma decimal separator
	if math.Abs(vals[2]-1050.25) > 1e-9 {
		t.Errorf("locale numeric parsed as %v, want 1050.25", vals[2])
	}
	date, _ := f.Column("Date")
	if date == nil || date.Kind != KindDatetime {
		t.Fatalf("date should be datetime, got %+v", date)
	}
	// day-first: 02/01/2024 is 2 January
	if got := date.Times[0]; got.Month() != 1 || got.Day() != 2 {
		t.Errorf("day-first date parse wrong: %v", got)
	}
	share, _ := f.Column("Share")
	if share == nil || share.Kind != KindNumeric || share.Unit != "%" {
		t.Fatalf("share should be numeric %%, got %+v", share)
	}
	if share.Missing() != 1 || share.NonNull() != 4 {
		t.Errorf("share missing=%d nonnull=%d", share.Missing(), share.NonNull())
	}
	note, _ := f.Column("Note")
	if note == nil || note.Kind != KindText {
		t.Errorf("note should be text, got %+v", note)
	}
}

func TestLoadCSVRowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("x\n")
	for i := 0; i < 20; i++ {
		b.WriteString("1\n")
	}
	path := writeTemp(t, "many.csv", b.String())
	opt := DefaultOptions()
	opt.MaxRows = 10
	f, err := LoadCSV(path, opt)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 10 || f.Rows != 20 {
		t.Errorf("cap: got %d/%d, want 10/20", f.Len(), f.Rows)
	}
	if len(f.Warnings) == 0 {
		t.Error("expected a row-cap warning")
	}
}

func TestLoadTSV(t *testing.T) {
	path := writeTemp(t, "data.tsv", "a\tb\n1\t2\n3\t4\n")
	f, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Cols) != 2 || f.Len() != 2 {
		t.Errorf("tsv shape: %d cols %d rows", len(f.Cols), f.Len())
	}
	a, _ := f.Column("a")
	if a == nil || a.Kind != KindNumeric {
		t.Errorf("tsv column a should be numeric")
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := Load("data.xls", DefaultOptions()); err == nil || !strings.Contains(err.Error(), "convert") {
		t.Errorf("expected convert-to-csv guidance for .xls, got %v", err)
	}
	if _, err := Load("data.parquet", DefaultOptions()); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestSplitUnits(t *testing.T) {
	cases := []struct {
		in, name, unit string
	}{
		{"Alpha (%)", "Alpha", "%"},
		{"Mass [mg/L]", "Mass", "mg/L"},
		{"Speed_Mbps", "Speed", "Mbps"},
		{"Plain", "Plain", ""},
	}
	for _, c := range cases {
		n, u := splitUnits(c.in)
		if n != c.name || u != c.unit {
			t.Errorf("splitUnits(%q) = (%q, %q), want (%q, %q)", c.in, n, u, c.name, c.unit)
		}
	}
}

func TestParseNumericLocales(t *testing.T) {
	opt := Options{}
	cases := []struct {
		in   string
		want float64
	}{
		{"1200.5", 1200.5},
		{"1.050,25", 1050.25},
		{"1,050.25", 1050.25},
		{"10%", 10},
		{"1 000", 1000},
		{"-3.5e2", -350},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, opt)
		if !ok || math.Abs(got-c.want) > 1e-9 {
			t.Errorf("parseNumeric(%q) = %v ok=%v, want %v", c.in, got, ok, c.want)
		}
	}
	if _, ok := parseNumeric("not a number", opt); ok {
		t.Error("text should not parse as numeric")
	}
}
