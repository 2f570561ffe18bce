package diff

import (
	"strings"
	"testing"

	"github.com/dshills/covdiff/internal/coverage"
)

func rec(covered, total, pct float64) coverage.MetricRecord {
	return coverage.MetricRecord{
		Total:   coverage.Num(total),
		Covered: coverage.Num(covered),
		Skipped: coverage.Num(0),
		Pct:     coverage.Num(pct),
	}
}

// file builds a FileCoverage with pct values in column order.
func file(stmts, branches, funcs, lines float64) coverage.FileCoverage {
	return coverage.FileCoverage{
		coverage.MetricStatements: rec(stmts, 100, stmts),
		coverage.MetricBranches:   rec(branches, 100, branches),
		coverage.MetricFunctions:  rec(funcs, 100, funcs),
		coverage.MetricLines:      rec(lines, 100, lines),
	}
}

func sampleReports() (coverage.Report, coverage.Report) {
	newReport := coverage.Report{
		coverage.TotalKey:   file(80, 70, 60, 80),
		"/repo/src/a.ts":    file(80, 80, 80, 80),
		"/repo/src/b.ts":    file(50, 50, 50, 50),
		"/repo/src/new.ts":  file(100, 90, 100, 95),
		"/repo/src/same.ts": file(40, 40, 40, 40),
	}
	oldReport := coverage.Report{
		coverage.TotalKey:   file(82, 70, 60, 85),
		"/repo/src/a.ts":    file(80, 80, 80, 90),
		"/repo/src/b.ts":    file(40, 50, 50, 50),
		"/repo/src/gone.ts": file(30, 20, 10, 30),
		"/repo/src/same.ts": file(40, 40, 40, 40),
	}
	return newReport, oldReport
}

func TestFiles_Classification(t *testing.T) {
	c := New(sampleReports())
	files := c.Files()

	want := []struct {
		path   string
		status Status
	}{
		{"/repo/src/a.ts", StatusChanged},
		{"/repo/src/b.ts", StatusChanged},
		{"/repo/src/gone.ts", StatusRemoved},
		{"/repo/src/new.ts", StatusAdded},
		{"/repo/src/same.ts", StatusUnchanged},
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d", len(files), len(want))
	}
	for i, w := range want {
		if files[i].Path != w.path {
			t.Errorf("files[%d].Path = %q, want %q", i, files[i].Path, w.path)
		}
		if files[i].Status != w.status {
			t.Errorf("files[%d].Status = %q, want %q", i, files[i].Status, w.status)
		}
	}
}

func TestFiles_ExcludesTotal(t *testing.T) {
	c := New(sampleReports())
	for _, f := range c.Files() {
		if f.Path == coverage.TotalKey {
			t.Fatal("Files() should not include the total entry")
		}
	}
}

func TestFiles_AddedAndRemovedDeltas(t *testing.T) {
	c := New(sampleReports())
	byPath := map[string]FileDiff{}
	for _, f := range c.Files() {
		byPath[f.Path] = f
	}

	added := byPath["/repo/src/new.ts"]
	for _, m := range coverage.Metrics {
		md := added.Metric(m)
		if md.Old != 0 || md.Delta != md.New {
			t.Errorf("added %s = %+v, want Old 0 and Delta == New", m, md)
		}
	}

	removed := byPath["/repo/src/gone.ts"]
	for _, m := range coverage.Metrics {
		md := removed.Metric(m)
		if md.New != 0 || md.Delta != -md.Old {
			t.Errorf("removed %s = %+v, want New 0 and Delta == -Old", m, md)
		}
	}
}

func TestChanges_SelfComparisonIsEmpty(t *testing.T) {
	newReport, _ := sampleReports()
	c := New(newReport, newReport)
	if got := c.Changes(true); len(got) != 0 {
		t.Errorf("Changes(true) comparing a report to itself = %d rows, want 0", len(got))
	}
	if got := c.CoverageDetails(true, ""); len(got) != 0 {
		t.Errorf("CoverageDetails(true) comparing a report to itself = %v, want empty", got)
	}
}

func TestChanges_FullListingIsSuperset(t *testing.T) {
	c := New(sampleReports())
	full := map[string]bool{}
	for _, f := range c.Changes(false) {
		full[f.Path] = true
	}
	only := c.Changes(true)
	for _, f := range only {
		if !full[f.Path] {
			t.Errorf("%s in onlyChanges listing but missing from full listing", f.Path)
		}
	}
	if len(full) != len(only)+1 {
		t.Errorf("full listing has %d rows, want %d (one unchanged file)", len(full), len(only)+1)
	}
}

func TestChanges_EqualPctDifferentCounts(t *testing.T) {
	newReport := coverage.Report{"a.ts": file(50, 50, 50, 50)}
	oldReport := coverage.Report{"a.ts": file(50, 50, 50, 50)}
	// Same pct computed from different counts.
	oldReport["a.ts"][coverage.MetricLines] = rec(2, 4, 50)

	c := New(newReport, oldReport)
	if got := c.Changes(true); len(got) != 0 {
		t.Errorf("equal pct should compare as unchanged, got %+v", got)
	}
}

func TestChanges_Deterministic(t *testing.T) {
	first := strings.Join(New(sampleReports()).CoverageDetails(false, "/repo/"), "\n")
	for i := 0; i < 10; i++ {
		got := strings.Join(New(sampleReports()).CoverageDetails(false, "/repo/"), "\n")
		if got != first {
			t.Fatalf("run %d produced different output:\n%s\nwant:\n%s", i, got, first)
		}
	}
}

func TestChecker_DoesNotMutateReports(t *testing.T) {
	newReport, oldReport := sampleReports()
	c := New(newReport, oldReport)
	_ = c.CoverageDetails(false, "")
	_ = c.ShouldFallBelowDelta(0, nil)
	if len(newReport) != 5 || len(oldReport) != 5 {
		t.Errorf("reports changed size: new=%d old=%d", len(newReport), len(oldReport))
	}
	if newReport["/repo/src/a.ts"].Pct(coverage.MetricLines) != 80 {
		t.Error("head report value changed")
	}
}

func TestTotal(t *testing.T) {
	c := New(sampleReports())
	total, ok := c.Total()
	if !ok {
		t.Fatal("Total() should be available")
	}
	if got := total.Metric(coverage.MetricLines).Delta; got != -5 {
		t.Errorf("total lines delta = %v, want -5", got)
	}

	c = New(coverage.Report{}, coverage.Report{})
	if _, ok := c.Total(); ok {
		t.Error("Total() without total entries should not be ok")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{90 - 80.1, 9.9},
		{0.1 + 0.2, 0.3},
		{-0.001, 0},
		{-10, -10},
		{33.333333, 33.33},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
