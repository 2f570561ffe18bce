package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/covdiff/internal/coverage"
	"github.com/dshills/covdiff/internal/diff"
)

func file(stmts, branches, funcs, lines float64) coverage.FileCoverage {
	fc := coverage.FileCoverage{}
	for m, pct := range map[coverage.Metric]float64{
		coverage.MetricStatements: stmts,
		coverage.MetricBranches:   branches,
		coverage.MetricFunctions:  funcs,
		coverage.MetricLines:      lines,
	} {
		fc[m] = coverage.MetricRecord{
			Total:   coverage.Num(100),
			Covered: coverage.Num(pct),
			Skipped: coverage.Num(0),
			Pct:     coverage.Num(pct),
		}
	}
	return fc
}

func testChecker() *diff.Checker {
	newReport := coverage.Report{
		coverage.TotalKey: file(80, 70, 60, 80),
		"/ws/src/a.ts":    file(80, 80, 80, 80),
		"/ws/src/new.ts":  file(100, 90, 100, 95),
		"/ws/src/same.ts": file(40, 40, 40, 40),
	}
	oldReport := coverage.Report{
		coverage.TotalKey: file(80, 70, 60, 85),
		"/ws/src/a.ts":    file(80, 80, 80, 90),
		"/ws/src/same.ts": file(40, 40, 40, 40),
	}
	return diff.New(newReport, oldReport)
}

var testMeta = Meta{CommitSHA: "abc123", Base: "main", Head: "feature"}

func TestNewReport(t *testing.T) {
	c := testChecker()
	r := NewReport(c, testMeta, true, "/ws/", nil)

	if r.RunID == "" {
		t.Error("RunID should be set")
	}
	if len(r.Files) != 2 {
		t.Fatalf("got %d files, want 2 changed files", len(r.Files))
	}
	if r.Files[0].Path != "src/a.ts" {
		t.Errorf("path prefix not trimmed: %q", r.Files[0].Path)
	}
	if r.Total == nil || r.Total.Metric(coverage.MetricLines).Delta != -5 {
		t.Errorf("Total = %+v", r.Total)
	}
	if r.Violation != nil {
		t.Error("no verdict should mean no violation")
	}

	verdict := c.Evaluate(diff.Thresholds{Delta: 1})
	r = NewReport(c, testMeta, true, "/ws/", verdict)
	if r.Violation == nil || r.Violation.Policy != diff.PolicyDelta {
		t.Errorf("Violation = %+v, want delta policy", r.Violation)
	}
}

func TestMarkdownWriter(t *testing.T) {
	r := NewReport(testChecker(), testMeta, true, "/ws/", nil)
	body, err := Render(r, "markdown")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if lines[0] != DiffMarker {
		t.Errorf("first line = %q, want marker", lines[0])
	}
	if lines[1] != "Commit SHA:abc123" {
		t.Errorf("second line = %q", lines[1])
	}
	for _, want := range []string{
		"## Test coverage results :test_tube:",
		"Code coverage diff between base branch:main and head branch: feature",
		diff.TableHeader,
		" :red_circle: | src/a.ts |",
		" :new: | **src/new.ts** | **100%**",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "same.ts") {
		t.Error("unchanged file should be omitted when only changes are listed")
	}
}

func TestMarkdownWriter_NoChanges(t *testing.T) {
	same := coverage.Report{coverage.TotalKey: file(50, 50, 50, 50), "/ws/x.ts": file(50, 50, 50, 50)}
	r := NewReport(diff.New(same, same), testMeta, true, "/ws/", nil)
	body, err := Render(r, "markdown")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	want := DiffMarker + "\nCommit SHA:abc123\n" + NoChangesMessage + "\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestTextWriter(t *testing.T) {
	c := testChecker()
	r := NewReport(c, testMeta, false, "/ws/", c.Evaluate(diff.Thresholds{Delta: 1}))
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Base: main  Head: feature", "src/same.ts", "80%(-10%)", "total", "FAILED (delta)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	r := NewReport(testChecker(), testMeta, true, "/ws/", nil)
	out, err := Render(r, "json")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["tool"] != "covdiff" {
		t.Errorf("tool = %v", parsed["tool"])
	}
	files, ok := parsed["files"].([]any)
	if !ok || len(files) != 2 {
		t.Fatalf("files = %v", parsed["files"])
	}
	first := files[0].(map[string]any)
	if first["path"] != "src/a.ts" || first["status"] != "changed" {
		t.Errorf("first file = %v", first)
	}
	if _, ok := parsed["violation"]; ok {
		t.Error("violation should be omitted when nil")
	}
}

func TestPolicyComment(t *testing.T) {
	got := PolicyComment("abc123", "Current PR reduces the test coverage percentage by 1 for some tests")
	want := DeltaMarker + "\nCommit SHA:abc123\nCurrent PR reduces the test coverage percentage by 1 for some tests"
	if got != want {
		t.Errorf("PolicyComment = %q, want %q", got, want)
	}
}

func TestGetWriter_Unknown(t *testing.T) {
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
