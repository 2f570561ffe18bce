package output

import (
	"io"
	"strings"

	"github.com/dshills/covdiff/internal/coverage"
	"github.com/dshills/covdiff/internal/diff"
)

// TextWriter outputs a terminal-friendly report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.println("Coverage diff")
	if report.Meta.Base != "" || report.Meta.Head != "" {
		ew.printf("Base: %s  Head: %s\n", report.Meta.Base, report.Meta.Head)
	}
	ew.println(strings.Repeat("─", 72))

	if len(report.Files) == 0 {
		ew.println(NoChangesMessage)
	} else {
		ew.printf("%-10s %-30s %9s %9s %9s %9s\n", "STATUS", "FILE", "STMTS", "BRANCH", "FUNCS", "LINES")
		for _, f := range report.Files {
			t.row(ew, string(f.Status), f)
		}
	}

	if report.Total != nil {
		ew.println(strings.Repeat("─", 72))
		t.row(ew, "total", *report.Total)
	}

	if report.Violation != nil {
		ew.printf("\nFAILED (%s): %s\n", report.Violation.Policy, report.Violation.Message)
	}
	return ew.err
}

func (t *TextWriter) row(ew *errWriter, label string, f diff.FileDiff) {
	ew.printf("%-10s %-30s", label, truncate(f.Path, 30))
	for _, m := range coverage.Metrics {
		md := f.Metric(m)
		cell := diff.FormatPct(md.New)
		switch f.Status {
		case diff.StatusRemoved:
			cell = diff.FormatPct(md.Old)
		case diff.StatusChanged:
			if md.Delta != 0 {
				cell += "(" + diff.FormatDelta(md.Delta) + ")"
			}
		}
		ew.printf(" %9s", cell)
	}
	ew.println("")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}
