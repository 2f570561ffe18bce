package output

import (
	"io"

	"github.com/dshills/covdiff/internal/diff"
)

// MarkdownWriter renders the pull request comment body.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	ew.println(DiffMarker)
	ew.printf("Commit SHA:%s\n", report.Meta.CommitSHA)

	if len(report.Details) == 0 {
		ew.println(NoChangesMessage)
		return ew.err
	}

	ew.println("## Test coverage results :test_tube:")
	ew.println("")
	ew.printf("Code coverage diff between base branch:%s and head branch: %s\n\n", report.Meta.Base, report.Meta.Head)
	ew.println(diff.TableHeader)
	for _, row := range report.Details {
		ew.println(row)
	}
	return ew.err
}
