package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/covdiff/internal/diff"
)

// Comment markers. A posted body starts with one of these so later runs can
// find and update it.
const (
	DiffMarker  = "<!-- codeCoverageDiffComment -->"
	DeltaMarker = "<!-- codeCoverageDeltaComment -->"
)

// NoChangesMessage replaces the table when no file changed.
const NoChangesMessage = "No changes to code coverage between the base branch and the head branch"

// Meta describes where the two reports came from.
type Meta struct {
	CommitSHA string `json:"commitSha,omitempty"`
	Base      string `json:"base,omitempty"`
	Head      string `json:"head,omitempty"`
}

// Violation is a failed policy.
type Violation struct {
	Policy  diff.Policy `json:"policy"`
	Message string      `json:"message"`
}

// Report is the rendered result of one comparison.
type Report struct {
	Tool      string          `json:"tool"`
	RunID     string          `json:"runId"`
	Meta      Meta            `json:"meta"`
	Files     []diff.FileDiff `json:"files"`
	Total     *diff.FileDiff  `json:"total,omitempty"`
	Details   []string        `json:"-"`
	Violation *Violation      `json:"violation,omitempty"`
}

// NewReport renders the checker's rows. verdict is the result of
// [diff.Checker.Evaluate]; errors other than *diff.PolicyError are ignored.
func NewReport(c *diff.Checker, meta Meta, onlyChanges bool, pathPrefix string, verdict error) *Report {
	r := &Report{
		Tool:    "covdiff",
		RunID:   uuid.NewString(),
		Meta:    meta,
		Files:   c.Changes(onlyChanges),
		Details: c.CoverageDetails(onlyChanges, pathPrefix),
	}
	for i := range r.Files {
		r.Files[i].Path = strings.TrimPrefix(r.Files[i].Path, pathPrefix)
	}
	if total, ok := c.Total(); ok {
		r.Total = &total
	}
	var pe *diff.PolicyError
	if errors.As(verdict, &pe) {
		r.Violation = &Violation{Policy: pe.Policy, Message: pe.Message}
	}
	return r
}

// PolicyComment returns the comment body posted when a policy fails.
func PolicyComment(commitSHA, message string) string {
	return fmt.Sprintf("%s\nCommit SHA:%s\n%s", DeltaMarker, commitSHA, message)
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "markdown", "":
		return &MarkdownWriter{}, nil
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Render returns the report in the given format as a string.
func Render(report *Report, format string) (string, error) {
	writer, err := GetWriter(format)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := writer.Write(&sb, report); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
