package diff

import (
	"math"
	"sort"

	"github.com/dshills/covdiff/internal/coverage"
)

// Status classifies a file between the two reports.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
)

// MetricDelta holds the head and base percentages for one metric. Delta is
// New-Old rounded to two decimals.
type MetricDelta struct {
	New   float64 `json:"new"`
	Old   float64 `json:"old"`
	Delta float64 `json:"delta"`
}

// FileDiff is the comparison of one path across both reports.
type FileDiff struct {
	Path    string                          `json:"path"`
	Status  Status                          `json:"status"`
	Metrics map[coverage.Metric]MetricDelta `json:"metrics"`
}

// Metric returns the delta for m.
func (f FileDiff) Metric(m coverage.Metric) MetricDelta {
	return f.Metrics[m]
}

// NetDelta sums the deltas of every metric.
func (f FileDiff) NetDelta() float64 {
	var sum float64
	for _, m := range coverage.Metrics {
		sum += f.Metrics[m].Delta
	}
	return sum
}

// Checker compares a head report against a base report. Neither report is
// modified.
type Checker struct {
	newReport coverage.Report
	oldReport coverage.Report
}

// New creates a Checker for the head (newReport) and base (oldReport) reports.
func New(newReport, oldReport coverage.Report) *Checker {
	return &Checker{newReport: newReport, oldReport: oldReport}
}

// Files returns a FileDiff for every path in either report except the
// aggregate, sorted by path.
func (c *Checker) Files() []FileDiff {
	seen := make(map[string]bool, len(c.newReport)+len(c.oldReport))
	var paths []string
	for _, r := range []coverage.Report{c.newReport, c.oldReport} {
		for path := range r {
			if path == coverage.TotalKey || seen[path] {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	diffs := make([]FileDiff, 0, len(paths))
	for _, path := range paths {
		diffs = append(diffs, c.compare(path))
	}
	return diffs
}

// Changes returns the FileDiffs to report. With onlyChanges set, unchanged
// files are dropped.
func (c *Checker) Changes(onlyChanges bool) []FileDiff {
	all := c.Files()
	if !onlyChanges {
		return all
	}
	changed := all[:0]
	for _, f := range all {
		if f.Status != StatusUnchanged {
			changed = append(changed, f)
		}
	}
	return changed
}

// Total compares the aggregate records. ok is false when either report lacks
// one.
func (c *Checker) Total() (FileDiff, bool) {
	_, newOK := c.newReport.Total()
	_, oldOK := c.oldReport.Total()
	if !newOK || !oldOK {
		return FileDiff{}, false
	}
	return c.compare(coverage.TotalKey), true
}

func (c *Checker) compare(path string) FileDiff {
	newFC, newOK := c.newReport[path]
	oldFC, oldOK := c.oldReport[path]
	return compareFile(path, newFC, newOK, oldFC, oldOK)
}

// compareFile builds the FileDiff for one path. A side that is absent
// contributes zero for every metric.
func compareFile(path string, newFC coverage.FileCoverage, newOK bool, oldFC coverage.FileCoverage, oldOK bool) FileDiff {
	fd := FileDiff{
		Path:    path,
		Metrics: make(map[coverage.Metric]MetricDelta, len(coverage.Metrics)),
	}
	differs := false
	for _, m := range coverage.Metrics {
		var md MetricDelta
		if newOK {
			md.New = newFC.Pct(m)
		}
		if oldOK {
			md.Old = oldFC.Pct(m)
		}
		md.Delta = round2(md.New - md.Old)
		if md.New != md.Old {
			differs = true
		}
		fd.Metrics[m] = md
	}

	switch {
	case !oldOK:
		fd.Status = StatusAdded
	case !newOK:
		fd.Status = StatusRemoved
	case differs:
		fd.Status = StatusChanged
	default:
		fd.Status = StatusUnchanged
	}
	return fd
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}
