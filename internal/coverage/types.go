package coverage

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// TotalKey is the report key holding the aggregate record.
const TotalKey = "total"

// Metric names one coverage dimension.
type Metric string

const (
	MetricStatements Metric = "statements"
	MetricBranches   Metric = "branches"
	MetricFunctions  Metric = "functions"
	MetricLines      Metric = "lines"
)

// Metrics lists every metric in report column order.
var Metrics = []Metric{MetricStatements, MetricBranches, MetricFunctions, MetricLines}

// Number is a JSON value that may or may not be numeric. Numeric is false for
// null, missing, boolean, or unparseable string values such as "Unknown".
type Number struct {
	Value   float64
	Numeric bool
}

// Num returns a numeric Number.
func Num(v float64) Number {
	return Number{Value: v, Numeric: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Number{}
	switch v := raw.(type) {
	case float64:
		n.Value, n.Numeric = v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n.Value, n.Numeric = f, true
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Numeric {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// MetricRecord is one coverage dimension for a file or the aggregate.
// Pct is computed upstream and trusted as-is.
type MetricRecord struct {
	Total   Number `json:"total"`
	Covered Number `json:"covered"`
	Skipped Number `json:"skipped"`
	Pct     Number `json:"pct"`
}

// FileCoverage maps metric names to their records for one source file.
type FileCoverage map[Metric]MetricRecord

// Pct returns the percentage for m, or 0 when the metric is missing or its
// pct is not numeric.
func (fc FileCoverage) Pct(m Metric) float64 {
	rec, ok := fc[m]
	if !ok || !rec.Pct.Numeric {
		return 0
	}
	return rec.Pct.Value
}

// Report maps file paths, plus TotalKey, to their coverage.
type Report map[string]FileCoverage

// Total returns the aggregate entry.
func (r Report) Total() (FileCoverage, bool) {
	fc, ok := r[TotalKey]
	return fc, ok
}

// Files returns every file path except TotalKey, sorted ascending.
func (r Report) Files() []string {
	files := make([]string, 0, len(r))
	for path := range r {
		if path == TotalKey {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}
