package coverage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidReport is returned when a report lacks a well-formed total entry.
var ErrInvalidReport = errors.New("invalid coverage report")

// Validate checks that the total entry exists and that every field of every
// metric in it is numeric. It stops at the first offending field.
func Validate(r Report) error {
	total, ok := r.Total()
	if !ok {
		return fmt.Errorf("%w: missing %q entry", ErrInvalidReport, TotalKey)
	}
	for _, m := range Metrics {
		rec, ok := total[m]
		if !ok {
			return fmt.Errorf("%w: %s.%s is missing", ErrInvalidReport, TotalKey, m)
		}
		fields := []struct {
			name string
			n    Number
		}{
			{"total", rec.Total},
			{"covered", rec.Covered},
			{"skipped", rec.Skipped},
			{"pct", rec.Pct},
		}
		for _, f := range fields {
			if !f.n.Numeric {
				return fmt.Errorf("%w: %s.%s.%s is not a number", ErrInvalidReport, TotalKey, m, f.name)
			}
		}
	}
	return nil
}

// IsValid reports whether Validate accepts r.
func IsValid(r Report) bool {
	return Validate(r) == nil
}

// Parse decodes a coverage-summary document.
func Parse(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing coverage summary: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("parsing coverage summary: document is null")
	}
	return r, nil
}

// Load reads and decodes the coverage-summary file at path.
func Load(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coverage summary: %w", err)
	}
	return Parse(data)
}
