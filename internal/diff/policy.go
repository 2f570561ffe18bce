package diff

import (
	"fmt"
	"strconv"

	"github.com/dshills/covdiff/internal/coverage"
)

// Thresholds configures both gating policies.
//
// MinCoverage <= 0 disables the increase policy. TotalDelta nil leaves the
// aggregate record out of the delta policy. Delta 0 tolerates no drop at all.
type Thresholds struct {
	Delta       float64  `json:"delta"`
	TotalDelta  *float64 `json:"totalDelta,omitempty"`
	MinCoverage float64  `json:"minCoverage"`
	MinIncrease float64  `json:"minIncrease"`
}

// Validate rejects thresholds that cannot be meaningfully applied.
func (t Thresholds) Validate() error {
	if t.Delta < 0 {
		return fmt.Errorf("delta must not be negative, got %v", t.Delta)
	}
	if t.TotalDelta != nil && *t.TotalDelta < 0 {
		return fmt.Errorf("totalDelta must not be negative, got %v", *t.TotalDelta)
	}
	if t.MinCoverage > 100 {
		return fmt.Errorf("minCoverage must be at most 100, got %v", t.MinCoverage)
	}
	if t.MinIncrease < 0 {
		return fmt.Errorf("minIncrease must not be negative, got %v", t.MinIncrease)
	}
	return nil
}

// Policy names a gating policy.
type Policy string

const (
	PolicyMinIncrease Policy = "min-increase"
	PolicyDelta       Policy = "delta"
)

// PolicyError reports a violated policy.
type PolicyError struct {
	Policy  Policy
	Message string
}

func (e *PolicyError) Error() string {
	return e.Message
}

// ShouldIncreaseCoverage reports whether any aggregate metric is below
// minCoverage while also rising by less than minIncrease. It is always false
// when minCoverage <= 0.
func (c *Checker) ShouldIncreaseCoverage(minCoverage, minIncrease float64) bool {
	if minCoverage <= 0 {
		return false
	}
	total, ok := c.Total()
	if !ok {
		return false
	}
	for _, m := range coverage.Metrics {
		md := total.Metrics[m]
		if md.New < minCoverage && md.Delta < minIncrease {
			return true
		}
	}
	return false
}

// ShouldFallBelowDelta reports whether any metric of any file drops by more
// than delta percentage points, or, when totalDelta is non-nil, whether any
// aggregate metric drops by more than *totalDelta. Removed files are not
// considered.
func (c *Checker) ShouldFallBelowDelta(delta float64, totalDelta *float64) bool {
	for _, f := range c.Files() {
		if f.Status == StatusRemoved {
			continue
		}
		if dropsBy(f, delta) {
			return true
		}
	}
	if totalDelta == nil {
		return false
	}
	total, ok := c.Total()
	return ok && dropsBy(total, *totalDelta)
}

func dropsBy(f FileDiff, tolerance float64) bool {
	for _, m := range coverage.Metrics {
		if -f.Metrics[m].Delta > tolerance {
			return true
		}
	}
	return false
}

// Evaluate applies both policies, increase first. It returns a *PolicyError
// for the first violation found, or nil.
func (c *Checker) Evaluate(t Thresholds) error {
	if c.ShouldIncreaseCoverage(t.MinCoverage, t.MinIncrease) {
		return &PolicyError{
			Policy: PolicyMinIncrease,
			Message: fmt.Sprintf("Current PR doesn't meet the required coverage increase of %s%% and the repository has not reached a minimum of %s%% of total coverage",
				formatThreshold(t.MinIncrease), formatThreshold(t.MinCoverage)),
		}
	}
	if c.ShouldFallBelowDelta(t.Delta, t.TotalDelta) {
		return &PolicyError{
			Policy:  PolicyDelta,
			Message: fmt.Sprintf("Current PR reduces the test coverage percentage by %s for some tests", formatThreshold(t.Delta)),
		}
	}
	return nil
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
