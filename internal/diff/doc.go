// Package diff compares a head-branch coverage report against a base-branch
// report.
//
// A [Checker] holds both reports read-only and derives everything else on
// demand: per-file [FileDiff] rows classified as added, removed, changed, or
// unchanged; formatted table rows for a PR comment; and the two gating
// policies. [Checker.ShouldIncreaseCoverage] flags a PR that neither reaches a
// minimum total coverage nor raises it by a minimum amount, and
// [Checker.ShouldFallBelowDelta] flags any metric that drops by more than a
// tolerance. [Checker.Evaluate] applies both against a [Thresholds] value,
// increase check first.
package diff
