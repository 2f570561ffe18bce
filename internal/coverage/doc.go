// Package coverage models a normalized coverage summary.
//
// A [Report] maps source file paths to a [FileCoverage], which in turn maps
// each [Metric] (statements, branches, functions, lines) to a [MetricRecord]
// of total, covered, skipped, and pct values. The special [TotalKey] entry
// holds the repository-wide rollup in the same shape.
//
// The JSON shape accepted by [Parse] is the de-facto coverage-summary format
// produced by istanbul/nyc's json-summary reporter. Fields are decoded
// leniently into [Number] values so that [Validate] can report a
// non-numeric field instead of failing the decode outright.
package coverage
