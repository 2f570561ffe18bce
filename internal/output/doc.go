// Package output renders coverage comparisons.
//
// Three formats are supported:
//   - markdown: the pull request comment body (default)
//   - text: a fixed-width terminal table
//   - json: the structured per-file deltas
//
// Build a [Report] with [NewReport], then use [GetWriter] or [Render].
package output
