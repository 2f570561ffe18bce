// Covdiff compares test coverage between a pull request and its base branch.
//
// It runs the configured coverage command on the head branch, checks out the
// base branch and runs it again, then posts a per-file table of coverage
// deltas as a pull request comment. Deterministic exit codes let CI fail the
// build when coverage drops past the configured thresholds.
//
// Usage:
//
//	covdiff run                          # inside a pull_request workflow
//	covdiff run --base main --dry-run    # locally, print the comment
//	covdiff compare --new a.json --old b.json
//	covdiff config show
//	covdiff cache clear
package main
