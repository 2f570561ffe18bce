// Package cli wires together the Cobra command tree for the covdiff binary.
//
// It defines the root command and its subcommands (run, compare, config,
// cache, version), binds flags, reads configuration, drives the comparison
// and returns deterministic exit codes for CI gating: 0 success, 1 coverage
// policy failed, 2 usage error, 3 GitHub authentication error, 4 runtime
// error.
package cli
