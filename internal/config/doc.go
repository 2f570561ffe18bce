// Package config loads and merges covdiff configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (COVDIFF_DELTA, COVDIFF_MIN_COVERAGE, etc.), then
//     the GitHub Actions input variables (INPUT_DELTA, INPUT_TOTAL_DELTA,
//     INPUT_MINCOVERAGE, ...) and runner variables (GITHUB_TOKEN,
//     GITHUB_REPOSITORY, GITHUB_EVENT_PATH, GITHUB_SHA)
//  3. Config file ($XDG_CONFIG_HOME/covdiff/config.json, or --config)
//  4. Built-in defaults
//
// A .env file in the working directory is loaded into the process
// environment before variables are read.
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
