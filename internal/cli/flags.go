package cli

import (
	"github.com/spf13/pflag"
)

// overrideKeys maps flag names to the config keys they override.
var overrideKeys = map[string]string{
	"run-command":          "runCommand",
	"after-switch-command": "afterSwitchCommand",
	"summary":              "summaryPath",
	"full":                 "fullCoverageDiff",
	"same-comment":         "useSameComment",
	"format":               "format",
	"repo":                 "repository",
	"delta":                "delta",
	"total-delta":          "totalDelta",
	"min-coverage":         "minCoverage",
	"min-increase":         "minIncrease",
	"log-level":            "logLevel",
	"log-format":           "logFormat",
	"cache":                "cacheEnabled",
}

func addThresholdFlags(fs *pflag.FlagSet) {
	fs.Float64("delta", 0, "Maximum allowed drop, in percentage points, of any metric of any file")
	fs.String("total-delta", "", "Maximum allowed drop of the total metrics (unset: total not checked)")
	fs.Float64("min-coverage", 0, "Total coverage below which each PR must raise coverage (0 disables)")
	fs.Float64("min-increase", 0, "Required increase while total coverage is below --min-coverage")
}

func addReportFlags(fs *pflag.FlagSet) {
	fs.Bool("full", false, "List unchanged files as well")
	fs.String("format", "", "Output format (markdown, text, json)")
}

// buildOverrides collects the explicitly set flags as config overrides.
func buildOverrides(fs *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := overrideKeys[f.Name]; ok {
			m[key] = f.Value.String()
		}
	})
	return m
}
