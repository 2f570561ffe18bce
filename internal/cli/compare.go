package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/covdiff/internal/coverage"
	"github.com/dshills/covdiff/internal/diff"
	"github.com/dshills/covdiff/internal/output"
)

func newCompareCmd() *cobra.Command {
	var newPath, oldPath, prefix, out string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two coverage summary files",
		Long:  "Compare a new coverage summary against an old one, print the report and apply the coverage policies. No git or GitHub access.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd)

			newReport, err := loadReport(newPath)
			if err != nil {
				fail(cmd, err)
				return nil
			}
			oldReport, err := loadReport(oldPath)
			if err != nil {
				fail(cmd, err)
				return nil
			}
			log.Debugf("comparing %s against %s", newPath, oldPath)

			checker := diff.New(newReport, oldReport)
			verdict := checker.Evaluate(cfg.Thresholds)
			report := output.NewReport(checker, output.Meta{Head: newPath, Base: oldPath}, !cfg.FullCoverageDiff, prefix, verdict)

			w := cmd.OutOrStdout()
			writer, err := output.GetWriter(cfg.Format)
			if err != nil {
				return err
			}
			if out != "" {
				err = output.WriteReport(report, cfg.Format, out)
			} else {
				err = writer.Write(w, report)
			}
			if err != nil {
				fail(cmd, fmt.Errorf("writing output: %w", err))
				return nil
			}
			if verdict != nil {
				fail(cmd, verdict)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&newPath, "new", "", "Coverage summary of the changed code")
	fs.StringVar(&oldPath, "old", "", "Coverage summary to compare against")
	fs.StringVar(&prefix, "path-prefix", "", "Prefix trimmed from file paths in the report")
	fs.StringVar(&out, "out", "", "Output file path (default: stdout)")
	addReportFlags(fs)
	addThresholdFlags(fs)
	cmd.MarkFlagRequired("new")
	cmd.MarkFlagRequired("old")
	return cmd
}

func loadReport(path string) (coverage.Report, error) {
	r, err := coverage.Load(path)
	if err == nil {
		err = coverage.Validate(r)
	}
	if err != nil {
		return nil, fmt.Errorf("not a valid code coverage report %s: %w", path, err)
	}
	return r, nil
}
