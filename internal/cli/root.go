package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/covdiff/internal/config"
	"github.com/dshills/covdiff/internal/diff"
	"github.com/dshills/covdiff/internal/github"
	"github.com/dshills/covdiff/internal/logger"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitPolicy       = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// flagConfig is the persistent --config flag.
var flagConfig string

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "covdiff",
		Short:         "Compare test coverage between a pull request and its base branch",
		Long:          "covdiff runs the coverage command on the head and base branches, posts the per-file difference as a pull request comment, and fails when coverage drops past the configured thresholds.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file path (default: $XDG_CONFIG_HOME/covdiff/config.json)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print covdiff version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "covdiff version %s\n", version)
		},
	})
	return root
}

// Run executes the root command and returns an exit code.
func Run() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	exitCode = ExitSuccess
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsageError
	}
	return exitCode
}

// fail reports err and records the matching exit code.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = exitCodeFor(err)
}

func exitCodeFor(err error) int {
	var pe *diff.PolicyError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &pe):
		return ExitPolicy
	case errors.Is(err, github.ErrAuth):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

// loadConfig resolves the effective configuration for cmd, applying only the
// flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(flagConfig, buildOverrides(cmd.Flags()))
}

func newLogger(cfg config.Config, cmd *cobra.Command) *logger.Logger {
	return logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
}
