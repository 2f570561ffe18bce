package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dshills/covdiff/internal/action"
	"github.com/dshills/covdiff/internal/cache"
	"github.com/dshills/covdiff/internal/config"
	"github.com/dshills/covdiff/internal/gitctx"
	"github.com/dshills/covdiff/internal/github"
	"github.com/dshills/covdiff/internal/output"
	"github.com/dshills/covdiff/internal/runner"
)

// prFlags are the pull request context overrides of `covdiff run`.
type prFlags struct {
	number int
	base   string
	head   string
	dryRun bool
	out    string
}

func newRunCmd() *cobra.Command {
	var pf prFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compare coverage of the pull request against its base branch and comment",
		Long: "Run the coverage command on the current (head) branch, check out the base branch and run it again, " +
			"then post the per-file comparison on the pull request. Exits 1 when a coverage policy fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := runPipeline(ctx, cmd, cfg, pf); err != nil {
				fail(cmd, err)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&pf.number, "pr", 0, "Pull request number (default: from GITHUB_EVENT_PATH)")
	fs.StringVar(&pf.base, "base", "", "Base branch (default: from GITHUB_EVENT_PATH)")
	fs.StringVar(&pf.head, "head", "", "Head branch (default: from GITHUB_EVENT_PATH)")
	fs.BoolVar(&pf.dryRun, "dry-run", false, "Print comments to stdout instead of posting them")
	fs.StringVar(&pf.out, "out", "", "Also write the report in --format to this file")
	fs.String("run-command", "", "Command that produces the coverage summary")
	fs.String("after-switch-command", "", "Command run after checking out the base branch")
	fs.String("summary", "", "Path of the coverage summary written by the command")
	fs.Bool("same-comment", false, "Update the previous covdiff comment instead of adding a new one")
	fs.String("repo", "", "Repository as owner/name (default: GITHUB_REPOSITORY or the origin remote)")
	fs.Bool("cache", false, "Cache base branch coverage by base commit")
	addReportFlags(fs)
	addThresholdFlags(fs)
	return cmd
}

func runPipeline(ctx context.Context, cmd *cobra.Command, cfg config.Config, pf prFlags) error {
	log := newLogger(cfg, cmd)
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	repo := gitctx.New(wd, log)

	pr, err := resolvePR(cfg, pf)
	if err != nil {
		return err
	}
	commitSHA := cfg.GitHub.SHA
	if commitSHA == "" {
		meta, err := repo.Meta(ctx)
		if err != nil {
			return err
		}
		commitSHA = meta.Head
	}
	owner, name, err := resolveRepo(ctx, cfg, repo)
	if err != nil {
		return err
	}

	var poster action.CommentPoster
	if pf.dryRun {
		poster = &dryRunPoster{w: cmd.OutOrStdout()}
	} else {
		if pr.Number == 0 {
			return errors.New("pull request number is unknown: pass --pr or run on a pull_request event")
		}
		client, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL)
		if err != nil {
			return err
		}
		poster = &github.PRCommenter{Client: client, Owner: owner, Repo: name, Number: pr.Number, Reuse: cfg.UseSameComment}
	}

	a := &action.Action{
		Runner: &runner.Shell{Dir: wd, Stdout: cmd.ErrOrStderr(), Stderr: cmd.ErrOrStderr(), Log: log},
		Git:    repo,
		Poster: poster,
		Log:    log.With("pr", pr.Number),
	}
	if cfg.Cache.Enabled {
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		a.Cache = c
	}

	res, err := a.Run(ctx, action.Options{
		RunCommand:         cfg.RunCommand,
		AfterSwitchCommand: cfg.AfterSwitchCommand,
		SummaryPath:        cfg.SummaryPath,
		Repository:         owner + "/" + name,
		CommitSHA:          commitSHA,
		Base:               pr.Base.Ref,
		Head:               pr.Head.Ref,
		PathPrefix:         wd + string(os.PathSeparator),
		FullCoverageDiff:   cfg.FullCoverageDiff,
		Thresholds:         cfg.Thresholds,
	})
	if res != nil && pf.out != "" {
		if werr := output.WriteReport(res.Report, cfg.Format, pf.out); werr != nil {
			log.Error("writing report", werr)
		}
	}
	return err
}

// resolvePR reads the pull request from the Actions event payload and applies
// flag overrides. A missing payload is fine when the flags cover it.
func resolvePR(cfg config.Config, pf prFlags) (github.PullRequest, error) {
	var pr github.PullRequest
	if cfg.GitHub.EventPath != "" {
		loaded, err := github.LoadPullRequest(cfg.GitHub.EventPath)
		if err != nil && pf.base == "" {
			return pr, err
		}
		if err == nil {
			pr = loaded
		}
	}
	if pf.number != 0 {
		pr.Number = pf.number
	}
	if pf.base != "" {
		pr.Base.Ref = pf.base
	}
	if pf.head != "" {
		pr.Head.Ref = pf.head
	}
	if pr.Base.Ref == "" {
		return pr, errors.New("base branch is unknown: pass --base or run on a pull_request event")
	}
	return pr, nil
}

func resolveRepo(ctx context.Context, cfg config.Config, repo *gitctx.Repo) (string, string, error) {
	if owner, name, ok := cfg.GitHub.OwnerRepo(); ok {
		return owner, name, nil
	}
	url, err := repo.RemoteURL(ctx, "origin")
	if err != nil {
		return "", "", fmt.Errorf("cannot determine repository, set GITHUB_REPOSITORY or --repo: %w", err)
	}
	return github.ParseRemoteURL(url)
}

// dryRunPoster prints comment bodies instead of posting them.
type dryRunPoster struct {
	w io.Writer
}

func (d *dryRunPoster) UpsertComment(_ context.Context, _, body string) error {
	_, err := fmt.Fprintf(d.w, "%s\n\n", body)
	return err
}

var _ action.CommentPoster = (*dryRunPoster)(nil)
