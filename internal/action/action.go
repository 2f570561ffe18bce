// Package action runs the head/base coverage comparison for one pull request
// and reports the result as comments.
package action

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dshills/covdiff/internal/cache"
	"github.com/dshills/covdiff/internal/coverage"
	"github.com/dshills/covdiff/internal/diff"
	"github.com/dshills/covdiff/internal/logger"
	"github.com/dshills/covdiff/internal/output"
)

// CommandRunner runs a shell command in the working tree.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// Git is the subset of git operations the pipeline needs.
type Git interface {
	Fetch(ctx context.Context) error
	Stash(ctx context.Context) error
	Checkout(ctx context.Context, branch string) error
	RevParse(ctx context.Context, ref string) (string, error)
}

// CommentPoster publishes a comment body identified by marker.
type CommentPoster interface {
	UpsertComment(ctx context.Context, marker, body string) error
}

// BaseCache stores base-branch summaries between runs.
type BaseCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, summary []byte) error
}

// Options are the inputs of one run.
type Options struct {
	RunCommand         string
	AfterSwitchCommand string
	SummaryPath        string
	Repository         string
	CommitSHA          string
	Base               string
	Head               string
	PathPrefix         string
	FullCoverageDiff   bool
	Thresholds         diff.Thresholds
}

// Action wires the collaborators of a run. Cache is optional.
type Action struct {
	Runner   CommandRunner
	Git      Git
	Poster   CommentPoster
	Cache    BaseCache
	ReadFile func(string) ([]byte, error)
	Log      *logger.Logger
}

// Result is what a run produced.
type Result struct {
	Report    *output.Report
	Body      string
	CacheHit  bool
	Violation *diff.PolicyError
}

// Run executes the pipeline: test the head branch, switch to the base branch
// and test it, compare, comment, then apply the policies. A policy violation
// is posted as its own comment and returned as a *diff.PolicyError alongside
// the result.
func (a *Action) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Base == "" {
		return nil, errors.New("base branch is unknown: pass --base or run on a pull_request event")
	}
	log := a.Log
	if log == nil {
		log = logger.Nop()
	}
	readFile := a.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	if err := a.Runner.Run(ctx, opts.RunCommand); err != nil {
		return nil, fmt.Errorf("running coverage on head branch: %w", err)
	}
	headData, err := readFile(opts.SummaryPath)
	if err != nil {
		return nil, fmt.Errorf("reading head coverage summary: %w", err)
	}

	if err := a.Git.Fetch(ctx); err != nil {
		return nil, err
	}

	res := &Result{}
	var cacheKey string
	if a.Cache != nil {
		sha, err := a.Git.RevParse(ctx, "origin/"+opts.Base)
		if err != nil {
			log.Warnf("base cache disabled for this run: %v", err)
		} else {
			cacheKey = cache.BuildKey(opts.Repository, sha, opts.RunCommand, opts.AfterSwitchCommand)
		}
	}

	var baseData []byte
	if cacheKey != "" {
		baseData, res.CacheHit = a.Cache.Get(cacheKey)
	}
	if res.CacheHit {
		log.Infof("using cached coverage for base branch %s", opts.Base)
	} else {
		baseData, err = a.baseSummary(ctx, opts, readFile)
		if err != nil {
			return nil, err
		}
	}

	newReport, err := parseSide(headData, "PR branch")
	if err != nil {
		return nil, err
	}
	oldReport, err := parseSide(baseData, "base branch")
	if err != nil {
		return nil, err
	}

	if cacheKey != "" && !res.CacheHit {
		if err := a.Cache.Put(cacheKey, baseData); err != nil {
			log.Warnf("caching base coverage: %v", err)
		}
	}

	checker := diff.New(newReport, oldReport)
	verdict := checker.Evaluate(opts.Thresholds)
	meta := output.Meta{CommitSHA: opts.CommitSHA, Base: opts.Base, Head: opts.Head}
	res.Report = output.NewReport(checker, meta, !opts.FullCoverageDiff, opts.PathPrefix, verdict)
	res.Body, err = output.Render(res.Report, "markdown")
	if err != nil {
		return nil, err
	}

	if err := a.Poster.UpsertComment(ctx, output.DiffMarker, res.Body); err != nil {
		return res, fmt.Errorf("posting coverage comment: %w", err)
	}
	log.Info("coverage comment posted")

	if !errors.As(verdict, &res.Violation) {
		return res, nil
	}
	log.Warnf("policy %s failed", res.Violation.Policy)
	body := output.PolicyComment(opts.CommitSHA, res.Violation.Message)
	if err := a.Poster.UpsertComment(ctx, output.DeltaMarker, body); err != nil {
		return res, fmt.Errorf("posting policy comment: %w", err)
	}
	return res, res.Violation
}

func (a *Action) baseSummary(ctx context.Context, opts Options, readFile func(string) ([]byte, error)) ([]byte, error) {
	if err := a.Git.Stash(ctx); err != nil {
		return nil, err
	}
	if err := a.Git.Checkout(ctx, opts.Base); err != nil {
		return nil, err
	}
	if opts.AfterSwitchCommand != "" {
		if err := a.Runner.Run(ctx, opts.AfterSwitchCommand); err != nil {
			return nil, fmt.Errorf("running after-switch command: %w", err)
		}
	}
	if err := a.Runner.Run(ctx, opts.RunCommand); err != nil {
		return nil, fmt.Errorf("running coverage on base branch: %w", err)
	}
	data, err := readFile(opts.SummaryPath)
	if err != nil {
		return nil, fmt.Errorf("reading base coverage summary: %w", err)
	}
	return data, nil
}

func parseSide(data []byte, side string) (coverage.Report, error) {
	r, err := coverage.Parse(data)
	if err == nil {
		err = coverage.Validate(r)
	}
	if err != nil {
		return nil, fmt.Errorf("not a valid code coverage report from %s: %w", side, err)
	}
	return r, nil
}
