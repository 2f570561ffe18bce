package action

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/dshills/covdiff/internal/diff"
	"github.com/dshills/covdiff/internal/output"
)

const (
	headSummary = `{
  "total": {"lines":{"total":10,"covered":8,"skipped":0,"pct":80},"statements":{"total":10,"covered":8,"skipped":0,"pct":80},"functions":{"total":4,"covered":3,"skipped":0,"pct":75},"branches":{"total":4,"covered":2,"skipped":0,"pct":50}},
  "/ws/src/a.ts": {"lines":{"total":10,"covered":8,"skipped":0,"pct":80},"statements":{"total":10,"covered":8,"skipped":0,"pct":80},"functions":{"total":4,"covered":3,"skipped":0,"pct":75},"branches":{"total":4,"covered":2,"skipped":0,"pct":50}}
}`
	baseSummary = `{
  "total": {"lines":{"total":10,"covered":9,"skipped":0,"pct":90},"statements":{"total":10,"covered":9,"skipped":0,"pct":90},"functions":{"total":4,"covered":3,"skipped":0,"pct":75},"branches":{"total":4,"covered":2,"skipped":0,"pct":50}},
  "/ws/src/a.ts": {"lines":{"total":10,"covered":9,"skipped":0,"pct":90},"statements":{"total":10,"covered":9,"skipped":0,"pct":90},"functions":{"total":4,"covered":3,"skipped":0,"pct":75},"branches":{"total":4,"covered":2,"skipped":0,"pct":50}}
}`
)

// workspace fakes the working tree: running the test command writes the
// summary of whichever branch is checked out.
type workspace struct {
	branch    string
	summaries map[string]string
	file      string
	calls     []string
	failOn    string
}

func (w *workspace) Run(_ context.Context, command string) error {
	w.calls = append(w.calls, "run:"+command)
	if command == w.failOn {
		return errors.New("exit status 1")
	}
	if command == "test" {
		w.file = w.summaries[w.branch]
	}
	return nil
}

func (w *workspace) Fetch(context.Context) error {
	w.calls = append(w.calls, "fetch")
	return nil
}

func (w *workspace) Stash(context.Context) error {
	w.calls = append(w.calls, "stash")
	return nil
}

func (w *workspace) Checkout(_ context.Context, branch string) error {
	w.calls = append(w.calls, "checkout:"+branch)
	if _, ok := w.summaries[branch]; !ok {
		return errors.New("unknown branch " + branch)
	}
	w.branch = branch
	return nil
}

func (w *workspace) RevParse(_ context.Context, ref string) (string, error) {
	w.calls = append(w.calls, "rev-parse:"+ref)
	return "sha-" + strings.TrimPrefix(ref, "origin/"), nil
}

func (w *workspace) ReadFile(path string) ([]byte, error) {
	if path != "coverage-summary.json" {
		return nil, os.ErrNotExist
	}
	return []byte(w.file), nil
}

type post struct{ marker, body string }

type poster struct {
	posts []post
	err   error
}

func (p *poster) UpsertComment(_ context.Context, marker, body string) error {
	p.posts = append(p.posts, post{marker, body})
	return p.err
}

type memCache map[string][]byte

func (m memCache) Get(key string) ([]byte, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memCache) Put(key string, summary []byte) error {
	m[key] = summary
	return nil
}

func newFixture(head, base string) (*workspace, *poster, *Action) {
	ws := &workspace{branch: "feature", summaries: map[string]string{"feature": head, "main": base}}
	p := &poster{}
	a := &Action{Runner: ws, Git: ws, Poster: p, ReadFile: ws.ReadFile}
	return ws, p, a
}

func defaultOptions() Options {
	return Options{
		RunCommand:  "test",
		SummaryPath: "coverage-summary.json",
		Repository:  "octo/widgets",
		CommitSHA:   "abc123",
		Base:        "main",
		Head:        "feature",
		PathPrefix:  "/ws/",
		Thresholds:  diff.Thresholds{Delta: 50},
	}
}

func TestRun_PostsComment(t *testing.T) {
	ws, p, a := newFixture(headSummary, baseSummary)
	opts := defaultOptions()
	opts.AfterSwitchCommand = "npm ci"

	res, err := a.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	wantCalls := []string{"run:test", "fetch", "stash", "checkout:main", "run:npm ci", "run:test"}
	if strings.Join(ws.calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("calls = %v, want %v", ws.calls, wantCalls)
	}
	if len(p.posts) != 1 || p.posts[0].marker != output.DiffMarker {
		t.Fatalf("posts = %+v, want one diff comment", p.posts)
	}
	body := p.posts[0].body
	if !strings.HasPrefix(body, output.DiffMarker+"\nCommit SHA:abc123\n") {
		t.Errorf("body header wrong:\n%s", body)
	}
	if !strings.Contains(body, " :red_circle: | src/a.ts | 80% (Δ -10%)") {
		t.Errorf("body missing decreased row:\n%s", body)
	}
	if res.Violation != nil || res.CacheHit {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_PolicyViolation(t *testing.T) {
	_, p, a := newFixture(headSummary, baseSummary)
	opts := defaultOptions()
	opts.Thresholds = diff.Thresholds{Delta: 5}

	res, err := a.Run(context.Background(), opts)
	var pe *diff.PolicyError
	if !errors.As(err, &pe) || pe.Policy != diff.PolicyDelta {
		t.Fatalf("error = %v, want delta PolicyError", err)
	}
	if res == nil || res.Violation != pe {
		t.Error("result should carry the violation")
	}
	if len(p.posts) != 2 {
		t.Fatalf("got %d posts, want diff and policy comments", len(p.posts))
	}
	want := output.DeltaMarker + "\nCommit SHA:abc123\nCurrent PR reduces the test coverage percentage by 5 for some tests"
	if p.posts[1].marker != output.DeltaMarker || p.posts[1].body != want {
		t.Errorf("policy post = %+v", p.posts[1])
	}
}

func TestRun_MinIncreaseTakesPrecedence(t *testing.T) {
	_, p, a := newFixture(headSummary, baseSummary)
	opts := defaultOptions()
	opts.Thresholds = diff.Thresholds{Delta: 5, MinCoverage: 95, MinIncrease: 1}

	_, err := a.Run(context.Background(), opts)
	var pe *diff.PolicyError
	if !errors.As(err, &pe) || pe.Policy != diff.PolicyMinIncrease {
		t.Fatalf("error = %v, want min-increase PolicyError", err)
	}
	if !strings.Contains(p.posts[1].body, "required coverage increase of 1% and the repository has not reached a minimum of 95%") {
		t.Errorf("policy body = %q", p.posts[1].body)
	}
}

func TestRun_InvalidReports(t *testing.T) {
	bad := `{"total":{"lines":{"total":10,"covered":8,"skipped":0,"pct":"Unknown"}}}`
	tests := []struct {
		name       string
		head, base string
		want       string
	}{
		{"head", bad, baseSummary, "not a valid code coverage report from PR branch"},
		{"base", headSummary, bad, "not a valid code coverage report from base branch"},
		{"head not json", "<html>", baseSummary, "from PR branch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, p, a := newFixture(tt.head, tt.base)
			_, err := a.Run(context.Background(), defaultOptions())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
			if len(p.posts) != 0 {
				t.Error("nothing should be posted for an invalid report")
			}
		})
	}
}

func TestRun_BaseCache(t *testing.T) {
	c := memCache{}

	ws, _, a := newFixture(headSummary, baseSummary)
	a.Cache = c
	if _, err := a.Run(context.Background(), defaultOptions()); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if len(c) != 1 {
		t.Fatalf("cache has %d entries after a miss, want 1", len(c))
	}
	if ws.calls[2] != "rev-parse:origin/main" {
		t.Errorf("calls = %v", ws.calls)
	}

	ws, _, a = newFixture(headSummary, baseSummary)
	a.Cache = c
	res, err := a.Run(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if !res.CacheHit {
		t.Error("second run should hit the cache")
	}
	for _, call := range ws.calls {
		if call == "stash" || strings.HasPrefix(call, "checkout") {
			t.Errorf("cache hit should skip %q", call)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("no base", func(t *testing.T) {
		_, _, a := newFixture(headSummary, baseSummary)
		opts := defaultOptions()
		opts.Base = ""
		if _, err := a.Run(context.Background(), opts); err == nil {
			t.Error("expected error without a base branch")
		}
	})

	t.Run("command fails", func(t *testing.T) {
		ws, p, a := newFixture(headSummary, baseSummary)
		ws.failOn = "test"
		_, err := a.Run(context.Background(), defaultOptions())
		if err == nil || !strings.Contains(err.Error(), "head branch") {
			t.Errorf("error = %v", err)
		}
		if len(p.posts) != 0 {
			t.Error("nothing should be posted")
		}
	})

	t.Run("unknown base", func(t *testing.T) {
		_, _, a := newFixture(headSummary, baseSummary)
		opts := defaultOptions()
		opts.Base = "release"
		if _, err := a.Run(context.Background(), opts); err == nil {
			t.Error("expected checkout error")
		}
	})

	t.Run("poster fails", func(t *testing.T) {
		_, p, a := newFixture(headSummary, baseSummary)
		p.err = errors.New("boom")
		_, err := a.Run(context.Background(), defaultOptions())
		if err == nil || !strings.Contains(err.Error(), "posting coverage comment") {
			t.Errorf("error = %v", err)
		}
	})
}
