package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	defaultAPIURL = "https://api.github.com"
	perPage       = 100
)

// ErrAuth is returned when GitHub rejects the token, or no token was given.
var ErrAuth = errors.New("github authentication failed")

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client. apiURL defaults to api.github.com.
func NewClient(token, apiURL string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token set (GITHUB_TOKEN or INPUT_ACCESSTOKEN)", ErrAuth)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Comment is an issue or pull request comment.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// ListComments returns every comment on an issue or pull request, oldest first.
func (c *Client) ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	var all []Comment
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
			c.apiURL, owner, repo, number, perPage, page)
		var comments []Comment
		if err := c.do(ctx, http.MethodGet, url, nil, &comments); err != nil {
			return nil, fmt.Errorf("listing comments: %w", err)
		}
		all = append(all, comments...)
		if len(comments) < perPage {
			return all, nil
		}
	}
}

// CreateComment posts a new comment on an issue or pull request.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (Comment, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, owner, repo, number)
	var created Comment
	if err := c.do(ctx, http.MethodPost, url, map[string]string{"body": body}, &created); err != nil {
		return Comment{}, fmt.Errorf("creating comment: %w", err)
	}
	return created, nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, id int64, body string) (Comment, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.apiURL, owner, repo, id)
	var updated Comment
	if err := c.do(ctx, http.MethodPatch, url, map[string]string{"body": body}, &updated); err != nil {
		return Comment{}, fmt.Errorf("updating comment %d: %w", id, err)
	}
	return updated, nil
}

// FindComment returns the ID of the first comment whose body starts with
// marker, or 0 when there is none.
func (c *Client) FindComment(ctx context.Context, owner, repo string, number int, marker string) (int64, error) {
	comments, err := c.ListComments(ctx, owner, repo, number)
	if err != nil {
		return 0, err
	}
	for _, cm := range comments {
		if strings.HasPrefix(cm.Body, marker) {
			return cm.ID, nil
		}
	}
	return 0, nil
}

// UpsertComment updates the first comment starting with marker, or creates
// one. body should itself start with marker so later runs find it again.
func (c *Client) UpsertComment(ctx context.Context, owner, repo string, number int, marker, body string) (Comment, error) {
	id, err := c.FindComment(ctx, owner, repo, number, marker)
	if err != nil {
		return Comment{}, err
	}
	if id != 0 {
		return c.UpdateComment(ctx, owner, repo, id, body)
	}
	return c.CreateComment(ctx, owner, repo, number, body)
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("%w: %s", ErrAuth, string(body))
	}
	if resp.StatusCode == 404 {
		return fmt.Errorf("not found: %s %s", method, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// PRCommenter posts comments on one pull request. With Reuse set, comments
// are upserted by marker; otherwise every call creates a new comment.
type PRCommenter struct {
	Client *Client
	Owner  string
	Repo   string
	Number int
	Reuse  bool
}

// UpsertComment posts body on the pull request.
func (p *PRCommenter) UpsertComment(ctx context.Context, marker, body string) error {
	var err error
	if p.Reuse {
		_, err = p.Client.UpsertComment(ctx, p.Owner, p.Repo, p.Number, marker, body)
	} else {
		_, err = p.Client.CreateComment(ctx, p.Owner, p.Repo, p.Number, body)
	}
	return err
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
