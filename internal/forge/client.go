// Package forge implements the Forge Client port (internal/ports.ForgeClient)
// against a Gitea-compatible REST API, grounded on the teacher's
// internal/github.Client: the same go-github models, the same
// golang.org/x/time/rate outbound limiter, the same errgroup-bounded
// worker pool for fan-out reads.
package forge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/agentforge/reputation-engine/internal/ports"
)

// Client adapts go-github to internal/ports.ForgeClient. Gitea exposes a
// GitHub-compatible REST surface for pull requests, reviews, and branches,
// so the same generated client models serve both; only the base URL
// differs.
type Client struct {
	gh         *github.Client
	limiter    *rate.Limiter
	maxWorkers int
}

// Config is the subset of config.ForgeConfig the client needs, kept
// decoupled from the config package to avoid an import cycle.
type Config struct {
	BaseURL    string
	Token      string
	RateLimit  float64
	MaxWorkers int
}

// New constructs a Client pointed at a Gitea-compatible base URL.
func New(cfg Config) (*Client, error) {
	gh := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("forge: configuring base url: %w", err)
		}
	}

	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = 8
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5
	}

	return &Client{
		gh:         gh,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		maxWorkers: workers,
	}, nil
}

func wrapError(err error, fallback ports.ForgeErrorKind) error {
	if err == nil {
		return nil
	}
	if rerr, ok := err.(*github.ErrorResponse); ok {
		switch rerr.Response.StatusCode {
		case 404:
			return &ports.ForgeError{Kind: ports.ForgeErrNotFound, Status: 404, Message: "not found", Cause: err}
		case 401, 403:
			return &ports.ForgeError{Kind: ports.ForgeErrUnauthorized, Status: rerr.Response.StatusCode, Message: "unauthorized", Cause: err}
		case 429:
			return &ports.ForgeError{Kind: ports.ForgeErrRateLimited, Status: 429, Message: "rate limited", Cause: err}
		default:
			return &ports.ForgeError{Kind: ports.ForgeErrAPI, Status: rerr.Response.StatusCode, Message: rerr.Message, Cause: err}
		}
	}
	if _, ok := err.(*github.RateLimitError); ok {
		return &ports.ForgeError{Kind: ports.ForgeErrRateLimited, Message: "rate limited", Cause: err}
	}
	return &ports.ForgeError{Kind: fallback, Message: "forge request failed", Cause: err}
}

// GetPRReviews lists every review submitted on a pull request, for the
// Moment Curator's drama detector.
func (c *Client) GetPRReviews(ctx context.Context, owner, repo string, prNumber int64) ([]ports.ForgeReview, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ports.ForgeError{Kind: ports.ForgeErrTransport, Message: "rate limiter wait", Cause: err}
	}

	var out []ports.ForgeReview
	opts := &github.ListOptions{PerPage: 100}
	for {
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, int(prNumber), opts)
		if err != nil {
			return nil, wrapError(err, ports.ForgeErrTransport)
		}
		for _, r := range reviews {
			out = append(out, ports.ForgeReview{
				State:     ports.ForgeReviewState(r.GetState()),
				UserLogin: r.GetUser().GetLogin(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// ListPullRequests lists pull requests in the given state ("open",
// "closed", "all"), for the upset and live-battle detectors.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo, state string) ([]ports.ForgePullRequest, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ports.ForgeError{Kind: ports.ForgeErrTransport, Message: "rate limiter wait", Cause: err}
	}

	var out []ports.ForgePullRequest
	opts := &github.PullRequestListOptions{State: state, ListOptions: github.ListOptions{PerPage: 100}}
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrapError(err, ports.ForgeErrTransport)
		}
		for _, pr := range prs {
			out = append(out, toForgePullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// GetPullRequest fetches a single pull request's details.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, prNumber int64) (*ports.ForgePullRequest, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ports.ForgeError{Kind: ports.ForgeErrTransport, Message: "rate limiter wait", Cause: err}
	}

	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, int(prNumber))
	if err != nil {
		return nil, wrapError(err, ports.ForgeErrTransport)
	}
	out := toForgePullRequest(pr)
	return &out, nil
}

// GetBranch fetches a branch's current tip, consumed indirectly by the
// out-of-scope submit flow.
func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*ports.ForgeBranch, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ports.ForgeError{Kind: ports.ForgeErrTransport, Message: "rate limiter wait", Cause: err}
	}

	b, _, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		return nil, wrapError(err, ports.ForgeErrTransport)
	}
	return &ports.ForgeBranch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()}, nil
}

// GetPRReviewsBatch fetches reviews for several PRs concurrently, bounded
// by maxWorkers, so reviews across many PRs are fetched without
// serializing one HTTP round-trip per PR. It is not part of the ForgeClient
// port; the drama and live-battle detectors do not call it.
func (c *Client) GetPRReviewsBatch(ctx context.Context, owner, repo string, prNumbers []int64) (map[int64][]ports.ForgeReview, error) {
	results := make(map[int64][]ports.ForgeReview, len(prNumbers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxWorkers)

	for _, n := range prNumbers {
		n := n
		g.Go(func() error {
			reviews, err := c.GetPRReviews(gctx, owner, repo, n)
			if err != nil {
				if fe, ok := err.(*ports.ForgeError); ok && fe.IsSoft() {
					return nil
				}
				return err
			}
			mu.Lock()
			results[n] = reviews
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func toForgePullRequest(pr *github.PullRequest) ports.ForgePullRequest {
	return ports.ForgePullRequest{
		Number:    int64(pr.GetNumber()),
		Title:     pr.GetTitle(),
		HeadRef:   pr.GetHead().GetRef(),
		Merged:    pr.GetMerged(),
		UserLogin: pr.GetUser().GetLogin(),
	}
}
