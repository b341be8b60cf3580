package memstore

import (
	"context"
	"strconv"
	"sync"

	"github.com/agentforge/reputation-engine/internal/ports"
)

// ForgeDouble is an in-memory ports.ForgeClient for tests that exercise
// code paths talking to the forge (Moment Curator review/PR lookups)
// without a real Gitea instance.
type ForgeDouble struct {
	mu       sync.Mutex
	reviews  map[string][]ports.ForgeReview
	pulls    map[string][]ports.ForgePullRequest
	branches map[string]ports.ForgeBranch
}

func NewForgeDouble() *ForgeDouble {
	return &ForgeDouble{
		reviews:  make(map[string][]ports.ForgeReview),
		pulls:    make(map[string][]ports.ForgePullRequest),
		branches: make(map[string]ports.ForgeBranch),
	}
}

func prKeyStr(owner, repo string, prNumber int64) string {
	return owner + "/" + repo + "#" + strconv.FormatInt(prNumber, 10)
}

func (f *ForgeDouble) SeedReviews(owner, repo string, prNumber int64, reviews []ports.ForgeReview) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[prKeyStr(owner, repo, prNumber)] = reviews
}

func (f *ForgeDouble) SeedPullRequests(owner, repo, state string, prs []ports.ForgePullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls[owner+"/"+repo+":"+state] = prs
}

func (f *ForgeDouble) SeedBranch(owner, repo, branch string, b ports.ForgeBranch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branches[owner+"/"+repo+"@"+branch] = b
}

func (f *ForgeDouble) GetPRReviews(_ context.Context, owner, repo string, prNumber int64) ([]ports.ForgeReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reviews[prKeyStr(owner, repo, prNumber)], nil
}

func (f *ForgeDouble) ListPullRequests(_ context.Context, owner, repo, state string) ([]ports.ForgePullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls[owner+"/"+repo+":"+state], nil
}

func (f *ForgeDouble) GetPullRequest(_ context.Context, owner, repo string, prNumber int64) (*ports.ForgePullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, prs := range f.pulls {
		for _, pr := range prs {
			if pr.Number == prNumber {
				cp := pr
				return &cp, nil
			}
		}
	}
	return nil, &ports.ForgeError{Kind: ports.ForgeErrNotFound, Message: "pull request not found"}
}

func (f *ForgeDouble) GetBranch(_ context.Context, owner, repo, branch string) (*ports.ForgeBranch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.branches[owner+"/"+repo+"@"+branch]
	if !ok {
		return nil, &ports.ForgeError{Kind: ports.ForgeErrNotFound, Message: "branch not found"}
	}
	return &b, nil
}
