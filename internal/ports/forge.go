package ports

import "context"

// ForgeReviewState is the review state reported by the forge.
type ForgeReviewState string

const (
	ForgeReviewApproved         ForgeReviewState = "APPROVED"
	ForgeReviewChangesRequested ForgeReviewState = "CHANGES_REQUESTED"
	ForgeReviewCommented        ForgeReviewState = "COMMENTED"
)

// ForgeReview is a single review returned by GetPRReviews.
type ForgeReview struct {
	State     ForgeReviewState
	UserLogin string
}

// ForgePullRequest is a pull request as reported by the forge, trimmed to
// the fields the core's detectors consume.
type ForgePullRequest struct {
	Number    int64
	Title     string
	HeadRef   string
	Merged    bool
	UserLogin string
}

// ForgeBranch is a branch as reported by the forge.
type ForgeBranch struct {
	Name string
	SHA  string
}

// ForgeErrorKind classifies a forge-client failure so callers can decide
// whether to treat it as soft (yield no moment) or bubble it up.
type ForgeErrorKind int

const (
	ForgeErrAPI ForgeErrorKind = iota
	ForgeErrNotFound
	ForgeErrRateLimited
	ForgeErrUnauthorized
	ForgeErrDeserialization
	ForgeErrTransport
)

// ForgeError wraps a forge-client failure with its kind and, for API
// errors, the upstream status/message.
type ForgeError struct {
	Kind    ForgeErrorKind
	Status  int
	Message string
	Cause   error
}

func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ForgeError) Unwrap() error { return e.Cause }

// IsSoft reports whether the core should treat this failure as "no
// moment", per SPEC_FULL.md §6 (not_found and rate_limited are soft; other
// kinds bubble up and are logged).
func (e *ForgeError) IsSoft() bool {
	return e.Kind == ForgeErrNotFound || e.Kind == ForgeErrRateLimited
}

// ForgeClient is the typed interface the core consumes for the subset of
// forge operations C6/C8 need. Production code binds this to a go-github
// client pointed at a Gitea-compatible base URL (internal/forge); tests
// bind it to an in-memory double.
type ForgeClient interface {
	GetPRReviews(ctx context.Context, owner, repo string, prNumber int64) ([]ForgeReview, error)
	ListPullRequests(ctx context.Context, owner, repo, state string) ([]ForgePullRequest, error)
	GetPullRequest(ctx context.Context, owner, repo string, prNumber int64) (*ForgePullRequest, error)
	GetBranch(ctx context.Context, owner, repo, branch string) (*ForgeBranch, error)
}
