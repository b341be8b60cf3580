package ingest

// The payload shapes below are trimmed to the fields the Normalizer
// consumes from a Gitea-compatible forge's webhook deliveries (push,
// pull_request, pull_request_review, issues). Field names follow Gitea's
// JSON webhook schema, which mirrors GitHub's closely enough that the same
// go-github types could parse most of it, but Gitea's push payload commit
// list differs enough (no separate "commits" vs "head_commit" split) that
// a dedicated set of structs is clearer than forcing go-github's types.

// PushPayload is the webhook body for a "push" event.
type PushPayload struct {
	Ref        string        `json:"ref"`
	Repository RepositoryRef `json:"repository"`
	Commits    []CommitEntry `json:"commits"`
	Pusher     UserRef       `json:"pusher"`
}

// CommitEntry is one commit inside a PushPayload.
type CommitEntry struct {
	SHA     string `json:"id"`
	Message string `json:"message"`
}

// PullRequestPayload is the webhook body for a "pull_request" event.
type PullRequestPayload struct {
	Action      string         `json:"action"` // opened, closed, synchronized
	Number      int64          `json:"number"`
	PullRequest PullRequestRef `json:"pull_request"`
	Repository  RepositoryRef  `json:"repository"`
}

// PullRequestRef is the pull_request object embedded in webhook payloads.
type PullRequestRef struct {
	Title  string  `json:"title"`
	Merged bool    `json:"merged"`
	Head   HeadRef `json:"head"`
	Body   string  `json:"body"`
	User   UserRef `json:"user"`
}

// HeadRef identifies a PR's source branch and tip commit.
type HeadRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequestReviewPayload is the webhook body for a "pull_request_review"
// event.
type PullRequestReviewPayload struct {
	Action      string         `json:"action"`
	Review      ReviewRef      `json:"review"`
	PullRequest PullRequestRef `json:"pull_request"`
	Number      int64          `json:"number"`
	Repository  RepositoryRef  `json:"repository"`
}

// ReviewRef is the review object embedded in a review webhook payload.
type ReviewRef struct {
	State    string  `json:"state"` // approved, changes_requested, commented
	Reviewer UserRef `json:"user"`
}

// IssuesPayload is the webhook body for an "issues" event.
type IssuesPayload struct {
	Action     string        `json:"action"` // opened, edited, closed
	Issue      IssueRef      `json:"issue"`
	Repository RepositoryRef `json:"repository"`
}

// IssueRef is the issue object embedded in an issues webhook payload.
type IssueRef struct {
	Number int64   `json:"number"`
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	URL    string  `json:"html_url"`
	User   UserRef `json:"user"`
}

// RepositoryRef identifies the owner/name pair of the repository a webhook
// fired from.
type RepositoryRef struct {
	Owner OwnerRef `json:"owner"`
	Name  string   `json:"name"`
}

// OwnerRef is the repository owner.
type OwnerRef struct {
	Login string `json:"login"`
}

// UserRef is a forge user/login reference.
type UserRef struct {
	Login string `json:"login"`
}
