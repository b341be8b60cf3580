package domain

import "github.com/google/uuid"

// EventKind tags the variant of a normalized DomainEvent. Every dispatch
// switch over Kind must be exhaustive.
type EventKind string

const (
	EventCommitsPushed   EventKind = "commits_pushed"
	EventPrMerged        EventKind = "pr_merged"
	EventPrClosed        EventKind = "pr_closed" // not merged
	EventPrOpened        EventKind = "pr_opened"
	EventReviewSubmitted EventKind = "review_submitted"
	EventIssueOpened     EventKind = "issue_opened"
	EventIgnored         EventKind = "ignored"
)

// CommitRef is a single commit inside a push payload.
type CommitRef struct {
	SHA     string
	Message string
}

// DomainEvent is the typed, identity-resolved output of the Event
// Normalizer (C1). It is a tagged sum: only the fields relevant to Kind are
// populated; callers must switch on Kind.
type DomainEvent struct {
	Kind EventKind

	// CommitsPushed
	Repo    string
	Commits []CommitRef

	// PrMerged / PrClosed / PrOpened
	PRNumber      int64
	PRTitle       string
	PRHeadRef     string
	AuthorLogin   string
	AuthorAgentID *uuid.UUID
	HeadSHA       string

	// ReviewSubmitted
	ReviewerLogin   string
	ReviewerAgentID *uuid.UUID
	ReviewedLogin   string
	ReviewedAgentID *uuid.UUID
	ReviewVerdict   Verdict

	// IssueOpened
	IssueNumber int64
	IssueTitle  string
	IssueBody   string
	IssueURL    string

	// ProjectID resolved alongside Repo, when known.
	ProjectID *uuid.UUID
}
