package ingest

import (
	"context"
	"encoding/json"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/ports"
)

// Normalizer is the Event Normalizer (C1). It decodes a raw webhook body
// into a typed DomainEvent and resolves forge logins against known
// Agents. A login with no matching Agent yields EventIgnored rather than
// an error, since an unclaimed contributor is not a failure (SPEC_FULL.md
// §4.1).
type Normalizer struct {
	Agents   ports.AgentRepository
	Projects ports.ProjectRepository
}

func NewNormalizer(agents ports.AgentRepository, projects ports.ProjectRepository) *Normalizer {
	return &Normalizer{Agents: agents, Projects: projects}
}

// Normalize decodes payload according to eventType (a forge delivery
// header value: "push", "pull_request", "pull_request_review", "issues")
// and resolves identities. Unknown eventType values, and payloads whose
// author/reviewer logins resolve to no known Agent, normalize to
// EventIgnored.
func (n *Normalizer) Normalize(ctx context.Context, eventType string, payload []byte) (*domain.DomainEvent, error) {
	switch eventType {
	case "push":
		return n.normalizePush(ctx, payload)
	case "pull_request":
		return n.normalizePullRequest(ctx, payload)
	case "pull_request_review":
		return n.normalizePullRequestReview(ctx, payload)
	case "issues":
		return n.normalizeIssue(ctx, payload)
	default:
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}
}

func (n *Normalizer) lookupAgent(ctx context.Context, login string) (*domain.Agent, error) {
	if login == "" {
		return nil, nil
	}
	agent, err := n.Agents.FindByForgeLogin(ctx, login)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return agent, nil
}

func (n *Normalizer) lookupProject(ctx context.Context, owner, repo string) (*domain.Project, error) {
	project, err := n.Projects.FindByForgeRepo(ctx, owner, repo)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return project, nil
}

func (n *Normalizer) normalizePush(ctx context.Context, payload []byte) (*domain.DomainEvent, error) {
	var p PushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindValidation, err, "decoding push payload")
	}

	project, err := n.lookupProject(ctx, p.Repository.Owner.Login, p.Repository.Name)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving project for push event")
	}

	commits := make([]domain.CommitRef, 0, len(p.Commits))
	for _, c := range p.Commits {
		commits = append(commits, domain.CommitRef{SHA: c.SHA, Message: c.Message})
	}

	event := &domain.DomainEvent{
		Kind:    domain.EventCommitsPushed,
		Repo:    p.Repository.Owner.Login + "/" + p.Repository.Name,
		Commits: commits,
	}
	if project != nil {
		event.ProjectID = &project.ID
	}
	return event, nil
}

func (n *Normalizer) normalizePullRequest(ctx context.Context, payload []byte) (*domain.DomainEvent, error) {
	var p PullRequestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindValidation, err, "decoding pull_request payload")
	}

	author, err := n.lookupAgent(ctx, p.PullRequest.User.Login)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving pr author")
	}
	if author == nil {
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}

	project, err := n.lookupProject(ctx, p.Repository.Owner.Login, p.Repository.Name)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving project for pull_request event")
	}

	var kind domain.EventKind
	switch {
	case p.Action == "closed" && p.PullRequest.Merged:
		kind = domain.EventPrMerged
	case p.Action == "closed" && !p.PullRequest.Merged:
		kind = domain.EventPrClosed
	case p.Action == "opened":
		kind = domain.EventPrOpened
	default:
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}

	event := &domain.DomainEvent{
		Kind:          kind,
		PRNumber:      p.Number,
		PRTitle:       p.PullRequest.Title,
		PRHeadRef:     p.PullRequest.Head.Ref,
		AuthorLogin:   p.PullRequest.User.Login,
		AuthorAgentID: &author.ID,
		HeadSHA:       p.PullRequest.Head.SHA,
	}
	if project != nil {
		event.ProjectID = &project.ID
	}
	return event, nil
}

func (n *Normalizer) normalizePullRequestReview(ctx context.Context, payload []byte) (*domain.DomainEvent, error) {
	var p PullRequestReviewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindValidation, err, "decoding pull_request_review payload")
	}
	if p.Action != "submitted" {
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}

	reviewer, err := n.lookupAgent(ctx, p.Review.Reviewer.Login)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving reviewer")
	}
	reviewed, err := n.lookupAgent(ctx, p.PullRequest.User.Login)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving reviewed agent")
	}
	if reviewer == nil || reviewed == nil {
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}

	var verdict domain.Verdict
	switch p.Review.State {
	case "approved":
		verdict = domain.VerdictApproved
	case "changes_requested":
		verdict = domain.VerdictChangesRequested
	default:
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}

	project, err := n.lookupProject(ctx, p.Repository.Owner.Login, p.Repository.Name)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving project for review event")
	}

	event := &domain.DomainEvent{
		Kind:            domain.EventReviewSubmitted,
		PRNumber:        p.Number,
		ReviewerLogin:   p.Review.Reviewer.Login,
		ReviewerAgentID: &reviewer.ID,
		ReviewedLogin:   p.PullRequest.User.Login,
		ReviewedAgentID: &reviewed.ID,
		ReviewVerdict:   verdict,
	}
	if project != nil {
		event.ProjectID = &project.ID
	}
	return event, nil
}

func (n *Normalizer) normalizeIssue(ctx context.Context, payload []byte) (*domain.DomainEvent, error) {
	var p IssuesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindValidation, err, "decoding issues payload")
	}
	if p.Action != "opened" {
		return &domain.DomainEvent{Kind: domain.EventIgnored}, nil
	}

	project, err := n.lookupProject(ctx, p.Repository.Owner.Login, p.Repository.Name)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "resolving project for issue event")
	}

	event := &domain.DomainEvent{
		Kind:        domain.EventIssueOpened,
		IssueNumber: p.Issue.Number,
		IssueTitle:  p.Issue.Title,
		IssueBody:   p.Issue.Body,
		IssueURL:    p.Issue.URL,
	}
	if project != nil {
		event.ProjectID = &project.ID
	}
	return event, nil
}
