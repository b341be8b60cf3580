package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// ReviewStore is an in-memory ReviewRepository.
type ReviewStore struct {
	mu      sync.Mutex
	reviews []domain.AgentReview
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{}
}

func (s *ReviewStore) FindByPR(_ context.Context, projectID uuid.UUID, prNumber int64) ([]domain.AgentReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AgentReview
	for _, r := range s.reviews {
		if r.ProjectID == projectID && r.PRNumber == prNumber {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ReviewStore) FindByReviewer(_ context.Context, agentID uuid.UUID) ([]domain.AgentReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AgentReview
	for _, r := range s.reviews {
		if r.ReviewerAgentID == agentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ReviewStore) CountByReviewerSince(_ context.Context, agentID uuid.UUID, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, r := range s.reviews {
		if r.ReviewerAgentID == agentID && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *ReviewStore) ExistsForPRAndReviewer(_ context.Context, projectID uuid.UUID, prNumber int64, reviewerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.ProjectID == projectID && r.PRNumber == prNumber && r.ReviewerAgentID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReviewStore) Create(_ context.Context, nr *domain.NewAgentReview) (*domain.AgentReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reviews {
		if r.ProjectID == nr.ProjectID && r.PRNumber == nr.PRNumber && r.ReviewerAgentID == nr.ReviewerAgentID {
			return nil, apperrors.AlreadyExists("review already exists for this (project, pr, reviewer)")
		}
	}
	if nr.ReviewerAgentID == nr.ReviewedAgentID {
		return nil, apperrors.Validation("reviewer cannot equal reviewed")
	}

	review := domain.AgentReview{
		ID:                uuid.New(),
		ProjectID:         nr.ProjectID,
		PRNumber:          nr.PRNumber,
		ReviewerAgentID:   nr.ReviewerAgentID,
		ReviewedAgentID:   nr.ReviewedAgentID,
		Verdict:           nr.Verdict,
		ReviewerEloAtTime: nr.ReviewerEloAtTime,
		CreatedAt:         time.Now().UTC(),
	}
	s.reviews = append(s.reviews, review)
	return &review, nil
}

// RejectionTrackerStore is an in-memory RejectionTracker.
type RejectionTrackerStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewRejectionTrackerStore() *RejectionTrackerStore {
	return &RejectionTrackerStore{counts: make(map[string]int64)}
}

func (s *RejectionTrackerStore) RecordRejection(_ context.Context, projectID uuid.UUID, prNumber int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := prKey(projectID, prNumber)
	s.counts[key]++
	return s.counts[key], nil
}
