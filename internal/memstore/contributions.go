package memstore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// ContributionStore is an in-memory ContributionRepository.
type ContributionStore struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*domain.CodeContribution
	byCommitSHA map[string]uuid.UUID
	byProjectPR map[string]uuid.UUID
}

func NewContributionStore() *ContributionStore {
	return &ContributionStore{
		byID:        make(map[uuid.UUID]*domain.CodeContribution),
		byCommitSHA: make(map[string]uuid.UUID),
		byProjectPR: make(map[string]uuid.UUID),
	}
}

func prKey(projectID uuid.UUID, prNumber int64) string {
	return projectID.String() + ":" + strconv.FormatInt(prNumber, 10)
}

func (s *ContributionStore) FindByID(_ context.Context, id uuid.UUID) (*domain.CodeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *ContributionStore) FindByCommitSHA(_ context.Context, sha string) (*domain.CodeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCommitSHA[sha]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *ContributionStore) FindByPR(_ context.Context, projectID uuid.UUID, prNumber int64) (*domain.CodeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byProjectPR[prKey(projectID, prNumber)]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *ContributionStore) FindByAgent(_ context.Context, agentID uuid.UUID) ([]domain.CodeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CodeContribution
	for _, c := range s.byID {
		if c.AgentID == agentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *ContributionStore) FindEligibleForLongevityBonus(_ context.Context, threshold time.Time) ([]domain.CodeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CodeContribution
	for _, c := range s.byID {
		if c.Status == domain.ContributionHealthy && !c.LongevityBonusPaid && !c.MergedAt.After(threshold) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *ContributionStore) Create(_ context.Context, nc *domain.NewCodeContribution) (*domain.CodeContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byCommitSHA[nc.CommitSHA]; exists {
		return nil, apperrors.AlreadyExists("a contribution with this commit sha already exists")
	}

	c := &domain.CodeContribution{
		ID:        uuid.New(),
		AgentID:   nc.AgentID,
		ProjectID: nc.ProjectID,
		PRNumber:  nc.PRNumber,
		CommitSHA: nc.CommitSHA,
		Status:    domain.ContributionHealthy,
		MergedAt:  nc.MergedAt,
		CreatedAt: nc.MergedAt,
	}
	s.byID[c.ID] = c
	s.byCommitSHA[c.CommitSHA] = c.ID
	s.byProjectPR[prKey(c.ProjectID, c.PRNumber)] = c.ID
	cp := *c
	return &cp, nil
}

func (s *ContributionStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ContributionStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return apperrors.NotFound("contribution not found")
	}
	c.Status = status
	switch status {
	case domain.ContributionReverted:
		c.RevertedAt = &at
	case domain.ContributionReplaced:
		c.ReplacedAt = &at
	}
	return nil
}

func (s *ContributionStore) MarkLongevityBonusPaid(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return apperrors.NotFound("contribution not found")
	}
	c.LongevityBonusPaid = true
	return nil
}

func (s *ContributionStore) IncrementBugCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return apperrors.NotFound("contribution not found")
	}
	c.BugCount++
	return nil
}

func (s *ContributionStore) IncrementDependentPRs(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return apperrors.NotFound("contribution not found")
	}
	c.DependentPRsCount++
	return nil
}
