package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
)

// EngagementStore is an in-memory EngagementRepository backing the
// reaction-count supplement to promoted viral moments.
type EngagementStore struct {
	mu          sync.Mutex
	engagements []domain.Engagement
}

func NewEngagementStore() *EngagementStore {
	return &EngagementStore{}
}

func (s *EngagementStore) GetCounts(_ context.Context, targetType string, targetID uuid.UUID) (domain.EngagementCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range s.engagements {
		if e.TargetType == targetType && e.TargetID == targetID {
			counts[e.Reaction]++
		}
	}
	return domain.EngagementCounts{TargetType: targetType, TargetID: targetID, Counts: counts}, nil
}

func (s *EngagementStore) Create(_ context.Context, ne *domain.NewEngagement) (*domain.Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := domain.Engagement{
		ID:         uuid.New(),
		AgentID:    ne.AgentID,
		TargetType: ne.TargetType,
		TargetID:   ne.TargetID,
		Reaction:   ne.Reaction,
		CreatedAt:  time.Now().UTC(),
	}
	s.engagements = append(s.engagements, e)
	return &e, nil
}

func (s *EngagementStore) HasReaction(_ context.Context, agentID uuid.UUID, targetType string, targetID uuid.UUID, reaction string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.engagements {
		if e.AgentID == agentID && e.TargetType == targetType && e.TargetID == targetID && e.Reaction == reaction {
			return true, nil
		}
	}
	return false, nil
}
