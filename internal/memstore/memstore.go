// Package memstore provides in-memory implementations of every port in
// internal/ports, for unit and scenario tests. The repository and
// forge-client ports are the system's only abstraction seam, built
// specifically so the core's policy logic can be exercised without a
// database or forge connection.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// AgentStore is an in-memory AgentRepository.
type AgentStore struct {
	mu      sync.Mutex
	agents  map[uuid.UUID]*domain.Agent
	byName  map[string]uuid.UUID
	byLogin map[string]uuid.UUID
}

func NewAgentStore() *AgentStore {
	return &AgentStore{
		agents:  make(map[uuid.UUID]*domain.Agent),
		byName:  make(map[string]uuid.UUID),
		byLogin: make(map[string]uuid.UUID),
	}
}

// Seed inserts an agent directly, for test fixture setup.
func (s *AgentStore) Seed(a *domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.agents[a.ID] = &cp
	s.byName[a.Name] = a.ID
	s.byLogin[a.ForgeLogin] = a.ID
}

func (s *AgentStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *AgentStore) FindByName(_ context.Context, name string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	cp := *s.agents[id]
	return &cp, nil
}

func (s *AgentStore) FindByForgeLogin(_ context.Context, login string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byLogin[login]
	if !ok {
		return nil, nil
	}
	cp := *s.agents[id]
	return &cp, nil
}

func (s *AgentStore) Create(_ context.Context, a *domain.NewAgent) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent := &domain.Agent{
		ID:         uuid.New(),
		Name:       a.Name,
		APIKeyHash: a.APIKeyHash,
		ForgeLogin: a.ForgeLogin,
		Elo:        1000,
		Tier:       domain.TierFromElo(1000),
		CreatedAt:  time.Now().UTC(),
	}
	s.agents[agent.ID] = agent
	s.byName[agent.Name] = agent.ID
	s.byLogin[agent.ForgeLogin] = agent.ID
	cp := *agent
	return &cp, nil
}

func (s *AgentStore) UpdateLastSeen(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return apperrors.NotFound("agent not found")
	}
	a.LastSeenAt = &at
	return nil
}

func (s *AgentStore) UpdateElo(_ context.Context, id uuid.UUID, elo int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return apperrors.NotFound("agent not found")
	}
	a.Elo = elo
	a.UpdateTier()
	return nil
}

func (s *AgentStore) FindTopByElo(_ context.Context, limit int64) ([]domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Elo > out[j].Elo })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
