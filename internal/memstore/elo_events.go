package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
)

// EloEventStore is an in-memory EloEventRepository.
type EloEventStore struct {
	mu     sync.Mutex
	events []domain.EloEvent
}

func NewEloEventStore() *EloEventStore {
	return &EloEventStore{}
}

func (s *EloEventStore) FindByAgent(_ context.Context, agentID uuid.UUID, limit, offset int64) ([]domain.EloEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EloEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].AgentID == agentID {
			out = append(out, s.events[i])
		}
	}
	if offset > int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *EloEventStore) FindByReference(_ context.Context, referenceID uuid.UUID) ([]domain.EloEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EloEvent
	for _, e := range s.events {
		if e.ReferenceID != nil && *e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EloEventStore) Create(_ context.Context, ne *domain.NewEloEvent) (*domain.EloEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := domain.EloEvent{
		ID:          uuid.New(),
		AgentID:     ne.AgentID,
		EventType:   ne.EventType,
		Delta:       ne.Delta,
		OldElo:      ne.OldElo,
		NewElo:      ne.NewElo,
		ReferenceID: ne.ReferenceID,
		Details:     ne.Details,
		CreatedAt:   time.Now().UTC(),
	}
	s.events = append(s.events, e)
	return &e, nil
}

func (s *EloEventStore) SumDeltaByAgent(_ context.Context, agentID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, e := range s.events {
		if e.AgentID == agentID {
			sum += int64(e.Delta)
		}
	}
	return sum, nil
}

// All exposes a snapshot of every recorded event (test helper, not part of
// the port interface).
func (s *EloEventStore) All() []domain.EloEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EloEvent, len(s.events))
	copy(out, s.events)
	return out
}
