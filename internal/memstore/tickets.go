package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// TicketStore is an in-memory TicketRepository.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*domain.Ticket
}

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[uuid.UUID]*domain.Ticket)}
}

func (s *TicketStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, apperrors.NotFound("ticket not found")
	}
	cp := *t
	return &cp, nil
}

func (s *TicketStore) FindOpenByProject(_ context.Context, projectID uuid.UUID) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.ProjectID == projectID && t.Status != domain.TicketClosed {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *TicketStore) FindByAgent(_ context.Context, agentID uuid.UUID) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.AssignedTo != nil && *t.AssignedTo == agentID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *TicketStore) Create(_ context.Context, nt *domain.NewTicket) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &domain.Ticket{
		ID:          uuid.New(),
		ProjectID:   nt.ProjectID,
		Title:       nt.Title,
		Description: nt.Description,
		Status:      domain.TicketOpen,
		CreatedAt:   time.Now().UTC(),
	}
	s.tickets[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *TicketStore) Assign(_ context.Context, id, agentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return apperrors.NotFound("ticket not found")
	}
	t.AssignedTo = &agentID
	t.Status = domain.TicketInProgress
	return nil
}

func (s *TicketStore) Unassign(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return apperrors.NotFound("ticket not found")
	}
	t.AssignedTo = nil
	t.Status = domain.TicketOpen
	return nil
}

func (s *TicketStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return apperrors.NotFound("ticket not found")
	}
	t.Status = status
	return nil
}

func (s *TicketStore) Close(ctx context.Context, id uuid.UUID) error {
	return s.UpdateStatus(ctx, id, domain.TicketClosed)
}

func (s *TicketStore) CountOpenByProject(_ context.Context, projectID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, t := range s.tickets {
		if t.ProjectID == projectID && t.Status != domain.TicketClosed {
			count++
		}
	}
	return count, nil
}
