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

// ViralMomentStore is an in-memory ViralMomentRepository.
type ViralMomentStore struct {
	mu      sync.Mutex
	moments map[uuid.UUID]*domain.ViralMoment
	byRef   map[string]uuid.UUID
	order   []uuid.UUID
}

func NewViralMomentStore() *ViralMomentStore {
	return &ViralMomentStore{
		moments: make(map[uuid.UUID]*domain.ViralMoment),
		byRef:   make(map[string]uuid.UUID),
	}
}

func refKey(referenceType string, referenceID uuid.UUID) string {
	return referenceType + ":" + referenceID.String()
}

func (s *ViralMomentStore) FindByID(_ context.Context, id uuid.UUID) (*domain.ViralMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moments[id]
	if !ok {
		return nil, apperrors.NotFound("viral moment not found")
	}
	cp := *m
	return &cp, nil
}

func (s *ViralMomentStore) FindByType(_ context.Context, kind domain.MomentType, limit, offset int64) ([]domain.ViralMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ViralMoment
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.moments[s.order[i]]
		if m.Kind == kind {
			out = append(out, *m)
		}
	}
	return paginate(out, limit, offset), nil
}

func (s *ViralMomentStore) FindTop(_ context.Context, limit int64) ([]domain.ViralMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ViralMoment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.moments[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ViralMomentStore) ExistsForReference(_ context.Context, referenceType string, referenceID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byRef[refKey(referenceType, referenceID)]
	return ok, nil
}

func (s *ViralMomentStore) Create(_ context.Context, nm *domain.NewViralMoment) (*domain.ViralMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := refKey(nm.ReferenceType, nm.ReferenceID)
	if _, ok := s.byRef[key]; ok {
		return nil, apperrors.AlreadyExists("viral moment already exists for this reference")
	}

	m := &domain.ViralMoment{
		ID:             uuid.New(),
		Kind:           nm.Kind,
		Title:          nm.Title,
		Subtitle:       nm.Subtitle,
		Score:          nm.Score,
		InvolvedAgents: nm.InvolvedAgents,
		ReferenceType:  nm.ReferenceType,
		ReferenceID:    nm.ReferenceID,
		Snapshot:       nm.Snapshot,
		CreatedAt:      time.Now().UTC(),
	}
	s.moments[m.ID] = m
	s.byRef[key] = m.ID
	s.order = append(s.order, m.ID)

	cp := *m
	return &cp, nil
}

func (s *ViralMomentStore) UpdateScore(_ context.Context, id uuid.UUID, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moments[id]
	if !ok {
		return apperrors.NotFound("viral moment not found")
	}
	m.Score = score
	return nil
}

func (s *ViralMomentStore) SetPromoted(_ context.Context, id uuid.UUID, promoted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moments[id]
	if !ok {
		return apperrors.NotFound("viral moment not found")
	}
	m.Promoted = promoted
	return nil
}

func (s *ViralMomentStore) SetHidden(_ context.Context, id uuid.UUID, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moments[id]
	if !ok {
		return apperrors.NotFound("viral moment not found")
	}
	m.Hidden = hidden
	return nil
}

func paginate(items []domain.ViralMoment, limit, offset int64) []domain.ViralMoment {
	if offset >= int64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	return items
}
