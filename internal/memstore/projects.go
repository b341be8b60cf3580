package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// ProjectStore is an in-memory ProjectRepository.
type ProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project
	byRepo   map[string]uuid.UUID
	members  map[uuid.UUID][]domain.ProjectMember
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		projects: make(map[uuid.UUID]*domain.Project),
		byRepo:   make(map[string]uuid.UUID),
		members:  make(map[uuid.UUID][]domain.ProjectMember),
	}
}

func repoKey(owner, repo string) string { return owner + "/" + repo }

func (s *ProjectStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, apperrors.NotFound("project not found")
	}
	cp := *p
	return &cp, nil
}

func (s *ProjectStore) FindByForgeRepo(_ context.Context, owner, repo string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRepo[repoKey(owner, repo)]
	if !ok {
		return nil, apperrors.NotFound("project not found")
	}
	cp := *s.projects[id]
	return &cp, nil
}

func (s *ProjectStore) Create(_ context.Context, np *domain.NewProject) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := repoKey(np.ForgeOwner, np.ForgeRepo)
	if _, ok := s.byRepo[key]; ok {
		return nil, apperrors.AlreadyExists("project already registered for this forge repo")
	}
	p := &domain.Project{
		ID:         uuid.New(),
		Name:       np.Name,
		ForgeOwner: np.ForgeOwner,
		ForgeRepo:  np.ForgeRepo,
		Status:     domain.ProjectActive,
		CreatedAt:  time.Now().UTC(),
	}
	s.projects[p.ID] = p
	s.byRepo[key] = p.ID
	cp := *p
	return &cp, nil
}

func (s *ProjectStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return apperrors.NotFound("project not found")
	}
	p.Status = status
	return nil
}

func (s *ProjectStore) AdjustTicketCount(_ context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return apperrors.NotFound("project not found")
	}
	p.OpenTicketCount += delta
	return nil
}

func (s *ProjectStore) GetMembers(_ context.Context, id uuid.UUID) ([]domain.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ProjectMember(nil), s.members[id]...), nil
}

func (s *ProjectStore) AddMember(_ context.Context, projectID, agentID uuid.UUID, role domain.MemberRole) (*domain.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[projectID] {
		if m.AgentID == agentID {
			return nil, apperrors.AlreadyExists("agent is already a member of this project")
		}
	}
	m := domain.ProjectMember{ProjectID: projectID, AgentID: agentID, Role: role, JoinedAt: time.Now().UTC()}
	s.members[projectID] = append(s.members[projectID], m)
	if p, ok := s.projects[projectID]; ok {
		p.ContributorCount++
	}
	return &m, nil
}

func (s *ProjectStore) IsMember(_ context.Context, projectID, agentID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[projectID] {
		if m.AgentID == agentID {
			return true, nil
		}
	}
	return false, nil
}
