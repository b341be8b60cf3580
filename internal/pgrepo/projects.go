package pgrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
)

// ProjectRepo is the Postgres-backed ProjectRepository.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, name, forge_owner, forge_repo, status, contributor_count, open_ticket_count, created_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.Name, &p.ForgeOwner, &p.ForgeRepo, &p.Status, &p.ContributorCount, &p.OpenTicketCount, &p.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying project by id")
	}
	return p, nil
}

func (r *ProjectRepo) FindByForgeRepo(ctx context.Context, owner, repo string) (*domain.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE forge_owner = $1 AND forge_repo = $2`, owner, repo))
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying project by forge repo")
	}
	return p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, np *domain.NewProject) (*domain.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, name, forge_owner, forge_repo, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+projectColumns,
		uuid.New(), np.Name, np.ForgeOwner, np.ForgeRepo, domain.ProjectActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("a project with this name or forge repo already exists")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "creating project")
	}
	return p, nil
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "updating project status")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("project not found")
	}
	return nil
}

func (r *ProjectRepo) AdjustTicketCount(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET open_ticket_count = open_ticket_count + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return apperrors.DomainWrap(apperrors.KindInternal, err, "adjusting project ticket count")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("project not found")
	}
	return nil
}

func (r *ProjectRepo) GetMembers(ctx context.Context, id uuid.UUID) ([]domain.ProjectMember, error) {
	rows, err := r.pool.Query(ctx, `SELECT project_id, agent_id, role, joined_at FROM project_members WHERE project_id = $1`, id)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "querying project members")
	}
	defer rows.Close()

	var out []domain.ProjectMember
	for rows.Next() {
		var m domain.ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.AgentID, &m.Role, &m.JoinedAt); err != nil {
			return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "scanning project member row")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) AddMember(ctx context.Context, projectID, agentID uuid.UUID, role domain.MemberRole) (*domain.ProjectMember, error) {
	joinedAt := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO project_members (project_id, agent_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`,
		projectID, agentID, role, joinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("agent is already a member of this project")
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "adding project member")
	}
	return &domain.ProjectMember{ProjectID: projectID, AgentID: agentID, Role: role, JoinedAt: joinedAt}, nil
}

func (r *ProjectRepo) IsMember(ctx context.Context, projectID, agentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND agent_id = $2)`, projectID, agentID).Scan(&exists)
	if err != nil {
		return false, apperrors.DomainWrap(apperrors.KindInternal, err, "checking project membership")
	}
	return exists, nil
}
