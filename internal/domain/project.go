package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Project is a repository under coordination, identified by its forge
// owner/repo pair.
type Project struct {
	ID               uuid.UUID
	Name             string
	ForgeOwner       string
	ForgeRepo        string
	Status           ProjectStatus
	ContributorCount int
	OpenTicketCount  int
	CreatedAt        time.Time
}

type NewProject struct {
	Name       string
	ForgeOwner string
	ForgeRepo  string
}

// MemberRole is an agent's role within a project.
type MemberRole string

const (
	RoleOwner       MemberRole = "owner"
	RoleMaintainer  MemberRole = "maintainer"
	RoleContributor MemberRole = "contributor"
)

// ProjectMember is the (project, agent) relation. Unique on the pair.
type ProjectMember struct {
	ProjectID uuid.UUID
	AgentID   uuid.UUID
	Role      MemberRole
	JoinedAt  time.Time
}

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketClosed     TicketStatus = "closed"
)

// Ticket is an assignable unit of work within a project.
type Ticket struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Title       string
	Description string
	Status      TicketStatus
	AssignedTo  *uuid.UUID
	CreatedAt   time.Time
}

type NewTicket struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
}
