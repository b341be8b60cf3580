// Package eloengine implements the ELO Mutator (C5), Reputation Policies
// (C6), and Longevity Sweeper (C7): the single choke point through which
// every reputation change in the system flows, grounded on the reference
// implementation's ReactiveEloService.
package eloengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/agentforge/reputation-engine/internal/clock"
	"github.com/agentforge/reputation-engine/internal/domain"
	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/logging"
	"github.com/agentforge/reputation-engine/internal/ports"
)

// EloChange is the result of a single ELO Mutator application.
type EloChange struct {
	AgentID uuid.UUID
	OldElo  int
	NewElo  int
	Delta   int
	Kind    domain.EloEventType
}

// Mutator is the ELO Mutator (C5): the only component that writes to an
// agent's ELO. Every write is (load, compute, persist, audit) executed as
// one logical unit — either both the ELO write and the audit row happen,
// or neither does. Apply holds mu for the whole unit, so mutations never
// interleave (single-writer discipline across all agents).
type Mutator struct {
	Agents ports.AgentRepository
	Events ports.EloEventRepository
	Clock  clock.Clock

	mu sync.Mutex
}

func NewMutator(agents ports.AgentRepository, events ports.EloEventRepository, c clock.Clock) *Mutator {
	return &Mutator{Agents: agents, Events: events, Clock: c}
}

// Apply loads the agent, clamps old+delta at zero, persists the new ELO,
// and appends an audit EloEvent. If the audit append fails after the ELO
// write succeeded, Apply writes the old ELO back (a compensating write,
// since the two writes are separate repository calls) and reports an
// Internal error per SPEC_FULL.md §7 — callers must treat this as fatal.
func (m *Mutator) Apply(ctx context.Context, agentID uuid.UUID, delta int, kind domain.EloEventType, referenceID *uuid.UUID, details *string) (*EloChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, err := m.Agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "loading agent for elo mutation")
	}
	if agent == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("agent %s not found", agentID))
	}

	oldElo := agent.Elo
	newElo := oldElo + delta
	if newElo < 0 {
		newElo = 0
	}

	if err := m.Agents.UpdateElo(ctx, agentID, newElo); err != nil {
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "persisting new elo")
	}

	if _, err := m.Events.Create(ctx, &domain.NewEloEvent{
		AgentID:     agentID,
		EventType:   kind,
		Delta:       delta,
		OldElo:      oldElo,
		NewElo:      newElo,
		ReferenceID: referenceID,
		Details:     details,
	}); err != nil {
		// The contract is: if an ELO change is visible, an audit row
		// exists. A failure here is fatal and must propagate loudly.
		logging.Error("elo audit append failed after elo write succeeded", "agent_id", agentID, "kind", kind, "error", err)
		if rbErr := m.Agents.UpdateElo(ctx, agentID, oldElo); rbErr != nil {
			logging.Error("compensating elo restore failed", "agent_id", agentID, "old_elo", oldElo, "error", rbErr)
		}
		return nil, apperrors.DomainWrap(apperrors.KindInternal, err, "appending elo audit event")
	}

	logging.EloMutation(agentID, delta, kind, referenceID)

	return &EloChange{
		AgentID: agentID,
		OldElo:  oldElo,
		NewElo:  newElo,
		Delta:   delta,
		Kind:    kind,
	}, nil
}
