package memory

import (
	"context"
	"strings"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/pkg/errs"
)

// AgentStatsRepository stages seeds and rating increments. Increments are
// re-applied to the record as it stands at Commit, so concurrent ratings of the
// same agent all count.
type AgentStatsRepository struct {
	uow *UnitOfWork
}

func (r *AgentStatsRepository) Get(_ context.Context, agentID string) (agent.Stats, error) {
	st, found := r.current(agentID)
	if !found {
		return agent.Stats{}, errs.NewObjectNotFoundError("agent", agentID)
	}
	return st, nil
}

func (r *AgentStatsRepository) Seed(ctx context.Context, stats agent.Stats) (bool, error) {
	if strings.TrimSpace(stats.AgentID()) == "" {
		return false, errs.NewValueIsRequiredError("agent id")
	}
	if _, found := r.current(stats.AgentID()); found {
		return false, nil
	}

	r.uow.changes.seeds = append(r.uow.changes.seeds, stats)
	return true, r.uow.written(ctx)
}

func (r *AgentStatsRepository) RecordRating(ctx context.Context, agentID string, rating int) (agent.Stats, error) {
	if strings.TrimSpace(agentID) == "" {
		return agent.Stats{}, errs.NewValueIsRequiredError("agent id")
	}

	st, found := r.current(agentID)
	if !found {
		st, _ = agent.NewStats(agentID)
	}
	updated := st.Record(rating)

	r.uow.changes.ratings = append(r.uow.changes.ratings, stagedRating{agentID: agentID, rating: rating})
	if err := r.uow.written(ctx); err != nil {
		return agent.Stats{}, err
	}
	return updated, nil
}

// current is the stored record with this unit of work's staged changes applied.
func (r *AgentStatsRepository) current(agentID string) (agent.Stats, bool) {
	st, found := r.uow.store.agentStats(agentID)
	for _, seed := range r.uow.changes.seeds {
		if !found && seed.AgentID() == agentID {
			st, found = seed, true
		}
	}
	for _, rt := range r.uow.changes.ratings {
		if rt.agentID != agentID {
			continue
		}
		if !found {
			st, _ = agent.NewStats(agentID)
			found = true
		}
		st = st.Record(rt.rating)
	}
	return st, found
}
