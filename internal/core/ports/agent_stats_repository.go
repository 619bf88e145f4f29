package ports

import (
	"context"

	"dispatch/internal/core/domain/model/agent"
)

// AgentStatsRepository stores agent quality records.
type AgentStatsRepository interface {
	// Get returns errs.ObjectNotFoundError for an agent without a record.
	Get(ctx context.Context, agentID string) (agent.Stats, error)

	// Seed inserts stats unless a record already exists. created reports whether it did.
	Seed(ctx context.Context, stats agent.Stats) (created bool, err error)

	// RecordRating adds one rating as a single atomic update, creating the record
	// when absent, and returns the updated record. Concurrent calls for the same
	// agent never lose an increment.
	RecordRating(ctx context.Context, agentID string, rating int) (agent.Stats, error)
}
