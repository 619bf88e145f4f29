package ports

import (
	"context"
)

type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork groups repository calls in one transaction. Events recorded by the
// aggregates it saved are published after a successful Commit, never on Rollback.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	AgentStatsRepository() AgentStatsRepository
}
