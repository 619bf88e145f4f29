package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	AgentStatsRepoFactory interface {
		AgentStatsRepository() ports.AgentStatsRepository
	}

	UoW interface {
		TxManager
		OrderRepoFactory
		AgentStatsRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
