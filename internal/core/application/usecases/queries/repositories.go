// Package queries contains the read operations of the dispatch engine. Handlers
// read through the repository ports outside any transaction, so every store
// adapter serves them unchanged.
package queries

import (
	"dispatch/internal/core/ports"
)

type (
	Repositories interface {
		OrderRepository() ports.OrderRepository
		AgentStatsRepository() ports.AgentStatsRepository
	}

	RepositoriesFactory interface {
		Create() Repositories
	}
)
