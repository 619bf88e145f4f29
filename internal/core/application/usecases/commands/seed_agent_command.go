package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/pkg/guard"
)

var (
	ErrSeedAgentCommandIsNotConstructed = errors.New(
		"SeedAgentCommand must be created via NewSeedAgentCommand constructor",
	)
)

// SeedAgentCommand pre-registers an agent with a starting average.
type SeedAgentCommand struct { //nolint:recvcheck //using for validation
	stats agent.Stats

	guard guard.ConstructorGuard
}

func NewSeedAgentCommand(agentID string, avg float64) (SeedAgentCommand, error) {
	stats, err := agent.SeedStats(agentID, avg)
	if err != nil {
		return SeedAgentCommand{}, err
	}

	return SeedAgentCommand{
		stats: stats,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c SeedAgentCommand) Validate() error {
	return c.guard.Validate(ErrSeedAgentCommandIsNotConstructed)
}

func (c SeedAgentCommand) Stats() agent.Stats {
	return c.stats
}
