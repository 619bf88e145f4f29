package commands

import (
	"context"
)

// SeedAgentCommandHandler leaves existing records alone; created reports
// whether a record was written.
type SeedAgentCommandHandler struct {
	uowFactory UoWFactory
}

func NewSeedAgentCommandHandler(uowFactory UoWFactory) SeedAgentCommandHandler {
	return SeedAgentCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h SeedAgentCommandHandler) Handle(ctx context.Context, cmd SeedAgentCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := uow.AgentStatsRepository().Seed(ctx, cmd.Stats())
	if err != nil {
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return created, nil
}
