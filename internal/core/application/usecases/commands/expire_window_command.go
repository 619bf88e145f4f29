package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrExpireWindowCommandIsNotConstructed = errors.New(
		"ExpireWindowCommand must be created via NewExpireWindowCommand constructor",
	)
)

// ExpireWindowCommand is emitted by the scheduler when a decision window runs out.
type ExpireWindowCommand struct { //nolint:recvcheck //using for validation
	task order.WindowTask

	guard guard.ConstructorGuard
}

func NewExpireWindowCommand(task order.WindowTask) (ExpireWindowCommand, error) {
	if err := task.OrderID.Validate(); err != nil {
		return ExpireWindowCommand{}, err
	}
	if task.Kind != order.AcceptanceWindow && task.Kind != order.ManagerDecision {
		return ExpireWindowCommand{}, errs.NewValueIsInvalidError("timer kind")
	}

	return ExpireWindowCommand{
		task:  task,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c ExpireWindowCommand) Validate() error {
	return c.guard.Validate(ErrExpireWindowCommandIsNotConstructed)
}

func (c ExpireWindowCommand) Task() order.WindowTask {
	return c.task
}
