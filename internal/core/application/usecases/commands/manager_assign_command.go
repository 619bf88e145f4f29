package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrManagerAssignCommandIsNotConstructed = errors.New(
		"ManagerAssignCommand must be created via NewManagerAssignCommand constructor",
	)
)

// ManagerAssignCommand forces agentID onto an order, candidate or not.
type ManagerAssignCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	caller  kernel.Caller
	agentID string

	guard guard.ConstructorGuard
}

func NewManagerAssignCommand(orderID kernel.UUID, caller kernel.Caller, agentID string) (ManagerAssignCommand, error) {
	cmd := ManagerAssignCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		caller.Require(kernel.RoleManager, "assign driver"),
		cmd.setAgentID(agentID),
	); err != nil {
		return ManagerAssignCommand{}, err
	}

	cmd.orderID = orderID
	cmd.caller = caller
	return cmd, nil
}

func (c ManagerAssignCommand) Validate() error {
	return c.guard.Validate(ErrManagerAssignCommandIsNotConstructed)
}

func (c ManagerAssignCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ManagerAssignCommand) Caller() kernel.Caller {
	return c.caller
}

func (c ManagerAssignCommand) AgentID() string {
	return c.agentID
}

func (c *ManagerAssignCommand) setAgentID(agentID string) error {
	if strings.TrimSpace(agentID) == "" {
		return errs.NewValueIsRequiredError("agent id")
	}

	c.agentID = agentID
	return nil
}
