package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrUpdatePositionCommandIsNotConstructed = errors.New(
		"UpdatePositionCommand must be created via NewUpdatePositionCommand constructor",
	)
)

// UpdatePositionCommand reports where the calling driver currently is.
// Coordinates are pointers so that a missing value is told apart from zero.
type UpdatePositionCommand struct { //nolint:recvcheck //using for validation
	caller   kernel.Caller
	location kernel.Location

	guard guard.ConstructorGuard
}

func NewUpdatePositionCommand(caller kernel.Caller, lon *float64, lat *float64) (UpdatePositionCommand, error) {
	if err := caller.Require(kernel.RoleDriver, "update position"); err != nil {
		return UpdatePositionCommand{}, err
	}

	var missing []error
	if lon == nil {
		missing = append(missing, errs.NewValueIsRequiredError("longitude"))
	}
	if lat == nil {
		missing = append(missing, errs.NewValueIsRequiredError("latitude"))
	}
	if len(missing) > 0 {
		return UpdatePositionCommand{}, errors.Join(missing...)
	}

	location, err := kernel.NewLocation(*lon, *lat)
	if err != nil {
		return UpdatePositionCommand{}, err
	}

	return UpdatePositionCommand{
		caller:   caller,
		location: location,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c UpdatePositionCommand) Validate() error {
	return c.guard.Validate(ErrUpdatePositionCommandIsNotConstructed)
}

func (c UpdatePositionCommand) AgentID() string {
	return c.caller.ID()
}

func (c UpdatePositionCommand) Location() kernel.Location {
	return c.location
}
