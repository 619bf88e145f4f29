package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrRateDriverCommandIsNotConstructed = errors.New(
		"RateDriverCommand must be created via NewRateDriverCommand constructor",
	)
)

// RateDriverCommand carries the client's 1 to 5 rating of a delivery.
type RateDriverCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	caller  kernel.Caller
	rating  int

	guard guard.ConstructorGuard
}

// NewRateDriverCommand checks the rating range before anything else, so an out
// of range rating is rejected even for an order that does not exist.
func NewRateDriverCommand(orderID kernel.UUID, caller kernel.Caller, rating int) (RateDriverCommand, error) {
	if err := order.ValidateRating(rating); err != nil {
		return RateDriverCommand{}, err
	}
	if err := errors.Join(orderID.Validate(), caller.Validate()); err != nil {
		return RateDriverCommand{}, err
	}

	return RateDriverCommand{
		orderID: orderID,
		caller:  caller,
		rating:  rating,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c RateDriverCommand) Validate() error {
	return c.guard.Validate(ErrRateDriverCommandIsNotConstructed)
}

func (c RateDriverCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RateDriverCommand) Caller() kernel.Caller {
	return c.caller
}

func (c RateDriverCommand) Rating() int {
	return c.rating
}
