package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status is the single source of truth for the workflow stage of an order.
//
//	Pending -> Ready -> Assigned -> Delivered
//	Pending -> Cancelled, Ready -> Cancelled
//
// Delivered and Cancelled are terminal.
type Status int

const (
	// Unknown is the zero value and never valid.
	Unknown Status = iota
	Pending
	Ready
	Assigned
	Delivered
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Ready:     "ready",
		Assigned:  "assigned",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// ParseStatus is the inverse of String for stored and query values.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// HasDriver reports whether an order in this status must carry an assigned driver.
func (s Status) HasDriver() bool {
	return s == Assigned || s == Delivered
}

func (s Status) MarkReady() (Status, error) {
	if s != Pending {
		return Unknown, errs.NewInvalidStateError("mark ready", s.String())
	}
	return Ready, nil
}

func (s Status) Assign() (Status, error) {
	if s != Ready {
		return Unknown, errs.NewInvalidStateError("assign driver", s.String())
	}
	return Assigned, nil
}

func (s Status) Deliver() (Status, error) {
	if s != Assigned {
		return Unknown, errs.NewInvalidStateError("mark delivered", s.String())
	}
	return Delivered, nil
}

func (s Status) Cancel() (Status, error) {
	if s != Pending && s != Ready {
		return Unknown, errs.NewInvalidStateError("cancel", s.String())
	}
	return Cancelled, nil
}
