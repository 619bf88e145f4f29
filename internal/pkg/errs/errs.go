package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrObjectNotFound is returned when an order or agent record does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrValueIsInvalid is returned when a value fails validation.
	ErrValueIsInvalid = errors.New("value is invalid")
	// ErrValueIsOutOfRange is returned when a numeric value is outside its allowed bounds.
	ErrValueIsOutOfRange = errors.New("value is out of range")
	// ErrValueIsRequired is returned when a mandatory value is missing.
	ErrValueIsRequired = errors.New("value is required")
	// ErrInvalidInput groups every malformed-input error. ValueIsInvalid, ValueIsOutOfRange
	// and ValueIsRequired all match it with errors.Is.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when the caller does not own the resource or lacks the role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidState is returned when an operation is not valid for the current order status.
	ErrInvalidState = errors.New("invalid state")
	// ErrWindowClosed is returned when interest is expressed outside an active acceptance window.
	ErrWindowClosed = errors.New("window closed")
	// ErrAlreadyRated is returned when a delivered order already carries a client rating.
	ErrAlreadyRated = errors.New("already rated")
	// ErrVersionConflict is returned by a conditional update that lost a race.
	ErrVersionConflict = errors.New("version conflict")
	// ErrStore wraps persistence failures.
	ErrStore = errors.New("store error")
)

// ObjectNotFoundError reports a missing object by parameter name and identifier.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{
		ParamName: paramName,
		ID:        id,
	}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{
		ParamName: paramName,
		ID:        id,
		Cause:     cause,
	}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)",
			ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError reports a value that failed validation.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{
		ParamName: paramName,
	}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{
		ParamName: paramName,
		Cause:     cause,
	}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

func (e *ValueIsInvalidError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValueIsOutOfRangeError reports a value outside [Min, Max].
type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value any, minValue any, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{
		ParamName: paramName,
		Value:     value,
		Min:       minValue,
		Max:       maxValue,
	}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string, value any, minValue any, maxValue any, cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{
		ParamName: paramName,
		Value:     value,
		Min:       minValue,
		Max:       maxValue,
		Cause:     cause,
	}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %v is %s, min value is %v, max value is %v",
		ErrValueIsInvalid, sanitize(e.Value), e.ParamName, sanitize(e.Min), sanitize(e.Max))
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

func (e *ValueIsOutOfRangeError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValueIsRequiredError reports a missing mandatory value.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{
		ParamName: paramName,
	}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{
		ParamName: paramName,
		Cause:     cause,
	}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

func (e *ValueIsRequiredError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UnauthorizedError reports that Caller may not perform Action on a resource.
type UnauthorizedError struct {
	Caller string
	Action string
}

func NewUnauthorizedError(caller string, action string) *UnauthorizedError {
	return &UnauthorizedError{
		Caller: caller,
		Action: action,
	}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: %s may not %s", ErrUnauthorized, e.Caller, e.Action)
}

func (e *UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

// InvalidStateError reports an operation attempted against an incompatible status.
type InvalidStateError struct {
	Operation string
	State     string
}

func NewInvalidStateError(operation string, state string) *InvalidStateError {
	return &InvalidStateError{
		Operation: operation,
		State:     state,
	}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", ErrInvalidState, e.Operation, e.State)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// WindowClosedError reports interest expressed while no acceptance window is open.
type WindowClosedError struct {
	OrderID string
}

func NewWindowClosedError(orderID string) *WindowClosedError {
	return &WindowClosedError{OrderID: orderID}
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("%s: order %s is not accepting interest", ErrWindowClosed, e.OrderID)
}

func (e *WindowClosedError) Unwrap() error {
	return ErrWindowClosed
}

// AlreadyRatedError reports a second rating attempt on the same order.
type AlreadyRatedError struct {
	OrderID string
}

func NewAlreadyRatedError(orderID string) *AlreadyRatedError {
	return &AlreadyRatedError{OrderID: orderID}
}

func (e *AlreadyRatedError) Error() string {
	return fmt.Sprintf("%s: order %s", ErrAlreadyRated, e.OrderID)
}

func (e *AlreadyRatedError) Unwrap() error {
	return ErrAlreadyRated
}

// VersionConflictError is returned when a conditional update finds a newer record than expected.
type VersionConflictError struct {
	Entity  string
	ID      any
	Version int64
}

func NewVersionConflictError(entity string, id any, version int64) *VersionConflictError {
	return &VersionConflictError{
		Entity:  entity,
		ID:      id,
		Version: version,
	}
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("%s: %s %v is no longer at version %d", ErrVersionConflict, e.Entity, e.ID, e.Version)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// StoreError wraps a failure of the backing store.
type StoreError struct {
	Operation string
	Cause     error
}

func NewStoreError(operation string, cause error) *StoreError {
	return &StoreError{
		Operation: operation,
		Cause:     cause,
	}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrStore, e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Cause}
}

func sanitize(v any) string {
	return strings.ReplaceAll(fmt.Sprint(v), "\n", " ")
}
