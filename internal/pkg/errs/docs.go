// Package errs holds the error taxonomy of the dispatch engine.
//
// Every kind follows the same shape: a sentinel (ErrObjectNotFound, ErrWindowClosed, ...),
// a struct carrying the details and an Unwrap method returning the sentinel, so callers
// classify failures with errors.Is and read details with errors.As.
//
// Kinds surfaced to callers:
//   - ObjectNotFound: unknown order or agent
//   - Unauthorized: caller role or ownership mismatch
//   - InvalidState: operation not valid for the current order status
//   - WindowClosed: interest expressed outside an acceptance window
//   - AlreadyRated: second rating on a delivered order
//   - ValueIsInvalid, ValueIsOutOfRange, ValueIsRequired: malformed input, all matching ErrInvalidInput
//   - Store: persistence failures
//
// VersionConflict is internal: it marks the loser of a conditional update and is retried by
// the command layer against the fresh record.
package errs
