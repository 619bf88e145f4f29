// Package order models the Order aggregate and its dispatch lifecycle.
//
// An order moves pending -> ready -> assigned -> delivered, or is cancelled
// before assignment. While ready it is decorated by at most one Timer: first the
// acceptance window during which agents express interest (Candidates), then, if
// anyone did, the manager-decision window that ends in auto-assignment.
//
// Expiries never fail: an order that moved on is reported as Superseded and left
// untouched, which lets fire-once timers run without being cancelled.
package order
