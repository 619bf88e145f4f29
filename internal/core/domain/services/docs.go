// Package services contains the scoring rules of the dispatch engine: the
// combined desirability score and the auto-assignment that applies it to the
// candidates of an order.
package services
