// Package event describes the immutable records the engine appends to the event log.
package event

import (
	"time"
)

// Type names one logical transition.
type Type string

const (
	OrderCreated           Type = "order_created"
	OrderReady             Type = "order_ready"
	DriverInterest         Type = "driver_interest"
	ManagerDecisionStarted Type = "manager_decision_started"
	NoCandidates           Type = "no_candidates"
	DriverAssigned         Type = "driver_assigned"
	AutoAssignment         Type = "auto_assignment"
	OrderDelivered         Type = "order_delivered"
	OrderCancelled         Type = "order_cancelled"
	DriverRated            Type = "driver_rated"
	PositionUpdated        Type = "position_updated"
)

// Event is never mutated once built.
type Event struct {
	Type      Type           `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

func New(t Type, payload map[string]any, at time.Time) Event {
	return Event{
		Type:      t,
		Payload:   payload,
		Timestamp: at.UTC(),
	}
}

// OrderID returns the order_id payload field, or "" for agent-level events.
func (e Event) OrderID() string {
	id, _ := e.Payload["order_id"].(string)
	return id
}
