package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	MinRating = 1
	MaxRating = 5

	// CancelledByClientReason is the reason attached to client cancellations.
	CancelledByClientReason = "cancelled by client"
)

var (
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")
)

// Order is the aggregate root of the dispatch engine. Every transition checks its
// precondition against the current state and records exactly one event; the
// events are drained with PullEvents once the new state has been persisted.
//
// Version is the optimistic-concurrency token: a repository only applies an
// update when the stored version still equals Version().
type Order struct {
	id           kernel.UUID
	clientID     string
	restaurantID string
	items        []Item

	status         Status
	candidates     Candidates
	timer          Timer
	assignedDriver string
	clientRating   int
	ratedAt        *time.Time

	createdAt time.Time
	version   int64

	events []event.Event
	guard  guard.ConstructorGuard
}

// Selection is the outcome of auto-assignment for one order.
type Selection struct {
	AgentID string
	// Score is the agent's average rating at selection time.
	Score float64
	// Combined is the value the candidate won with: the combined score, or the raw
	// score when the agent position is unknown.
	Combined float64
	// DistanceKm is nil when the agent position is unknown.
	DistanceKm *float64
}

// Snapshot is the persisted shape of an order.
type Snapshot struct {
	ID             kernel.UUID
	ClientID       string
	RestaurantID   string
	Items          []Item
	Status         Status
	Candidates     []string
	Timer          Timer
	AssignedDriver string
	ClientRating   int
	RatedAt        *time.Time
	CreatedAt      time.Time
	Version        int64
}

// NewOrder creates a pending order and records order_created.
func NewOrder(id kernel.UUID, clientID, restaurantID string, items []Item, now time.Time) (*Order, error) {
	o := &Order{
		status:    Pending,
		createdAt: now.UTC(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setClientID(clientID),
		o.setRestaurantID(restaurantID),
		o.setItems(items),
	); err != nil {
		return nil, err
	}

	o.record(event.OrderCreated, now, map[string]any{
		"order_id": o.id.String(),
		"details": map[string]any{
			"client":     o.clientID,
			"restaurant": o.restaurantID,
			"items":      o.Items(),
			"status":     o.status.String(),
		},
	})
	return o, nil
}

// RestoreOrder rebuilds an order from storage and re-checks the structural invariants.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		status:         s.Status,
		candidates:     NewCandidates(s.Candidates...),
		timer:          s.Timer,
		assignedDriver: s.AssignedDriver,
		clientRating:   s.ClientRating,
		ratedAt:        s.RatedAt,
		createdAt:      s.CreatedAt.UTC(),
		version:        s.Version,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setClientID(s.ClientID),
		o.setRestaurantID(s.RestaurantID),
		o.setItems(s.Items),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if err := o.checkInvariants(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID        { return o.id }
func (o *Order) ClientID() string       { return o.clientID }
func (o *Order) RestaurantID() string   { return o.restaurantID }
func (o *Order) Items() []Item          { return slices.Clone(o.items) }
func (o *Order) Status() Status         { return o.status }
func (o *Order) Candidates() Candidates { return o.candidates }
func (o *Order) Timer() Timer           { return o.timer }
func (o *Order) AssignedDriver() string { return o.assignedDriver }
func (o *Order) ClientRating() int      { return o.clientRating }
func (o *Order) RatedAt() *time.Time    { return o.ratedAt }
func (o *Order) CreatedAt() time.Time   { return o.createdAt }
func (o *Order) Version() int64         { return o.version }
func (o *Order) IsRated() bool          { return o.clientRating != 0 }

func (o *Order) AwaitingManagerDecision() bool {
	return o.status == Ready && o.timer.Kind() == ManagerDecision
}

// Snapshot copies the persisted fields.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:             o.id,
		ClientID:       o.clientID,
		RestaurantID:   o.restaurantID,
		Items:          o.Items(),
		Status:         o.status,
		Candidates:     o.candidates.IDs(),
		Timer:          o.timer,
		AssignedDriver: o.assignedDriver,
		ClientRating:   o.clientRating,
		RatedAt:        o.ratedAt,
		CreatedAt:      o.createdAt,
		Version:        o.version,
	}
}

// BumpVersion is called by repositories after a successful conditional write.
func (o *Order) BumpVersion() {
	o.version++
}

// PullEvents returns the recorded events and forgets them.
func (o *Order) PullEvents() []event.Event {
	events := o.events
	o.events = nil
	return events
}

// MarkReady opens the acceptance window. Only the restaurant the order was placed
// with may call it, and only once.
func (o *Order) MarkReady(caller kernel.Caller, policy WindowPolicy, now time.Time) (WindowTask, error) {
	if err := caller.Require(kernel.RoleRestaurant, "mark order ready"); err != nil {
		return WindowTask{}, err
	}
	if caller.ID() != o.restaurantID {
		return WindowTask{}, errs.NewUnauthorizedError(caller.ID(), "mark order ready")
	}
	next, err := o.status.MarkReady()
	if err != nil {
		return WindowTask{}, err
	}

	o.status = next
	o.timer = openTimer(AcceptanceWindow, now, policy.Acceptance)
	o.record(event.OrderReady, now, map[string]any{
		"order_id":   o.id.String(),
		"expires_at": o.timer.ExpiresAt(),
	})
	return o.task(), nil
}

// ExpressInterest adds agentID to the candidates while the acceptance window is
// open. added is false when the agent was already a candidate; nothing is recorded
// in that case.
func (o *Order) ExpressInterest(agentID string, agentScore float64, now time.Time) (bool, error) {
	if strings.TrimSpace(agentID) == "" {
		return false, errs.NewValueIsRequiredError("agent id")
	}
	if o.status != Ready || o.timer.Kind() != AcceptanceWindow || o.timer.Expired(now) {
		return false, errs.NewWindowClosedError(o.id.String())
	}
	if !o.candidates.add(agentID) {
		return false, nil
	}

	o.record(event.DriverInterest, now, map[string]any{
		"order_id":     o.id.String(),
		"driver_id":    agentID,
		"driver_score": agentScore,
	})
	return true, nil
}

// ExpiryOutcome says what a window expiry did to the order.
type ExpiryOutcome int

const (
	// Superseded means the order moved on before the window fired; nothing changed.
	Superseded ExpiryOutcome = iota
	NoCandidatesLeft
	ManagerDecisionOpened
	AutoAssigned
)

func (e ExpiryOutcome) String() string {
	switch e {
	case NoCandidatesLeft:
		return "no_candidates"
	case ManagerDecisionOpened:
		return "manager_decision_started"
	case AutoAssigned:
		return "auto_assigned"
	default:
		return "superseded"
	}
}

// ExpireAcceptance closes the acceptance window. Without candidates the timer is
// cleared for good; otherwise the manager-decision window opens and its task is
// returned. An order that is no longer ready, or whose open window is not the
// acceptance window, is left untouched.
func (o *Order) ExpireAcceptance(policy WindowPolicy, now time.Time) (ExpiryOutcome, WindowTask) {
	if o.status != Ready || o.timer.Kind() != AcceptanceWindow {
		return Superseded, WindowTask{}
	}

	if o.candidates.IsEmpty() {
		o.timer = NoTimer()
		o.record(event.NoCandidates, now, map[string]any{
			"order_id": o.id.String(),
		})
		return NoCandidatesLeft, WindowTask{}
	}

	o.timer = openTimer(ManagerDecision, now, policy.ManagerDecision)
	o.record(event.ManagerDecisionStarted, now, map[string]any{
		"order_id":         o.id.String(),
		"candidates_count": o.candidates.Len(),
		"expires_at":       o.timer.ExpiresAt(),
	})
	return ManagerDecisionOpened, o.task()
}

// AbandonManagerDecision clears a manager-decision window that has nobody left to
// pick from.
func (o *Order) AbandonManagerDecision(now time.Time) ExpiryOutcome {
	if !o.AwaitingManagerDecision() {
		return Superseded
	}
	o.timer = NoTimer()
	o.record(event.NoCandidates, now, map[string]any{
		"order_id": o.id.String(),
	})
	return NoCandidatesLeft
}

// ManagerAssign is the manual override: any agent, at any time while ready.
func (o *Order) ManagerAssign(caller kernel.Caller, agentID string, now time.Time) error {
	if err := caller.Require(kernel.RoleManager, "assign driver"); err != nil {
		return err
	}
	if strings.TrimSpace(agentID) == "" {
		return errs.NewValueIsRequiredError("agent id")
	}
	if err := o.assign(agentID); err != nil {
		return err
	}

	o.record(event.DriverAssigned, now, map[string]any{
		"order_id":    o.id.String(),
		"driver_id":   agentID,
		"assigned_by": caller.ID(),
	})
	return nil
}

// AutoAssign applies a selection computed over the current candidates.
func (o *Order) AutoAssign(sel Selection, now time.Time) error {
	if o.status != Ready {
		return errs.NewInvalidStateError("auto assign", o.status.String())
	}
	if !o.candidates.Contains(sel.AgentID) {
		return errs.NewValueIsInvalidErrorWithCause("agent id",
			fmt.Errorf("%s is not a candidate for order %s", sel.AgentID, o.id))
	}
	if err := o.assign(sel.AgentID); err != nil {
		return err
	}

	var distance any
	if sel.DistanceKm != nil {
		distance = *sel.DistanceKm
	}
	o.record(event.AutoAssignment, now, map[string]any{
		"order_id":       o.id.String(),
		"driver_id":      sel.AgentID,
		"score":          sel.Score,
		"combined_score": sel.Combined,
		"distance":       distance,
	})
	return nil
}

// MarkDelivered may be called by the assigned driver or by a manager.
func (o *Order) MarkDelivered(caller kernel.Caller, now time.Time) error {
	if err := caller.Validate(); err != nil {
		return err
	}
	if !caller.Is(kernel.RoleManager) && (!caller.Is(kernel.RoleDriver) || caller.ID() != o.assignedDriver) {
		return errs.NewUnauthorizedError(caller.ID(), "mark order delivered")
	}
	next, err := o.status.Deliver()
	if err != nil {
		return err
	}

	o.status = next
	o.record(event.OrderDelivered, now, map[string]any{
		"order_id":  o.id.String(),
		"driver_id": o.assignedDriver,
	})
	return nil
}

// Cancel is reserved to the client who placed the order, before any assignment.
func (o *Order) Cancel(caller kernel.Caller, now time.Time) error {
	if err := o.requireOwner(caller, "cancel order"); err != nil {
		return err
	}
	next, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = next
	o.candidates.clear()
	o.timer = NoTimer()
	o.record(event.OrderCancelled, now, map[string]any{
		"order_id": o.id.String(),
		"client":   caller.ID(),
		"reason":   CancelledByClientReason,
	})
	return nil
}

// Rate records the client's rating of the delivering agent. Checks run in order:
// range, ownership, delivered, not yet rated.
func (o *Order) Rate(caller kernel.Caller, rating int, now time.Time) error {
	if err := ValidateRating(rating); err != nil {
		return err
	}
	if err := o.requireOwner(caller, "rate this order"); err != nil {
		return err
	}
	if o.status != Delivered {
		return errs.NewInvalidStateError("rate driver", o.status.String())
	}
	if o.IsRated() {
		return errs.NewAlreadyRatedError(o.id.String())
	}

	at := now.UTC()
	o.clientRating = rating
	o.ratedAt = &at
	o.record(event.DriverRated, now, map[string]any{
		"order_id":  o.id.String(),
		"driver_id": o.assignedDriver,
		"rating":    rating,
		"client":    caller.ID(),
	})
	return nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, MinRating, MaxRating)
	}
	return nil
}

func (o *Order) assign(agentID string) error {
	next, err := o.status.Assign()
	if err != nil {
		return err
	}
	o.status = next
	o.assignedDriver = agentID
	o.candidates.clear()
	o.timer = NoTimer()
	return nil
}

func (o *Order) requireOwner(caller kernel.Caller, action string) error {
	if err := caller.Require(kernel.RoleClient, action); err != nil {
		return err
	}
	if caller.ID() != o.clientID {
		return errs.NewUnauthorizedError(caller.ID(), action)
	}
	return nil
}

func (o *Order) task() WindowTask {
	return WindowTask{OrderID: o.id, Kind: o.timer.Kind(), FireAt: o.timer.ExpiresAt()}
}

func (o *Order) record(t event.Type, now time.Time, payload map[string]any) {
	o.events = append(o.events, event.New(t, payload, now))
}

func (o *Order) checkInvariants() error {
	if o.timer.IsOpen() && o.status != Ready {
		return errs.NewValueIsInvalidErrorWithCause("timer",
			fmt.Errorf("a %s order cannot hold an open window", o.status))
	}
	if !o.candidates.IsEmpty() && o.status != Ready {
		return errs.NewValueIsInvalidErrorWithCause("candidates",
			fmt.Errorf("a %s order cannot hold candidates", o.status))
	}
	if o.status.HasDriver() != (o.assignedDriver != "") {
		return errs.NewValueIsInvalidErrorWithCause("assigned driver",
			fmt.Errorf("status %s does not match assigned driver %q", o.status, o.assignedDriver))
	}
	if o.clientRating != 0 {
		if o.status != Delivered {
			return errs.NewValueIsInvalidErrorWithCause("client rating",
				fmt.Errorf("a %s order cannot be rated", o.status))
		}
		if err := ValidateRating(o.clientRating); err != nil {
			return err
		}
	}
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setClientID(clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return errs.NewValueIsRequiredError("client id")
	}
	o.clientID = clientID
	return nil
}

func (o *Order) setRestaurantID(restaurantID string) error {
	if strings.TrimSpace(restaurantID) == "" {
		return errs.NewValueIsRequiredError("restaurant id")
	}
	o.restaurantID = restaurantID
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d]", i), err)
		}
	}
	o.items = slices.Clone(items)
	return nil
}
