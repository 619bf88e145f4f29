package queries

import (
	"math"
	"time"

	"dispatch/internal/core/domain/model/order"
)

// OrderView is the read model of one order.
type OrderView struct {
	ID             string       `json:"id"`
	ClientID       string       `json:"client_id"`
	RestaurantID   string       `json:"restaurant_id"`
	Items          []order.Item `json:"items"`
	Status         string       `json:"status"`
	Candidates     []string     `json:"candidates"`
	Timer          *TimerView   `json:"timer,omitempty"`
	AssignedDriver string       `json:"assigned_driver,omitempty"`
	ClientRating   *int         `json:"client_rating,omitempty"`
	RatedAt        *time.Time   `json:"rated_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Version        int64        `json:"version"`
}

type TimerView struct {
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderView(o *order.Order) OrderView {
	v := OrderView{
		ID:             o.ID().String(),
		ClientID:       o.ClientID(),
		RestaurantID:   o.RestaurantID(),
		Items:          o.Items(),
		Status:         o.Status().String(),
		Candidates:     o.Candidates().IDs(),
		AssignedDriver: o.AssignedDriver(),
		RatedAt:        o.RatedAt(),
		CreatedAt:      o.CreatedAt(),
		Version:        o.Version(),
	}
	if v.Candidates == nil {
		v.Candidates = []string{}
	}
	if t := o.Timer(); t.IsOpen() {
		v.Timer = &TimerView{Type: t.Kind().String(), ExpiresAt: t.ExpiresAt(), CreatedAt: t.CreatedAt()}
	}
	if o.IsRated() {
		rating := o.ClientRating()
		v.ClientRating = &rating
	}
	return v
}

func newOrderViews(orders []*order.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	return views
}

// secondsLeft rounds the remaining window up, so a live window never reads 0.
func secondsLeft(t order.Timer, now time.Time) int {
	return int(math.Ceil(t.Remaining(now).Seconds()))
}
