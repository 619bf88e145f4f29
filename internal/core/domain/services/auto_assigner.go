package services

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"gonum.org/v1/gonum/floats"
)

var ErrNoCandidates = errors.New("no candidate to auto-assign")

// AutoAssigner picks the candidate with the strictly highest combined score.
type AutoAssigner struct{}

func NewAutoAssigner() AutoAssigner {
	return AutoAssigner{}
}

// Dispatch selects among profiles and assigns the winner to o.
func (a AutoAssigner) Dispatch(
	o *order.Order, restaurant kernel.Location, profiles []CandidateProfile, now time.Time,
) (order.Selection, error) {
	if err := errors.Join(o.Validate(), restaurant.Validate()); err != nil {
		return order.Selection{}, err
	}

	sel, err := a.Select(restaurant, profiles)
	if err != nil {
		return order.Selection{}, err
	}

	if err = o.AutoAssign(sel, now); err != nil {
		return order.Selection{}, err
	}
	return sel, nil
}

// Select returns the winning candidate. Ties keep the earliest profile, so the
// caller controls tie-breaking through the profile order.
func (a AutoAssigner) Select(restaurant kernel.Location, profiles []CandidateProfile) (order.Selection, error) {
	if len(profiles) == 0 {
		return order.Selection{}, ErrNoCandidates
	}

	rated := make([]RankedCandidate, len(profiles))
	values := make([]float64, len(profiles))
	for i, p := range profiles {
		rated[i] = Rate(restaurant, p)
		values[i] = rated[i].Combined
	}

	best := rated[floats.MaxIdx(values)]
	return order.Selection{
		AgentID:    best.AgentID,
		Score:      best.Score,
		Combined:   best.Combined,
		DistanceKm: best.DistanceKm,
	}, nil
}
