// Package agent holds what the engine knows about delivery agents: their quality
// record and their last reported position.
package agent

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// DefaultAverage is the average of a record that exists but was never rated.
	DefaultAverage = 5.0
	// UnknownScore is the score of an agent without any record.
	UnknownScore = 0.0
)

// Stats is the quality record of one agent: the running sum and count of
// ratings and their average rounded to two decimals.
type Stats struct {
	agentID string
	total   float64
	count   int
	avg     float64
}

// NewStats returns the record created by a first rating, before that rating is applied.
func NewStats(agentID string) (Stats, error) {
	return SeedStats(agentID, DefaultAverage)
}

// SeedStats pre-seeds a record with a starting average and no history.
func SeedStats(agentID string, avg float64) (Stats, error) {
	if strings.TrimSpace(agentID) == "" {
		return Stats{}, errs.NewValueIsRequiredError("agent id")
	}
	if avg < 0 || avg > 5 {
		return Stats{}, errs.NewValueIsOutOfRangeError("avg rating", avg, 0, 5)
	}
	return Stats{agentID: agentID, avg: avg}, nil
}

func RestoreStats(agentID string, total float64, count int, avg float64) (Stats, error) {
	if strings.TrimSpace(agentID) == "" {
		return Stats{}, errs.NewValueIsRequiredError("agent id")
	}
	if count < 0 {
		return Stats{}, errs.NewValueIsOutOfRangeError("delivery count", count, 0, "unbounded")
	}
	return Stats{agentID: agentID, total: total, count: count, avg: avg}, nil
}

func (s Stats) AgentID() string        { return s.agentID }
func (s Stats) TotalRating() float64   { return s.total }
func (s Stats) DeliveryCount() int     { return s.count }
func (s Stats) AverageRating() float64 { return s.avg }

// Record applies one rating and recomputes the average.
func (s Stats) Record(rating int) Stats {
	s.total += float64(rating)
	s.count++
	s.avg = Average(s.total, s.count)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("Stats(%s: total=%g count=%d avg=%.2f)", s.agentID, s.total, s.count, s.avg)
}

// Average is total/count rounded to two decimals.
func Average(total float64, count int) float64 {
	if count == 0 {
		return DefaultAverage
	}
	return scalar.Round(total/float64(count), 2)
}
