package services

import "dispatch/internal/core/domain/model/kernel"

// CombinedScore weights agent quality quadratically against the distance to the
// restaurant: score² / (distance + 1).
func CombinedScore(agentScore float64, distanceKm float64) float64 {
	return agentScore * agentScore / (distanceKm + 1)
}

// CandidateProfile is what the engine knows about one candidate at scoring time.
// Position is nil when the agent never reported one.
type CandidateProfile struct {
	AgentID  string
	Score    float64
	Position *kernel.Location
}

// RankedCandidate is a profile with its desirability for one order.
type RankedCandidate struct {
	AgentID  string
	Score    float64
	Combined float64
	// DistanceKm is nil when the position is unknown.
	DistanceKm *float64
}

// Rate computes the desirability of one candidate for an order picked up at
// restaurant. Without a position the raw score is used.
func Rate(restaurant kernel.Location, p CandidateProfile) RankedCandidate {
	r := RankedCandidate{AgentID: p.AgentID, Score: p.Score, Combined: p.Score}
	if p.Position == nil {
		return r
	}
	d := kernel.DistanceKm(restaurant.Lon(), restaurant.Lat(), p.Position.Lon(), p.Position.Lat())
	r.DistanceKm = &d
	r.Combined = CombinedScore(p.Score, d)
	return r
}
