package services

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// AgentScore is the score auto-assignment uses for an agent: the average rating,
// or agent.UnknownScore when the agent has no record at all.
func AgentScore(ctx context.Context, stats ports.AgentStatsRepository, agentID string) (float64, error) {
	s, err := stats.Get(ctx, agentID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return agent.UnknownScore, nil
	}
	if err != nil {
		return 0, err
	}
	return s.AverageRating(), nil
}

// ProfileCandidates loads score and last position for every candidate, keeping
// the candidate order.
func ProfileCandidates(
	ctx context.Context,
	stats ports.AgentStatsRepository,
	positions ports.PositionStore,
	agentIDs []string,
) ([]CandidateProfile, error) {
	profiles := make([]CandidateProfile, 0, len(agentIDs))
	for _, id := range agentIDs {
		score, err := AgentScore(ctx, stats, id)
		if err != nil {
			return nil, err
		}

		profile := CandidateProfile{AgentID: id, Score: score}

		pos, found, err := positions.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			loc := pos.Location
			profile.Position = &loc
		}

		profiles = append(profiles, profile)
	}
	return profiles, nil
}
