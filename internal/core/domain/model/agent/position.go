package agent

import (
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Position is the last location an agent reported.
type Position struct {
	AgentID   string
	Location  kernel.Location
	UpdatedAt time.Time
}

func NewPosition(agentID string, location kernel.Location, at time.Time) (Position, error) {
	if strings.TrimSpace(agentID) == "" {
		return Position{}, errs.NewValueIsRequiredError("agent id")
	}
	if err := location.Validate(); err != nil {
		return Position{}, err
	}
	return Position{AgentID: agentID, Location: location, UpdatedAt: at.UTC()}, nil
}
