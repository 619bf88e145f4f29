// Package agentrepo persists agent quality records in the "agent_stats" table.
package agentrepo

import (
	"time"

	"dispatch/internal/core/domain/model/agent"
)

type AgentStatsDTO struct {
	AgentID       string  `gorm:"primaryKey"`
	TotalRating   float64 `gorm:"not null;default:0"`
	DeliveryCount int     `gorm:"not null;default:0"`
	AvgRating     float64 `gorm:"not null;default:5"`
	UpdatedAt     time.Time
}

func (AgentStatsDTO) TableName() string {
	return "agent_stats"
}

func fromDomain(s agent.Stats) AgentStatsDTO {
	return AgentStatsDTO{
		AgentID:       s.AgentID(),
		TotalRating:   s.TotalRating(),
		DeliveryCount: s.DeliveryCount(),
		AvgRating:     s.AverageRating(),
	}
}

func toDomain(dto AgentStatsDTO) (agent.Stats, error) {
	return agent.RestoreStats(dto.AgentID, dto.TotalRating, dto.DeliveryCount, dto.AvgRating)
}
