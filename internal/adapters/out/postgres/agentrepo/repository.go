package agentrepo

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordRatingSQL adds one rating in a single statement. Postgres serialises
// concurrent upserts of the same agent on the row lock, so no increment is lost.
const recordRatingSQL = `
INSERT INTO agent_stats (agent_id, total_rating, delivery_count, avg_rating, updated_at)
VALUES (@agent, @rating, 1, ROUND(CAST(@rating AS numeric), 2), NOW())
ON CONFLICT (agent_id) DO UPDATE SET
	total_rating   = agent_stats.total_rating + EXCLUDED.total_rating,
	delivery_count = agent_stats.delivery_count + 1,
	avg_rating     = ROUND(((agent_stats.total_rating + EXCLUDED.total_rating)
	                       / (agent_stats.delivery_count + 1))::numeric, 2),
	updated_at     = NOW()
RETURNING agent_id, total_rating, delivery_count, avg_rating, updated_at`

type GormAgentStatsRepository struct {
	db *gorm.DB
}

func NewGormAgentStatsRepository(db *gorm.DB) *GormAgentStatsRepository {
	return &GormAgentStatsRepository{db: db}
}

func (r *GormAgentStatsRepository) Get(ctx context.Context, agentID string) (agent.Stats, error) {
	var dto AgentStatsDTO
	if err := r.db.WithContext(ctx).First(&dto, "agent_id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return agent.Stats{}, errs.NewObjectNotFoundError("agent", agentID)
		}
		return agent.Stats{}, errs.NewStoreError("get agent stats", err)
	}
	return toDomain(dto)
}

func (r *GormAgentStatsRepository) Seed(ctx context.Context, stats agent.Stats) (bool, error) {
	if strings.TrimSpace(stats.AgentID()) == "" {
		return false, errs.NewValueIsRequiredError("agent id")
	}

	dto := fromDomain(stats)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
	if result.Error != nil {
		return false, errs.NewStoreError("seed agent stats", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormAgentStatsRepository) RecordRating(ctx context.Context, agentID string, rating int) (agent.Stats, error) {
	if strings.TrimSpace(agentID) == "" {
		return agent.Stats{}, errs.NewValueIsRequiredError("agent id")
	}

	var dto AgentStatsDTO
	err := r.db.WithContext(ctx).
		Raw(recordRatingSQL, map[string]any{"agent": agentID, "rating": float64(rating)}).
		Scan(&dto).Error
	if err != nil {
		return agent.Stats{}, errs.NewStoreError("record rating", err)
	}
	return toDomain(dto)
}
