// Package redisgeo keeps agent positions in a Redis GEO set.
package redisgeo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultKey = "dispatch:agent_positions"

	updatedAtSuffix = ":updated_at"
)

// PositionStore writes each agent as one member of a GEO set. Redis stores
// coordinates as a 52-bit geohash, so a read returns them within a fraction
// of a metre of what was saved.
type PositionStore struct {
	client *redis.Client
	key    string
}

func NewPositionStore(client *redis.Client, key string) *PositionStore {
	if key == "" {
		key = DefaultKey
	}
	return &PositionStore{client: client, key: key}
}

// Dial builds a client from a redis:// URL and checks the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("redis url", err)
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errs.NewStoreError("connect redis", err)
	}
	return client, nil
}

func (s *PositionStore) Save(ctx context.Context, position agent.Position) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, s.key, &redis.GeoLocation{
			Name:      position.AgentID,
			Longitude: position.Location.Lon(),
			Latitude:  position.Location.Lat(),
		})
		pipe.HSet(ctx, s.key+updatedAtSuffix, position.AgentID, position.UpdatedAt.UTC().Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return errs.NewStoreError("save position", err)
	}
	return nil
}

func (s *PositionStore) Get(ctx context.Context, agentID string) (agent.Position, bool, error) {
	positions, err := s.client.GeoPos(ctx, s.key, agentID).Result()
	if err != nil {
		return agent.Position{}, false, errs.NewStoreError("get position", err)
	}
	if len(positions) == 0 || positions[0] == nil {
		return agent.Position{}, false, nil
	}

	location, err := kernel.NewLocation(positions[0].Longitude, positions[0].Latitude)
	if err != nil {
		return agent.Position{}, false, err
	}

	var updatedAt time.Time
	raw, err := s.client.HGet(ctx, s.key+updatedAtSuffix, agentID).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return agent.Position{}, false, errs.NewStoreError("get position", err)
	default:
		if updatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return agent.Position{}, false, errs.NewValueIsInvalidErrorWithCause("position timestamp", err)
		}
	}

	return agent.Position{AgentID: agentID, Location: location, UpdatedAt: updatedAt}, true, nil
}
