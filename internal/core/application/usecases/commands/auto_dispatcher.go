package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// AutoDispatcher gathers what scoring needs for one order and applies the
// winning selection to it. It never persists; callers update the order in
// their own transaction.
type AutoDispatcher struct {
	positions ports.PositionStore
	catalog   ports.RestaurantCatalog
	assigner  services.AutoAssigner
}

func NewAutoDispatcher(positions ports.PositionStore, catalog ports.RestaurantCatalog) AutoDispatcher {
	return AutoDispatcher{
		positions: positions,
		catalog:   catalog,
		assigner:  services.NewAutoAssigner(),
	}
}

func (d AutoDispatcher) Dispatch(
	ctx context.Context, stats ports.AgentStatsRepository, o *order.Order, now time.Time,
) (order.Selection, error) {
	restaurant, err := d.catalog.Location(ctx, o.RestaurantID())
	if err != nil {
		return order.Selection{}, err
	}

	profiles, err := services.ProfileCandidates(ctx, stats, d.positions, o.Candidates().IDs())
	if err != nil {
		return order.Selection{}, err
	}

	return d.assigner.Dispatch(o, restaurant, profiles, now)
}
