// Package catalog supplies restaurant pickup coordinates from configuration.
package catalog

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// Static answers from a fixed table. Restaurants missing from the table get the
// fallback location.
type Static struct {
	fallback  kernel.Location
	locations map[string]kernel.Location
}

func NewStatic(fallback kernel.Location, locations map[string]kernel.Location) *Static {
	table := make(map[string]kernel.Location, len(locations))
	for id, l := range locations {
		table[id] = l
	}
	return &Static{fallback: fallback, locations: table}
}

func (s *Static) Location(_ context.Context, restaurantID string) (kernel.Location, error) {
	if l, ok := s.locations[restaurantID]; ok {
		return l, nil
	}
	return s.fallback, nil
}
