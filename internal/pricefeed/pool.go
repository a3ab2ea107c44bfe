/*

This file contains the pool statistics source. The exchange does not expose
per-pool fee telemetry, so the stats are configured at startup and treated
as constants for the life of the process.

*/

package pricefeed

import (
	"context"
	"fmt"

	"github.com/Div1912/Ageis/internal/types"
)

// StaticPoolStats serves the configured pool parameters.
type StaticPoolStats struct {
	stats types.PoolStats
}

// NewStaticPoolStats validates and wraps the configured pool parameters.
func NewStaticPoolStats(stats types.PoolStats) (*StaticPoolStats, error) {
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("pricefeed: %w", err)
	}
	return &StaticPoolStats{stats: stats}, nil
}

// ReadPoolStats returns the configured parameters.
func (s *StaticPoolStats) ReadPoolStats(_ context.Context) (types.PoolStats, error) {
	return s.stats, nil
}
