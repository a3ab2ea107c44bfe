/*

This file contains the types describing the on-chain position and the market
data read fresh at the start of every cycle.

*/

package types

import (
	"errors"
	"time"
)

// PositionSnapshot is a read-only view of the concentrated-liquidity position
// as recorded in the holding contract's global state. A new snapshot is read
// each cycle; it is never mutated after construction.
type PositionSnapshot struct {
	EntryPrice     float64   `json:"entry_price"`
	LowerBound     float64   `json:"lower_bound"`
	UpperBound     float64   `json:"upper_bound"`
	Capital        float64   `json:"capital_usdc"` // USD value deployed in the range
	RebalanceCount uint64    `json:"total_rebalances"`
	OpenedAt       time.Time `json:"opened_at"`
}

// Validate checks the structural invariants of the snapshot.
func (p PositionSnapshot) Validate() error {
	if p.LowerBound >= p.UpperBound {
		return errors.New("position lower bound must be below upper bound")
	}
	if p.Capital < 0 {
		return errors.New("position capital cannot be negative")
	}
	return nil
}

// InRange reports whether the given price sits inside the position's range.
func (p PositionSnapshot) InRange(price float64) bool {
	return price >= p.LowerBound && price <= p.UpperBound
}

// PriceQuote is a single observed market price.
type PriceQuote struct {
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source,omitempty"` // "feed", "cache" or "fallback"
}

// PoolStats holds the liquidity-pool parameters used for fee projection.
type PoolStats struct {
	FeeRate     float64 `json:"fee_rate"` // fraction, e.g. 0.003 for 0.3%
	Liquidity   float64 `json:"liquidity"`
	TickSpacing uint64  `json:"tick_spacing"`
}

// Validate checks the pool parameter invariants.
func (p PoolStats) Validate() error {
	if p.FeeRate < 0 || p.FeeRate >= 1 {
		return errors.New("pool fee rate must be in [0, 1)")
	}
	return nil
}
