/*

This file contains the decision engine's output types and the schema of the
persisted decision log.

*/

package types

import "time"

// Action is the outcome of one evaluation cycle.
type Action string

const (
	ActionHold      Action = "HOLD"
	ActionRebalance Action = "REBALANCE"
	ActionAlert     Action = "ALERT"
	ActionSkip      Action = "SKIP"
)

// Bounds is a candidate price range for a rebalanced position.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// CostEstimate is the projected economic cost of executing one rebalance.
type CostEstimate struct {
	SwapFee      float64 `json:"swap_fee"`
	SlippageCost float64 `json:"slippage_cost"`
	GasCost      float64 `json:"gas_cost"`
	Total        float64 `json:"total"`
}

// Decision is the result of one evaluation cycle. NewBounds is populated only
// when Action is ActionRebalance; CooldownRemainingSec only when the cooldown
// guard produced an ActionSkip.
type Decision struct {
	Action               Action  `json:"action"`
	Reason               string  `json:"reason"`
	FeeProjectionWeekly  float64 `json:"fee_projection_weekly"`
	SwapCost             float64 `json:"swap_cost"`
	HoursInRange         float64 `json:"hours_in_range"`
	Confidence           float64 `json:"confidence"`
	NewBounds            *Bounds `json:"new_bounds,omitempty"`
	CooldownRemainingSec int64   `json:"cooldown_remaining_seconds,omitempty"`
}

// DecisionLogEntry is the persisted record of a decision, one per cycle.
// ExecutionID is set only when an atomic group was submitted and confirmed.
type DecisionLogEntry struct {
	Timestamp           time.Time `json:"timestamp"`
	CycleID             string    `json:"cycle_id"`
	Price               float64   `json:"price"`
	Action              Action    `json:"action"`
	Reason              string    `json:"reason"`
	FeeProjectionWeekly float64   `json:"fee_projection_weekly"`
	SwapCost            float64   `json:"swap_cost"`
	HoursInRange        float64   `json:"hours_in_range"`
	Confidence          float64   `json:"confidence"`
	ExecutionID         string    `json:"execution_id,omitempty"`
}

// StrategyParameters collects the tunable thresholds consumed by the decision
// engine and cost model. Values are loaded from the environment at startup.
type StrategyParameters struct {
	// BufferZonePct ignores out-of-range prices within this percent of a
	// boundary, suppressing spurious rebalances from edge noise.
	BufferZonePct float64 `json:"buffer_zone_pct"`

	// CooldownSeconds is the minimum time between consecutive rebalances.
	CooldownSeconds int `json:"cooldown_seconds"`

	// CostBenefitMultiplier requires projected fees to exceed the swap cost
	// by this factor before a rebalance is worthwhile.
	CostBenefitMultiplier float64 `json:"cost_benefit_multiplier"`

	// MinHoursInRange is the predicted hours-in-range below which a boundary
	// approach is considered imminent.
	MinHoursInRange float64 `json:"min_hours_in_range"`

	// VolatilityWindowHours sizes the rolling price window.
	VolatilityWindowHours int `json:"volatility_window_hours"`

	// SwapSlippagePct is the slippage assumption fed to the cost model.
	SwapSlippagePct float64 `json:"swap_slippage_pct"`

	// MaxSlippagePct caps acceptable slippage on the executed swap; it sets
	// the minimum-output guard on the atomic group's swap operation.
	MaxSlippagePct float64 `json:"max_slippage_pct"`

	// DecisionThreshold is the headline fee-capture multiple reported at
	// startup alongside the cost-benefit multiplier.
	DecisionThreshold float64 `json:"decision_threshold"`
}
