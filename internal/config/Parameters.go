/*

This file contains the default strategy parameters for the agent.

The defaults are calibrated against a testnet position of a few thousand USD.
Each value balances responsiveness against the cost of churning the position.

*/

package config

import (
	"errors"

	"github.com/Div1912/Ageis/internal/types"
)

// DefaultStrategyParameters provides the baseline thresholds for the decision
// engine. Environment variables of the same name override each field.
var DefaultStrategyParameters = types.StrategyParameters{
	BufferZonePct: 3.0, // Ignore out-of-range prices within 3% of a boundary.
	// Rationale: prices oscillate around range edges; rebalancing on every
	// crossing would burn the fee income the position exists to capture.

	CooldownSeconds: 1800, // At least 30 minutes between rebalances.
	// Rationale: the dominant failure mode of automated rebalancers is
	// thrashing. A hard floor between executions bounds the worst case.

	CostBenefitMultiplier: 2.5, // Require projected fees > 2.5x swap cost.
	// Rationale: the fee projection is optimistic (assumes full utilization
	// for a week); demanding a wide margin absorbs that optimism.

	MinHoursInRange: 4, // Below this predicted time-in-range, the boundary is imminent.

	VolatilityWindowHours: 24, // Rolling window for the dispersion estimate.

	SwapSlippagePct: 0.5, // Slippage assumption in the cost model.

	MaxSlippagePct: 2.0, // Minimum-output guard on the executed swap.

	DecisionThreshold: 1.5, // Headline fee-capture multiple reported at startup.
}

// Strategy is the active parameter set after LoadConfig.
var Strategy types.StrategyParameters

// loadStrategyParameters applies environment overrides on the defaults.
func loadStrategyParameters() error {
	p := DefaultStrategyParameters
	var err error

	if p.BufferZonePct, err = getEnvAsFloat64("BUFFER_ZONE_PCT", p.BufferZonePct); err != nil {
		return err
	}
	if p.CooldownSeconds, err = getEnvAsInt("REBALANCE_COOLDOWN_SECONDS", p.CooldownSeconds); err != nil {
		return err
	}
	if p.CostBenefitMultiplier, err = getEnvAsFloat64("COST_BENEFIT_MULTIPLIER", p.CostBenefitMultiplier); err != nil {
		return err
	}
	if p.MinHoursInRange, err = getEnvAsFloat64("MIN_HOURS_IN_RANGE", p.MinHoursInRange); err != nil {
		return err
	}
	if p.VolatilityWindowHours, err = getEnvAsInt("VOLATILITY_WINDOW_HOURS", p.VolatilityWindowHours); err != nil {
		return err
	}
	if p.SwapSlippagePct, err = getEnvAsFloat64("SWAP_SLIPPAGE_PCT", p.SwapSlippagePct); err != nil {
		return err
	}
	if p.MaxSlippagePct, err = getEnvAsFloat64("MAX_SLIPPAGE_PCT", p.MaxSlippagePct); err != nil {
		return err
	}
	if p.DecisionThreshold, err = getEnvAsFloat64("DECISION_THRESHOLD", p.DecisionThreshold); err != nil {
		return err
	}

	if p.CooldownSeconds < 0 {
		return errors.New("REBALANCE_COOLDOWN_SECONDS cannot be negative")
	}
	if p.BufferZonePct < 0 {
		return errors.New("BUFFER_ZONE_PCT cannot be negative")
	}
	if p.VolatilityWindowHours <= 0 {
		return errors.New("VOLATILITY_WINDOW_HOURS must be positive")
	}

	Strategy = p
	return nil
}
