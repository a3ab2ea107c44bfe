package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/Div1912/Ageis/internal/costs"
	"github.com/Div1912/Ageis/internal/types"
	"github.com/Div1912/Ageis/internal/volatility"
)

// New-range ratios around the current price. The band is asymmetric
// (-18% below, +22% above the fresh mark price).
const (
	newLowerRatio = 0.82
	newUpperRatio = 1.22
)

// Per-branch confidence annotations. These are qualitative markers of how
// mechanical each branch is, not statistically derived probabilities.
const (
	confidenceCooldown      = 0.3
	confidenceAlert         = 0.5
	confidenceBufferZone    = 0.6
	confidenceSkipCost      = 0.6
	confidencePreemptive    = 0.7
	confidenceOutOfRange    = 0.85
	confidenceHold          = 0.9
)

// Engine evaluates whether the position should be rebalanced. It is the only
// stateful part of the decision path: it owns the volatility window and the
// cooldown timestamp, and nothing else. Exactly one caller drives it; there
// is no internal locking.
type Engine struct {
	params types.StrategyParameters
	vol    *volatility.Model

	lastRebalanceAt time.Time
	now             func() time.Time
}

// New creates an engine with the given strategy parameters. A nil clock
// defaults to time.Now; tests inject a fake clock to drive the cooldown.
func New(params types.StrategyParameters, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		params: params,
		vol:    volatility.NewModel(params.VolatilityWindowHours),
		now:    clock,
	}
}

// LastRebalanceAt returns the timestamp of the most recent REBALANCE
// decision. It is zero until one has been emitted.
func (e *Engine) LastRebalanceAt() time.Time {
	return e.lastRebalanceAt
}

// Evaluate runs one decision cycle: it folds the observed price into the
// volatility window, then walks the guards in order and returns the first
// matching outcome. The only side effect is the cooldown timestamp, set when
// a REBALANCE is emitted. The timestamp is set at decision time, before the
// submission is confirmed, and is not rolled back on a failed submission.
func (e *Engine) Evaluate(price float64, pos types.PositionSnapshot, pool types.PoolStats) types.Decision {
	e.vol.Update(price)

	inRange := pos.InRange(price)
	cost := costs.Estimate(pos.Capital, pool.FeeRate, e.params.SwapSlippagePct)

	// Guard 1: cooldown. Prevents thrashing from repeated triggers.
	if !e.lastRebalanceAt.IsZero() {
		cooldown := time.Duration(e.params.CooldownSeconds) * time.Second
		since := e.now().Sub(e.lastRebalanceAt)
		if since < cooldown {
			remaining := cooldown - since
			return types.Decision{
				Action: types.ActionSkip,
				Reason: fmt.Sprintf("cooldown: %ds remaining (min %ds between rebalances)",
					int(remaining.Seconds()), e.params.CooldownSeconds),
				SwapCost:             cost.Total,
				Confidence:           confidenceCooldown,
				CooldownRemainingSec: int64(remaining.Seconds()),
			}
		}
	}

	// Guard 2: buffer zone. An out-of-range price within BufferZonePct of a
	// boundary is treated as effectively in range.
	if !inRange {
		nearest := e.nearestBoundaryFraction(price, pos)
		if nearest < e.params.BufferZonePct/100 {
			return types.Decision{
				Action: types.ActionHold,
				Reason: fmt.Sprintf("buffer zone: price %.1f%% from boundary (< %.1f%% threshold)",
					nearest*100, e.params.BufferZonePct),
				SwapCost:   cost.Total,
				Confidence: confidenceBufferZone,
			}
		}
	}

	if inRange {
		return e.evaluateInRange(price, pos, pool, cost)
	}
	return e.evaluateOutOfRange(price, pos, pool, cost)
}

// evaluateInRange handles the comfortable case and the preemptive case where
// the volatility model predicts an imminent boundary approach.
func (e *Engine) evaluateInRange(price float64, pos types.PositionSnapshot, pool types.PoolStats, cost types.CostEstimate) types.Decision {
	// Full utilization while in range.
	dailyFee := pos.Capital * pool.FeeRate
	weeklyFee := dailyFee * 7

	hoursInRange := e.vol.PredictHoursInRange(price, pos.LowerBound, pos.UpperBound)

	if hoursInRange < e.params.MinHoursInRange {
		netBenefit := weeklyFee - cost.Total
		if netBenefit > cost.Total*e.params.CostBenefitMultiplier {
			e.lastRebalanceAt = e.now()
			return types.Decision{
				Action: types.ActionRebalance,
				Reason: fmt.Sprintf("preemptive: %.1fh to boundary, net +$%.2f",
					hoursInRange, netBenefit),
				FeeProjectionWeekly: weeklyFee,
				SwapCost:            cost.Total,
				HoursInRange:        hoursInRange,
				Confidence:          confidencePreemptive,
				NewBounds:           newBounds(price),
			}
		}
		return types.Decision{
			Action:              types.ActionAlert,
			Reason:              fmt.Sprintf("near boundary (%.1fh), but cost too high", hoursInRange),
			FeeProjectionWeekly: weeklyFee,
			SwapCost:            cost.Total,
			HoursInRange:        hoursInRange,
			Confidence:          confidenceAlert,
		}
	}

	return types.Decision{
		Action: types.ActionHold,
		Reason: fmt.Sprintf("in range, ~%.0fh predicted, fees +$%.2f/day",
			hoursInRange, dailyFee),
		FeeProjectionWeekly: weeklyFee,
		SwapCost:            cost.Total,
		HoursInRange:        hoursInRange,
		Confidence:          confidenceHold,
	}
}

// evaluateOutOfRange projects the fee capture of a re-centered range at full
// utilization and rebalances when it clears the cost-benefit bar.
func (e *Engine) evaluateOutOfRange(price float64, pos types.PositionSnapshot, pool types.PoolStats, cost types.CostEstimate) types.Decision {
	projectedWeekly := pos.Capital * pool.FeeRate * 7

	if projectedWeekly > cost.Total*e.params.CostBenefitMultiplier {
		e.lastRebalanceAt = e.now()
		return types.Decision{
			Action: types.ActionRebalance,
			Reason: fmt.Sprintf("out of range: projected +$%.2f/wk > cost $%.2f",
				projectedWeekly, cost.Total),
			FeeProjectionWeekly: projectedWeekly,
			SwapCost:            cost.Total,
			Confidence:          confidenceOutOfRange,
			NewBounds:           newBounds(price),
		}
	}

	return types.Decision{
		Action: types.ActionSkip,
		Reason: fmt.Sprintf("out of range, but cost $%.2f > benefit $%.2f",
			cost.Total, projectedWeekly),
		FeeProjectionWeekly: projectedWeekly,
		SwapCost:            cost.Total,
		Confidence:          confidenceSkipCost,
	}
}

// nearestBoundaryFraction returns the fractional distance from price to the
// nearer range boundary, relative to that boundary.
func (e *Engine) nearestBoundaryFraction(price float64, pos types.PositionSnapshot) float64 {
	const far = 999.0

	distLower := far
	if pos.LowerBound > 0 {
		distLower = math.Abs(price-pos.LowerBound) / pos.LowerBound
	}
	distUpper := far
	if pos.UpperBound > 0 {
		distUpper = math.Abs(price-pos.UpperBound) / pos.UpperBound
	}
	return math.Min(distLower, distUpper)
}

func newBounds(price float64) *types.Bounds {
	return &types.Bounds{
		Lower: price * newLowerRatio,
		Upper: price * newUpperRatio,
	}
}
