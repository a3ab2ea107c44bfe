package costs

import "github.com/Div1912/Ageis/internal/types"

// GasCostUSD is the flat cost of one atomic group, roughly 4000 micro-units
// of the native token at current prices.
const GasCostUSD = 0.004

// swapFraction is the share of position capital swapped per rebalance. A
// re-centered range needs an approximately even token split, so half the
// capital crosses the pool.
const swapFraction = 0.5

// Estimate computes the economic cost of executing one rebalance. The fee and
// slippage components are linear in capital; gas is a constant. This is a
// parametric model, not a simulation against live order-book depth.
func Estimate(capital, feeRate, slippagePct float64) types.CostEstimate {
	swapAmount := capital * swapFraction
	swapFee := swapAmount * feeRate
	slippageCost := swapAmount * (slippagePct / 100)

	return types.CostEstimate{
		SwapFee:      swapFee,
		SlippageCost: slippageCost,
		GasCost:      GasCostUSD,
		Total:        swapFee + slippageCost + GasCostUSD,
	}
}
