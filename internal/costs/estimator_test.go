package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateReferenceScenario(t *testing.T) {
	est := Estimate(5000, 0.003, 0.5)

	assert.InDelta(t, 7.5, est.SwapFee, 1e-9)
	assert.InDelta(t, 12.5, est.SlippageCost, 1e-9)
	assert.InDelta(t, 0.004, est.GasCost, 1e-9)
	assert.InDelta(t, 20.004, est.Total, 1e-9)
}

func TestEstimateLinearInCapital(t *testing.T) {
	single := Estimate(3000, 0.003, 0.5)
	double := Estimate(6000, 0.003, 0.5)

	assert.InDelta(t, 2*single.SwapFee, double.SwapFee, 1e-9)
	assert.InDelta(t, 2*single.SlippageCost, double.SlippageCost, 1e-9)
	// Gas is a constant, unaffected by capital.
	assert.Equal(t, single.GasCost, double.GasCost)
}

func TestEstimateComponentsNonNegative(t *testing.T) {
	est := Estimate(0, 0.003, 0.5)
	assert.GreaterOrEqual(t, est.SwapFee, 0.0)
	assert.GreaterOrEqual(t, est.SlippageCost, 0.0)
	assert.GreaterOrEqual(t, est.GasCost, 0.0)
	assert.GreaterOrEqual(t, est.Total, 0.0)
}
