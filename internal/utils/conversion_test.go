package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRoundTrip(t *testing.T) {
	for _, price := range []float64{0.14, 0.172, 0.22, 1.0, 305.5} {
		milli, err := PriceToMilli(price)
		require.NoError(t, err)
		assert.InDelta(t, price, MilliToPrice(milli), 0.0005, "price %f", price)
	}
}

func TestCapitalRoundTrip(t *testing.T) {
	cents, err := CapitalToCents(5000.0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500000), cents)
	assert.InDelta(t, 5000.0, CentsToCapital(cents), 1e-9)
}

func TestPriceToMilliRounds(t *testing.T) {
	milli, err := PriceToMilli(0.2055)
	require.NoError(t, err)
	assert.Equal(t, uint64(206), milli)
}

func TestConversionRejectsBadValues(t *testing.T) {
	_, err := PriceToMilli(-0.1)
	assert.ErrorIs(t, err, ErrValueNegative)

	_, err = PriceToMilli(math.NaN())
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = CapitalToCents(math.Inf(1))
	assert.ErrorIs(t, err, ErrNotFinite)
}
