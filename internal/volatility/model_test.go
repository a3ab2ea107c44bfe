package volatility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredictColdStartReturnsDefault(t *testing.T) {
	m := NewModel(24)
	for i := 0; i < 9; i++ {
		m.Update(0.18)
	}
	assert.Equal(t, 12.0, m.PredictHoursInRange(0.18, 0.14, 0.22))
}

func TestPredictNegligibleVolatilityReturnsLongDefault(t *testing.T) {
	m := NewModel(24)
	for i := 0; i < 200; i++ {
		// Nonzero dispersion well below the negligible threshold: the
		// hourly std dev lands near 5e-9.
		if i%2 == 0 {
			m.Update(0.18)
		} else {
			m.Update(0.180000001)
		}
	}
	assert.Equal(t, 48.0, m.PredictHoursInRange(0.18, 0.14, 0.22))
}

func TestPredictCappedAtOneWeek(t *testing.T) {
	m := NewModel(24)
	for i := 0; i < 100; i++ {
		// Jitter of 1e-4 keeps the hourly std dev above the negligible
		// threshold while the boundaries sit far enough away that the
		// raw prediction is thousands of hours.
		if i%2 == 0 {
			m.Update(0.18 + 0.0001)
		} else {
			m.Update(0.18 - 0.0001)
		}
	}
	hours := m.PredictHoursInRange(0.18, 0.01, 100.0)
	assert.Equal(t, 168.0, hours)
}

func TestPredictMonotoneInDispersion(t *testing.T) {
	calm := NewModel(24)
	wild := NewModel(24)
	for i := 0; i < 90; i++ {
		if i%2 == 0 {
			calm.Update(0.18 + 0.001)
			wild.Update(0.18 + 0.01)
		} else {
			calm.Update(0.18 - 0.001)
			wild.Update(0.18 - 0.01)
		}
	}

	calmHours := calm.PredictHoursInRange(0.18, 0.14, 0.22)
	wildHours := wild.PredictHoursInRange(0.18, 0.14, 0.22)
	assert.LessOrEqual(t, wildHours, calmHours,
		"higher dispersion must not increase predicted hours in range")
	assert.Greater(t, calmHours, 0.0)
}

func TestPredictMonotoneInDistance(t *testing.T) {
	m := NewModel(24)
	for i := 0; i < 90; i++ {
		if i%2 == 0 {
			m.Update(0.18 + 0.005)
		} else {
			m.Update(0.18 - 0.005)
		}
	}

	nearBoundary := m.PredictHoursInRange(0.215, 0.14, 0.22)
	centered := m.PredictHoursInRange(0.18, 0.14, 0.22)
	assert.LessOrEqual(t, nearBoundary, centered)
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	m := NewModel(1) // 90-sample window
	for i := 0; i < 200; i++ {
		m.Update(float64(i))
	}
	assert.Equal(t, 90, m.SampleCount())

	// Oldest surviving sample must be 110 (200 - 90).
	w := m.window()
	assert.Equal(t, 110.0, w[0])
	assert.Equal(t, 199.0, w[len(w)-1])
}

func TestUpdateCompactionIsBounded(t *testing.T) {
	m := NewModel(1) // 90-sample window
	for i := 0; i < 10000; i++ {
		m.Update(float64(i))
	}

	// The backing slice never grows past twice the window.
	assert.Less(t, len(m.samples), 180)
	assert.Equal(t, 90, m.SampleCount())

	w := m.window()
	assert.Equal(t, 9910.0, w[0])
	assert.Equal(t, 9999.0, w[len(w)-1])
}
