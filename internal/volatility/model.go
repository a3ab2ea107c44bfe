package volatility

import "math"

const (
	// SamplesPerHour is the assumed sampling density of the price window.
	SamplesPerHour = 90

	minSamples       = 10
	defaultHours     = 12.0
	negligibleHours  = 48.0
	maxHours         = 168.0 // one week
	stdDevFloor      = 0.001
	negligibleStdDev = 0.0001
)

// Model keeps a rolling window of observed prices and predicts how long the
// price is expected to remain inside a range from recent dispersion. It is a
// random-walk first-passage heuristic, not an option-pricing model: smaller
// distance to a boundary or higher volatility means fewer predicted hours.
type Model struct {
	windowHours int
	samples     []float64
}

// NewModel creates a model with the given rolling window in hours.
func NewModel(windowHours int) *Model {
	if windowHours <= 0 {
		windowHours = 24
	}
	return &Model{
		windowHours: windowHours,
		samples:     make([]float64, 0, windowHours*SamplesPerHour),
	}
}

// Update appends a price sample. Eviction is amortized: the slice is only
// compacted back to the window tail once it grows to twice the window size,
// so an append costs O(1) on average.
func (m *Model) Update(price float64) {
	m.samples = append(m.samples, price)
	if maxLen := m.windowHours * SamplesPerHour; len(m.samples) >= 2*maxLen {
		tail := m.samples[len(m.samples)-maxLen:]
		m.samples = m.samples[:copy(m.samples, tail)]
	}
}

// window returns the samples inside the rolling window, oldest first.
func (m *Model) window() []float64 {
	maxLen := m.windowHours * SamplesPerHour
	if len(m.samples) > maxLen {
		return m.samples[len(m.samples)-maxLen:]
	}
	return m.samples
}

// SampleCount returns the number of samples inside the window.
func (m *Model) SampleCount() int {
	return len(m.window())
}

// PredictHoursInRange estimates the hours until the price first leaves
// [lower, upper], capped at one week. With fewer than ten samples it returns
// a fixed default; with negligible volatility it returns a long default.
func (m *Model) PredictHoursInRange(current, lower, upper float64) float64 {
	recent := m.window()
	if len(recent) < minSamples {
		return defaultHours
	}

	if len(recent) > SamplesPerHour {
		recent = recent[len(recent)-SamplesPerHour:]
	}

	var sum float64
	for _, p := range recent {
		sum += p
	}
	mean := sum / float64(len(recent))

	var sumSqDiff float64
	for _, p := range recent {
		sumSqDiff += (p - mean) * (p - mean)
	}
	variance := sumSqDiff / float64(len(recent))

	stdDev := stdDevFloor
	if variance > 0 {
		stdDev = math.Sqrt(variance)
	}

	hourlyStdDev := stdDev * math.Sqrt(SamplesPerHour)
	if hourlyStdDev < negligibleStdDev {
		return negligibleHours
	}

	minDist := math.Min(current-lower, upper-current)

	hours := (minDist / hourlyStdDev) * (minDist / hourlyStdDev)
	return math.Min(hours, maxHours)
}
