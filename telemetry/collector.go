package telemetry

import "time"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks uint64

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	births         int
	deaths         int
	reseeds        int
	breedRequests  int
	breedDeclines  int
	breedSuccesses int
	breedFailures  int
	breedTimeouts  int
	staleParents   int
	callTime       time.Duration
	calls          int
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: uint64(windowTicks)}
}

// RecordBirth records an organism entering the population.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeaths records n organisms pruned this tick.
func (c *Collector) RecordDeaths(n int) {
	c.deaths += n
}

// RecordReseed records n seed organisms injected by the low-population reseed.
func (c *Collector) RecordReseed(n int) {
	c.reseeds += n
	c.births += n
}

// RecordBreedingRequest records a breeding candidate and whether the
// coordinator accepted it.
func (c *Collector) RecordBreedingRequest(started bool) {
	if started {
		c.breedRequests++
	} else {
		c.breedDeclines++
	}
}

// RecordBreedingSuccess records an applied offspring. debited is the number of
// parents that were still present and paid the breeding cost.
func (c *Collector) RecordBreedingSuccess(d time.Duration, debited int) {
	c.breedSuccesses++
	c.births++
	c.staleParents += 2 - debited
	c.callTime += d
	c.calls++
}

// RecordBreedingFailure records a failed or timed out Mutation Service call.
func (c *Collector) RecordBreedingFailure(d time.Duration, timedOut bool) {
	c.breedFailures++
	if timedOut {
		c.breedTimeouts++
	}
	c.callTime += d
	c.calls++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Sample is the population state observed when a window is flushed.
type Sample struct {
	Population      int
	InFlight        int
	Energies        []float64
	MaxGeneration   int
	MutationRate    float64
	SemanticGravity float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick uint64, s Sample) WindowStats {
	var successRate, meanCallMS float64
	if resolved := c.breedSuccesses + c.breedFailures; resolved > 0 {
		successRate = float64(c.breedSuccesses) / float64(resolved)
	}
	if c.calls > 0 {
		meanCallMS = float64(c.callTime.Microseconds()) / float64(c.calls) / 1000
	}

	energy := ComputeEnergyStats(s.Energies)
	var total float64
	for _, e := range s.Energies {
		total += e
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population: s.Population,
		InFlight:   s.InFlight,

		Births:  c.births,
		Deaths:  c.deaths,
		Reseeds: c.reseeds,

		BreedRequests:  c.breedRequests,
		BreedDeclines:  c.breedDeclines,
		BreedSuccesses: c.breedSuccesses,
		BreedFailures:  c.breedFailures,
		BreedTimeouts:  c.breedTimeouts,
		StaleParents:   c.staleParents,
		SuccessRate:    successRate,
		MeanCallMS:     meanCallMS,

		EnergyMean:  energy.Mean,
		EnergyStd:   energy.Std,
		EnergyP10:   energy.P10,
		EnergyP50:   energy.P50,
		EnergyP90:   energy.P90,
		TotalEnergy: total,

		MaxGeneration:   s.MaxGeneration,
		MutationRate:    s.MutationRate,
		SemanticGravity: s.SemanticGravity,
	}

	// Reset for next window
	*c = Collector{windowTicks: c.windowTicks, windowStartTick: currentTick}

	return stats
}

// Reset discards the current window and starts a new one at tick.
func (c *Collector) Reset(tick uint64) {
	*c = Collector{windowTicks: c.windowTicks, windowStartTick: tick}
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() uint64 {
	return c.windowTicks
}
