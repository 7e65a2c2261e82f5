package telemetry

import (
	"testing"
	"time"
)

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(10)

	if c.ShouldFlush(9) {
		t.Error("window of 10 should not flush at tick 9")
	}
	if !c.ShouldFlush(10) {
		t.Error("window of 10 should flush at tick 10")
	}

	c.Flush(10, Sample{})
	if c.ShouldFlush(15) {
		t.Error("window restarted at 10 should not flush at 15")
	}
	if !c.ShouldFlush(20) {
		t.Error("window restarted at 10 should flush at 20")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(100)

	c.RecordBirth()
	c.RecordReseed(2)
	c.RecordDeaths(3)
	c.RecordBreedingRequest(true)
	c.RecordBreedingRequest(true)
	c.RecordBreedingRequest(true)
	c.RecordBreedingRequest(false)
	c.RecordBreedingSuccess(10*time.Millisecond, 2)
	c.RecordBreedingSuccess(30*time.Millisecond, 1)
	c.RecordBreedingFailure(20*time.Millisecond, true)

	stats := c.Flush(100, Sample{
		Population:      4,
		InFlight:        1,
		Energies:        []float64{10, 20, 30, 40},
		MaxGeneration:   3,
		MutationRate:    0.5,
		SemanticGravity: 1,
	})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"births", float64(stats.Births), 5}, // 1 seed + 2 reseeds + 2 offspring
		{"reseeds", float64(stats.Reseeds), 2},
		{"deaths", float64(stats.Deaths), 3},
		{"requests", float64(stats.BreedRequests), 3},
		{"declines", float64(stats.BreedDeclines), 1},
		{"successes", float64(stats.BreedSuccesses), 2},
		{"failures", float64(stats.BreedFailures), 1},
		{"timeouts", float64(stats.BreedTimeouts), 1},
		{"stale parents", float64(stats.StaleParents), 1},
		{"success rate", stats.SuccessRate, 2.0 / 3.0},
		{"mean call ms", stats.MeanCallMS, 20},
		{"energy mean", stats.EnergyMean, 25},
		{"total energy", stats.TotalEnergy, 100},
		{"population", float64(stats.Population), 4},
		{"max generation", float64(stats.MaxGeneration), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := tt.got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	// Counters reset for the next window
	next := c.Flush(200, Sample{})
	if next.Births != 0 || next.BreedRequests != 0 || next.WindowStartTick != 100 {
		t.Errorf("counters not reset: %+v", next)
	}
}
