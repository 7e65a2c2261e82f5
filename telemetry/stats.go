package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick uint64 `csv:"-"`
	WindowEndTick   uint64 `csv:"window_end"`

	// Population at window end
	Population int `csv:"population"`
	InFlight   int `csv:"in_flight"`

	// Events during window
	Births  int `csv:"births"`
	Deaths  int `csv:"deaths"`
	Reseeds int `csv:"reseeds"`

	// Breeding
	BreedRequests  int     `csv:"breed_requests"`
	BreedDeclines  int     `csv:"breed_declines"`
	BreedSuccesses int     `csv:"breed_successes"`
	BreedFailures  int     `csv:"breed_failures"`
	BreedTimeouts  int     `csv:"breed_timeouts"`
	StaleParents   int     `csv:"stale_parents"` // parents pruned before their result applied
	SuccessRate    float64 `csv:"success_rate"`
	MeanCallMS     float64 `csv:"mean_call_ms"`

	// Energy distribution (sampled at window end)
	EnergyMean  float64 `csv:"energy_mean"`
	EnergyStd   float64 `csv:"energy_std"`
	EnergyP10   float64 `csv:"energy_p10"`
	EnergyP50   float64 `csv:"energy_p50"`
	EnergyP90   float64 `csv:"energy_p90"`
	TotalEnergy float64 `csv:"total_energy"`

	MaxGeneration int `csv:"max_generation"`

	// Knobs in effect at window end
	MutationRate    float64 `csv:"mutation_rate"`
	SemanticGravity float64 `csv:"semantic_gravity"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// EnergyStats summarizes an energy distribution.
type EnergyStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeEnergyStats calculates mean, population standard deviation and
// percentiles from energy values.
func ComputeEnergyStats(values []float64) EnergyStats {
	n := len(values)
	if n == 0 {
		return EnergyStats{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return EnergyStats{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("in_flight", s.InFlight),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("reseeds", s.Reseeds),
		slog.Int("breed_requests", s.BreedRequests),
		slog.Int("breed_declines", s.BreedDeclines),
		slog.Int("breed_successes", s.BreedSuccesses),
		slog.Int("breed_failures", s.BreedFailures),
		slog.Int("breed_timeouts", s.BreedTimeouts),
		slog.Int("stale_parents", s.StaleParents),
		slog.Float64("success_rate", s.SuccessRate),
		slog.Float64("mean_call_ms", s.MeanCallMS),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("total_energy", s.TotalEnergy),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Float64("mutation_rate", s.MutationRate),
		slog.Float64("semantic_gravity", s.SemanticGravity),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
