package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breeding result label values.
const (
	BreedStarted  = "started"
	BreedDeclined = "declined"
	BreedSuccess  = "success"
	BreedFailure  = "failure"
	BreedTimeout  = "timeout"
)

// Metrics exposes live simulation counters to Prometheus. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ticks           prometheus.Counter
	population      prometheus.Gauge
	inFlight        prometheus.Gauge
	births          prometheus.Counter
	deaths          prometheus.Counter
	breeding        *prometheus.CounterVec
	mutationLatency prometheus.Histogram
	tickDuration    prometheus.Histogram
}

// NewMetrics registers the simulation metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "biosynth_ticks_total",
			Help: "Simulation ticks executed",
		}),
		population: f.NewGauge(prometheus.GaugeOpts{
			Name: "biosynth_population",
			Help: "Live organisms after the prune step",
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "biosynth_breeding_in_flight",
			Help: "Pair-locks currently held",
		}),
		births: f.NewCounter(prometheus.CounterOpts{
			Name: "biosynth_births_total",
			Help: "Organisms spawned, including seeds",
		}),
		deaths: f.NewCounter(prometheus.CounterOpts{
			Name: "biosynth_deaths_total",
			Help: "Organisms pruned at zero energy",
		}),
		breeding: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biosynth_breeding_total",
			Help: "Breeding requests by result",
		}, []string{"result"}),
		mutationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "biosynth_mutation_duration_seconds",
			Help:    "Mutation Service call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "biosynth_tick_duration_seconds",
			Help:    "Simulation tick duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us to ~100ms
		}),
	}
}

// ObserveTick records one finished tick.
func (m *Metrics) ObserveTick(d time.Duration, population, inFlight int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
	m.population.Set(float64(population))
	m.inFlight.Set(float64(inFlight))
}

// AddBirths counts n new organisms.
func (m *Metrics) AddBirths(n int) {
	if m == nil {
		return
	}
	m.births.Add(float64(n))
}

// AddDeaths counts n pruned organisms.
func (m *Metrics) AddDeaths(n int) {
	if m == nil {
		return
	}
	m.deaths.Add(float64(n))
}

// Breeding counts one breeding event with the given result label.
func (m *Metrics) Breeding(result string) {
	if m == nil {
		return
	}
	m.breeding.WithLabelValues(result).Inc()
}

// ObserveMutation records the duration of a resolved Mutation Service call.
func (m *Metrics) ObserveMutation(d time.Duration) {
	if m == nil {
		return
	}
	m.mutationLatency.Observe(d.Seconds())
}
