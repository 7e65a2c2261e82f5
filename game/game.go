// Package game runs the Simulation Loop.
//
// A SimulationContext owns every piece of simulation state: the population,
// the physics stage, the breeding coordinator, the render sink, the rng and
// the tick counter. Nothing here is package-level, so several simulations can
// run side by side (the tests rely on this).
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/pthm-cable/biosynth/breeding"
	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/config"
	"github.com/pthm-cable/biosynth/mutation"
	"github.com/pthm-cable/biosynth/population"
	"github.com/pthm-cable/biosynth/renderer"
	"github.com/pthm-cable/biosynth/systems"
	"github.com/pthm-cable/biosynth/telemetry"
)

// Options configures a SimulationContext.
type Options struct {
	Config  *config.Config   // nil = embedded defaults
	Service mutation.Service // nil = built from Config.Mutation
	Sink    renderer.Sink    // nil = renderer.Nop
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	Output  *telemetry.OutputManager

	Seed        int64
	RunID       string
	LogStats    bool
	SnapshotDir string

	// StatsCallback is called with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// SimulationContext holds the complete simulation state.
type SimulationContext struct {
	cfg    *config.Config
	logger *slog.Logger

	store   *population.Store
	physics *systems.PhysicsSystem
	breeder *breeding.Coordinator
	sink    renderer.Sink
	rng     *rand.Rand
	seed    int64
	runID   string

	// mu serializes ticks with everything that reads or writes tick state
	mu              sync.Mutex
	tick            uint64
	mutationRate    float64
	semanticGravity float64

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	lineage       *telemetry.LineageTracker
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	metrics       *telemetry.Metrics
	logStats      bool
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)
	lastStats     telemetry.WindowStats

	// Run state
	runMu   sync.Mutex
	running bool
	clock   Clock
	stop    chan struct{}
	done    chan struct{}
}

// NewSimulation creates a simulation with an empty population.
// Call SeedInitial to add the configured seeds.
func NewSimulation(opts Options) (*SimulationContext, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	svc := opts.Service
	if svc == nil {
		var err error
		svc, err = mutation.FromConfig(cfg.Mutation)
		if err != nil {
			return nil, fmt.Errorf("building mutation service: %w", err)
		}
	}

	sink := opts.Sink
	if sink == nil {
		sink = renderer.Nop{}
	}

	store := population.NewStore(population.Options{
		Bounds:        population.Bounds{Width: cfg.Derived.WorldW, Height: cfg.Derived.WorldH},
		InitialEnergy: cfg.Energy.InitialEnergy,
		InitialSpeed:  cfg.Physics.InitialSpeed,
		Seed:          opts.Seed,
	})

	rng := rand.New(rand.NewSource(opts.Seed))

	s := &SimulationContext{
		cfg:    cfg,
		logger: logger,
		store:  store,
		physics: systems.NewPhysicsSystem(
			systems.Bounds{Width: cfg.Derived.WorldW, Height: cfg.Derived.WorldH},
			cfg.Derived.GridCellSize,
			rng,
		),
		breeder: breeding.NewCoordinator(store, svc, breeding.Options{
			Cost:        cfg.Energy.BreedingCost,
			Timeout:     cfg.Derived.Timeout,
			MaxInFlight: cfg.Mutation.MaxInFlight,
			Logger:      logger,
		}),
		sink:  sink,
		rng:   rng,
		seed:  opts.Seed,
		runID: opts.RunID,

		mutationRate:    cfg.Mutation.Rate,
		semanticGravity: cfg.Mutation.SemanticGravity,

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		lineage:       telemetry.NewLineageTracker(),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		output:        opts.Output,
		metrics:       opts.Metrics,
		logStats:      opts.LogStats,
		snapshotDir:   opts.SnapshotDir,
		statsCallback: opts.StatsCallback,
	}

	return s, nil
}

// Config returns the configuration the simulation was built with.
func (s *SimulationContext) Config() *config.Config {
	return s.cfg
}

// Store returns the population store.
func (s *SimulationContext) Store() *population.Store {
	return s.store
}

// Breeder returns the breeding coordinator.
func (s *SimulationContext) Breeder() *breeding.Coordinator {
	return s.breeder
}

// Tick returns the number of completed ticks.
func (s *SimulationContext) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// MutationRate returns the current breeding probability gate.
func (s *SimulationContext) MutationRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutationRate
}

// SemanticGravity returns the current attraction strength.
func (s *SimulationContext) SemanticGravity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.semanticGravity
}

// SetMutationRate changes the breeding probability gate. Values outside
// [0,1] are rejected and leave the current value unchanged.
func (s *SimulationContext) SetMutationRate(v float64) error {
	if err := config.CheckMutationRate(v); err != nil {
		return err
	}
	s.mu.Lock()
	s.mutationRate = v
	s.mu.Unlock()
	return nil
}

// SetSemanticGravity changes the attraction strength. Values outside [0,2]
// are rejected and leave the current value unchanged.
func (s *SimulationContext) SetSemanticGravity(v float64) error {
	if err := config.CheckSemanticGravity(v); err != nil {
		return err
	}
	s.mu.Lock()
	s.semanticGravity = v
	s.mu.Unlock()
	return nil
}

// LastStats returns the most recently flushed stats window.
func (s *SimulationContext) LastStats() telemetry.WindowStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// PerfStats returns the rolling tick timing.
func (s *SimulationContext) PerfStats() telemetry.PerfStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perf.Stats()
}

// RecordFrame records display frame timing for the perf panel.
func (s *SimulationContext) RecordFrame() {
	s.mu.Lock()
	s.perf.RecordFrame()
	s.mu.Unlock()
}

// Lineage returns a copy of the lineage stats for id.
func (s *SimulationContext) Lineage(id components.ID) (telemetry.LineageStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := s.lineage.Get(id)
	if ls == nil {
		return telemetry.LineageStats{}, false
	}
	return *ls, true
}

// Close stops the simulation and cancels all outstanding breeding calls.
func (s *SimulationContext) Close() {
	s.Stop()
	s.breeder.Close()
}
