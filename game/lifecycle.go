package game

import (
	"fmt"

	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/population"
	"github.com/pthm-cable/biosynth/telemetry"
)

// Start begins ticking on every value from clock. A nil clock marks the
// simulation running without a goroutine; the caller then drives it with
// Advance (the graphical frame loop does this). Start on a running
// simulation does nothing and returns false.
func (s *SimulationContext) Start(clock Clock) bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return false
	}
	s.running = true
	s.clock = clock

	s.logger.Info("simulation_started", "tick", s.Tick(), "population", s.store.Len())

	if clock == nil {
		return true
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(clock, s.stop, s.done)
	return true
}

func (s *SimulationContext) loop(clock Clock, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-clock.C():
			s.Step()
		}
	}
}

// Advance runs one tick if the simulation is running and reports whether it did.
func (s *SimulationContext) Advance() bool {
	if !s.Running() {
		return false
	}
	s.Step()
	return true
}

// Running reports whether the simulation is started.
func (s *SimulationContext) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Stop halts ticking. The tick in progress, if any, completes first. With
// mutation.cancel_on_stop set, in-flight breeding calls are cancelled and
// their locks released; otherwise their results are applied after Start.
func (s *SimulationContext) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	clock, stop, done := s.clock, s.stop, s.done
	s.clock, s.stop, s.done = nil, nil, nil
	s.runMu.Unlock()

	if clock != nil {
		close(stop)
		<-done
		clock.Stop()
	}

	cancelled := 0
	if s.cfg.Mutation.CancelOnStop {
		s.mu.Lock()
		cancelled = s.breeder.Cancel()
		s.mu.Unlock()
	}

	s.logger.Info("simulation_stopped", "tick", s.Tick(), "cancelled", cancelled)
}

// Toggle starts a stopped simulation or stops a running one.
func (s *SimulationContext) Toggle(clock Clock) bool {
	if s.Running() {
		s.Stop()
		return false
	}
	return s.Start(clock)
}

// Reset stops the simulation, cancels all breeding and removes every organism.
// Ids keep increasing afterwards.
func (s *SimulationContext) Reset() {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := s.breeder.Cancel()
	removed := s.store.Reset()
	s.lineage.Reset()
	s.collector.Reset(s.tick)
	s.sink.Render(s.store.Snapshot())

	s.logger.Info("simulation_reset", "tick", s.tick, "removed", len(removed), "cancelled", cancelled)
}

// Drain waits for every in-flight breeding call and applies the results
// without advancing the tick. Parents whose energy the breeding cost used
// up are pruned.
func (s *SimulationContext) Drain() {
	s.breeder.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyOutcomes(s.breeder.Apply())
	s.prune()
}

// Spawn injects an organism. It is safe to call at any time.
func (s *SimulationContext) Spawn(text string, opts ...population.SpawnOption) (components.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.spawnLocked(text, opts...)
	if err != nil {
		return 0, err
	}
	s.collector.RecordBirth()
	s.metrics.AddBirths(1)
	return id, nil
}

// spawnLocked spawns and registers lineage. Caller must hold s.mu.
func (s *SimulationContext) spawnLocked(text string, opts ...population.SpawnOption) (components.ID, error) {
	id, err := s.store.TrySpawn(text, opts...)
	if err != nil {
		return 0, fmt.Errorf("spawning %q: %w", text, err)
	}
	st, _ := s.store.Get(id)
	s.lineage.Register(id, s.tick, st.Org.Generation, st.Org.ParentA, st.Org.ParentB)
	return id, nil
}

// SeedInitial spawns every configured seed text plus extra at random positions.
func (s *SimulationContext) SeedInitial(extra ...string) error {
	texts := append(append([]string(nil), s.cfg.Population.Seeds...), extra...)
	for _, text := range texts {
		if _, err := s.Spawn(text); err != nil {
			return err
		}
	}
	s.logger.Info("population_seeded", "count", len(texts))
	return nil
}

// Restore replaces the population with the organisms of a snapshot. Restored
// organisms receive fresh ids; parent ids refer to the snapshot's run.
func (s *SimulationContext) Restore(snap *telemetry.Snapshot) error {
	s.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick = snap.Tick
	s.collector.Reset(s.tick)
	for _, o := range snap.Organisms {
		_, err := s.spawnLocked(o.Text,
			population.WithPosition(components.Position{X: o.X, Y: o.Y}),
			population.WithVelocity(components.Velocity{X: o.VelX, Y: o.VelY}),
			population.WithEnergy(o.Energy),
			population.WithLineage(o.ParentA, o.ParentB, o.Generation),
		)
		if err != nil {
			return fmt.Errorf("restoring organism %d: %w", o.ID, err)
		}
	}

	s.logger.Info("snapshot_restored", "tick", snap.Tick, "organisms", len(snap.Organisms), "run_id", snap.RunID)
	return nil
}
