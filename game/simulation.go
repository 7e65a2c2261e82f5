package game

import (
	"time"

	"github.com/pthm-cable/biosynth/breeding"
	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/population"
	"github.com/pthm-cable/biosynth/systems"
	"github.com/pthm-cable/biosynth/telemetry"
)

// Step runs one tick.
func (s *SimulationContext) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
}

// step runs one tick. Caller must hold s.mu.
//
// Order: apply breeding results, physics, prune, reseed, breed, render,
// telemetry. Results posted while the tick runs wait for the next one.
func (s *SimulationContext) step() {
	start := time.Now()
	s.tick++
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseApply)
	s.applyOutcomes(s.breeder.Apply())

	s.perf.StartPhase(telemetry.PhasePhysics)
	params := systems.PhysicsParams{
		AttractionRadius:  s.cfg.Physics.AttractionRadius,
		BreedingRadius:    s.cfg.Physics.BreedingRadius,
		AttractionImpulse: s.cfg.Physics.AttractionImpulse,
		MaxSpeed:          s.cfg.Physics.MaxSpeed,
		SemanticGravity:   s.semanticGravity,
		MutationRate:      s.mutationRate,
		BaseMetabolism:    s.cfg.Energy.BaseMetabolism,
	}
	var candidates []systems.Candidate
	s.store.Update(func(bodies []population.Body) {
		candidates = s.physics.Update(bodies, params)
	})

	s.perf.StartPhase(telemetry.PhasePrune)
	s.prune()
	s.reseed()

	s.perf.StartPhase(telemetry.PhaseBreed)
	s.breed(candidates)

	s.perf.StartPhase(telemetry.PhaseRender)
	s.sink.Render(s.store.Snapshot())

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()
	s.perf.EndTick()

	s.metrics.ObserveTick(time.Since(start), s.store.Len(), s.breeder.InFlight())
}

// applyOutcomes records what the coordinator did with finished breeding calls.
func (s *SimulationContext) applyOutcomes(outcomes []breeding.Outcome) {
	for _, out := range outcomes {
		s.metrics.ObserveMutation(out.Duration)

		if out.Err != nil {
			s.collector.RecordBreedingFailure(out.Duration, out.TimedOut)
			if out.TimedOut {
				s.metrics.Breeding(telemetry.BreedTimeout)
			} else {
				s.metrics.Breeding(telemetry.BreedFailure)
			}
			continue
		}

		s.collector.RecordBreedingSuccess(out.Duration, len(out.Debited))
		s.metrics.Breeding(telemetry.BreedSuccess)
		s.metrics.AddBirths(1)

		if child, ok := s.store.Get(out.Child); ok {
			s.lineage.Register(out.Child, s.tick, child.Org.Generation, out.Key.Lo, out.Key.Hi)
		}
		s.lineage.RecordChild(out.Key.Lo)
		s.lineage.RecordChild(out.Key.Hi)
	}
}

// prune removes every organism whose energy is exhausted.
func (s *SimulationContext) prune() {
	removed := s.store.PruneWhere(func(st components.State) bool {
		return st.Energy.Value <= 0
	})
	if len(removed) == 0 {
		return
	}

	for _, id := range removed {
		s.lineage.Remove(id, s.tick)
	}
	s.collector.RecordDeaths(len(removed))
	s.metrics.AddDeaths(len(removed))
}

// reseed injects seeds when the population falls below the configured floor.
func (s *SimulationContext) reseed() {
	pc := s.cfg.Population
	if pc.ReseedBelow <= 0 || len(pc.Seeds) == 0 || s.store.Len() >= pc.ReseedBelow {
		return
	}

	spawned := 0
	for i := 0; i < pc.ReseedCount; i++ {
		if _, err := s.spawnLocked(pc.Seeds[s.rng.Intn(len(pc.Seeds))]); err == nil {
			spawned++
		}
	}
	s.collector.RecordReseed(spawned)
	s.metrics.AddBirths(spawned)

	s.logger.Info("population_reseeded",
		"tick", s.tick,
		"count", spawned,
		"population", s.store.Len(),
	)
}

// breed offers every candidate pair to the coordinator.
func (s *SimulationContext) breed(candidates []systems.Candidate) {
	for _, c := range candidates {
		started := s.breeder.TryBreed(c.A, c.B)
		s.collector.RecordBreedingRequest(started)
		if started {
			s.metrics.Breeding(telemetry.BreedStarted)
		} else {
			s.metrics.Breeding(telemetry.BreedDeclined)
		}
	}
}
