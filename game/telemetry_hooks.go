package game

import (
	"errors"

	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles
// bookmarks. Caller must hold s.mu.
func (s *SimulationContext) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	// Sample energy distribution and peak energies in one pass
	var energies []float64
	maxGen := 0
	s.store.ForEach(func(st components.State) {
		energies = append(energies, st.Energy.Value)
		maxGen = max(maxGen, st.Org.Generation)
		s.lineage.UpdateEnergy(st.Org.ID, st.Energy.Value)
	})

	stats := s.collector.Flush(s.tick, telemetry.Sample{
		Population:      len(energies),
		InFlight:        s.breeder.InFlight(),
		Energies:        energies,
		MaxGeneration:   maxGen,
		MutationRate:    s.mutationRate,
		SemanticGravity: s.semanticGravity,
	})
	s.lastStats = stats
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			s.logger.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}
}

// ErrNoSnapshotDir is returned by SaveSnapshot when no snapshot directory is configured.
var ErrNoSnapshotDir = errors.New("snapshot directory not configured")

// SaveSnapshot writes the current population to the snapshot directory.
func (s *SimulationContext) SaveSnapshot() (string, error) {
	if s.snapshotDir == "" {
		return "", ErrNoSnapshotDir
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return telemetry.SaveSnapshot(s.createSnapshot(nil), s.snapshotDir)
}

// saveSnapshot creates and saves a snapshot to disk. Caller must hold s.mu.
func (s *SimulationContext) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(s.createSnapshot(bookmark), s.snapshotDir)
	if err != nil {
		s.logger.Error("failed to save snapshot", "error", err)
		return
	}
	s.logger.Info("snapshot saved", "path", path, "tick", s.tick)
}

// createSnapshot builds a snapshot from the current state. Caller must hold s.mu.
func (s *SimulationContext) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       s.runID,
		RNGSeed:     s.seed,
		WorldWidth:  s.cfg.Derived.WorldW,
		WorldHeight: s.cfg.Derived.WorldH,
		Tick:        s.tick,
		Bookmark:    bookmark,
	}

	s.store.ForEach(func(st components.State) {
		state := telemetry.NewOrganismState(st)
		if ls := s.lineage.Get(st.Org.ID); ls != nil {
			state.Lineage = ls.ToJSON()
		}
		snapshot.Organisms = append(snapshot.Organisms, state)
	})

	return snapshot
}
