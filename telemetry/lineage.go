package telemetry

import "github.com/pthm-cable/biosynth/components"

// LineageStats tracks per-organism statistics over its lifetime.
type LineageStats struct {
	BirthTick     uint64
	SurvivalTicks uint64

	Generation int
	ParentA    components.ID
	ParentB    components.ID

	Children   int
	PeakEnergy float64
}

// LineageTracker manages per-organism lineage statistics.
type LineageTracker struct {
	stats map[components.ID]*LineageStats
}

// NewLineageTracker creates a new lineage tracker.
func NewLineageTracker() *LineageTracker {
	return &LineageTracker{
		stats: make(map[components.ID]*LineageStats),
	}
}

// Register creates lineage stats for a new organism.
func (lt *LineageTracker) Register(id components.ID, birthTick uint64, generation int, parentA, parentB components.ID) {
	lt.stats[id] = &LineageStats{
		BirthTick:  birthTick,
		Generation: generation,
		ParentA:    parentA,
		ParentB:    parentB,
	}
}

// Get returns the lineage stats for an organism, or nil if not found.
func (lt *LineageTracker) Get(id components.ID) *LineageStats {
	return lt.stats[id]
}

// Remove removes an organism's stats and returns them with the survival time
// filled in.
func (lt *LineageTracker) Remove(id components.ID, tick uint64) *LineageStats {
	stats := lt.stats[id]
	if stats == nil {
		return nil
	}
	delete(lt.stats, id)
	stats.SurvivalTicks = tick - stats.BirthTick
	return stats
}

// RecordChild increments children count.
func (lt *LineageTracker) RecordChild(parentID components.ID) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LineageTracker) UpdateEnergy(id components.ID, energy float64) {
	if s := lt.stats[id]; s != nil && energy > s.PeakEnergy {
		s.PeakEnergy = energy
	}
}

// MostProlific returns the living organism with the most children.
// Ties go to the lowest id.
func (lt *LineageTracker) MostProlific() (components.ID, int) {
	var best components.ID
	bestChildren := -1
	for id, s := range lt.stats {
		if s.Children > bestChildren || (s.Children == bestChildren && id < best) {
			best, bestChildren = id, s.Children
		}
	}
	if bestChildren < 0 {
		return 0, 0
	}
	return best, bestChildren
}

// Count returns the number of tracked organisms.
func (lt *LineageTracker) Count() int {
	return len(lt.stats)
}

// Reset forgets every tracked organism.
func (lt *LineageTracker) Reset() {
	clear(lt.stats)
}

// LineageJSON is the JSON-serializable form of LineageStats.
type LineageJSON struct {
	BirthTick  uint64  `json:"birth_tick"`
	Generation int     `json:"generation"`
	Children   int     `json:"children"`
	PeakEnergy float64 `json:"peak_energy"`
}

// ToJSON converts LineageStats to its JSON form.
func (ls *LineageStats) ToJSON() *LineageJSON {
	if ls == nil {
		return nil
	}
	return &LineageJSON{
		BirthTick:  ls.BirthTick,
		Generation: ls.Generation,
		Children:   ls.Children,
		PeakEnergy: ls.PeakEnergy,
	}
}
