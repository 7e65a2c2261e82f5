// Package renderer provides Render Sinks: consumers of read-only population
// snapshots produced once per tick.
package renderer

import "github.com/pthm-cable/biosynth/components"

// Sink receives the population after every tick. Implementations must not
// retain the slice beyond the call and must not block the simulation.
type Sink interface {
	Render(views []components.OrganismView)
}

// Nop discards every snapshot.
type Nop struct{}

// Render does nothing.
func (Nop) Render([]components.OrganismView) {}

// Func adapts an ordinary function to a Sink.
type Func func(views []components.OrganismView)

// Render calls f(views).
func (f Func) Render(views []components.OrganismView) {
	f(views)
}

// Multi fans a snapshot out to several sinks in order.
type Multi []Sink

// Render forwards views to every sink.
func (m Multi) Render(views []components.OrganismView) {
	for _, s := range m {
		s.Render(views)
	}
}
