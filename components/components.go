// Package components defines ECS components for the simulation.
package components

// ID identifies an organism. IDs are minted from a monotonically increasing
// counter and never reused; 0 is never a valid organism.
type ID uint32

// State is a read-only copy of every component of one organism.
type State struct {
	Pos    Position
	Vel    Velocity
	Energy Energy
	Org    Organism
	Look   Appearance
}

// View returns the render-facing projection of s.
func (s State) View() OrganismView {
	return OrganismView{
		ID:       s.Org.ID,
		Text:     s.Org.Text,
		X:        s.Pos.X,
		Y:        s.Pos.Y,
		Hue:      s.Look.Hue,
		Size:     s.Look.Size,
		Energy:   s.Energy.Value,
		Mutating: s.Org.Mutating,
	}
}

// OrganismView is what a Render Sink receives for each organism.
type OrganismView struct {
	ID       ID      `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Hue      float64 `json:"hue"`
	Size     float64 `json:"size"`
	Energy   float64 `json:"energy"`
	Mutating bool    `json:"mutating"`
}
