package components

// Position represents an organism's world position.
type Position struct {
	X, Y float64
}

// Velocity represents an organism's per-tick displacement.
type Velocity struct {
	X, Y float64
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Position) Position {
	return Position{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}
