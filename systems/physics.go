package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/population"
)

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float64
}

// PhysicsParams holds the per-tick knobs of the Physics Stage.
type PhysicsParams struct {
	AttractionRadius  float64
	BreedingRadius    float64
	AttractionImpulse float64 // pull per tick before SemanticGravity scaling
	MaxSpeed          float64 // 0 = unlimited
	SemanticGravity   float64
	MutationRate      float64
	BaseMetabolism    float64
}

// Candidate is a pair of organisms eligible for breeding this tick.
type Candidate struct {
	A, B components.ID
}

// PhysicsSystem integrates movement, reflects at walls, charges metabolism,
// applies semantic gravity and flags breeding candidates.
type PhysicsSystem struct {
	bounds Bounds
	grid   *SpatialGrid
	rng    *rand.Rand

	// reused between ticks
	points []r2.Vec
	deltaV []r2.Vec
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(bounds Bounds, cellSize float64, rng *rand.Rand) *PhysicsSystem {
	return &PhysicsSystem{
		bounds: bounds,
		grid:   NewSpatialGrid(bounds.Width, bounds.Height, cellSize),
		rng:    rng,
	}
}

// Update runs one tick over bodies and returns the breeding candidates.
// Every effect is computed from the state at the start of the call; pairwise
// distances never see positions integrated earlier in the same tick.
func (s *PhysicsSystem) Update(bodies []population.Body, p PhysicsParams) []Candidate {
	n := len(bodies)

	// Snapshot positions
	s.points = s.points[:0]
	s.deltaV = s.deltaV[:0]
	for _, b := range bodies {
		s.points = append(s.points, r2.Vec{X: b.Pos.X, Y: b.Pos.Y})
		s.deltaV = append(s.deltaV, r2.Vec{})
	}
	mutating := make([]bool, n)
	for i, b := range bodies {
		mutating[i] = b.Org.Mutating
	}

	// Pairwise semantic gravity and breeding eligibility
	var candidates []Candidate
	pull := p.SemanticGravity * p.AttractionImpulse
	s.grid.Rebuild(s.points)
	s.grid.Pairs(s.points, p.AttractionRadius, func(i, j int, delta r2.Vec, dist float64) {
		if dist > 0 && pull > 0 {
			impulse := r2.Scale(pull, r2.Unit(delta))
			s.deltaV[i] = r2.Add(s.deltaV[i], impulse)
			s.deltaV[j] = r2.Sub(s.deltaV[j], impulse)
		}

		if dist >= p.BreedingRadius || mutating[i] || mutating[j] {
			return
		}
		if s.rng.Float64() < p.MutationRate {
			candidates = append(candidates, Candidate{A: bodies[i].Org.ID, B: bodies[j].Org.ID})
		}
	})

	for i, b := range bodies {
		// Integrate position with the velocity from the start of the tick
		b.Pos.X += b.Vel.X
		b.Pos.Y += b.Vel.Y
		reflect(b.Pos, b.Vel, s.bounds)

		// Age and base metabolism
		b.Energy.Age++
		b.Energy.Value -= p.BaseMetabolism

		// Attraction takes effect from the next tick's integration
		v := r2.Add(r2.Vec{X: b.Vel.X, Y: b.Vel.Y}, s.deltaV[i])
		if p.MaxSpeed > 0 {
			if speed := r2.Norm(v); speed > p.MaxSpeed {
				v = r2.Scale(p.MaxSpeed/speed, v)
			}
		}
		b.Vel.X, b.Vel.Y = v.X, v.Y
	}

	return candidates
}

// reflect mirrors a position that crossed a wall back inside and negates the
// matching velocity component. The bounce is elastic.
func reflect(pos *components.Position, vel *components.Velocity, bounds Bounds) {
	pos.X, vel.X = reflectAxis(pos.X, vel.X, bounds.Width)
	pos.Y, vel.Y = reflectAxis(pos.Y, vel.Y, bounds.Height)
}

func reflectAxis(x, v, limit float64) (float64, float64) {
	switch {
	case x < 0:
		x = -x
		v = -v
	case x > limit:
		x = 2*limit - x
		v = -v
	default:
		return x, v
	}
	// Velocities larger than the world can still overshoot after mirroring
	return clamp(x, 0, limit), v
}

// clamp clamps x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
