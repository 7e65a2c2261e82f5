package ui

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ParticleType identifies the type of effect particle.
type ParticleType uint8

const (
	// ParticleBirth is a radial burst where a hybrid appears.
	ParticleBirth ParticleType = iota
	// ParticleDeath is a sinking wisp where an organism was pruned.
	ParticleDeath
)

// EffectParticle represents a visual feedback particle.
type EffectParticle struct {
	X, Y       float32
	VelX, VelY float32
	Life       int32
	MaxLife    int32
	Type       ParticleType
	Size       float32
}

// ParticleRenderer owns and renders effect particles.
type ParticleRenderer struct {
	Particles    []EffectParticle
	maxParticles int
	rng          *rand.Rand
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{
		Particles:    make([]EffectParticle, 0, 500),
		maxParticles: 500,
		rng:          rand.New(rand.NewSource(1)),
	}
}

// Emit spawns particles of the given type around (x, y). Birth emits a burst
// scaled by size; death emits a few slow wisps.
func (r *ParticleRenderer) Emit(ptype ParticleType, x, y, size float32) {
	count := 3
	if ptype == ParticleBirth {
		count = 8 + r.rng.Intn(7) // 8-14 particles
	}
	spread := size / 2
	if spread < 4 {
		spread = 4
	}
	for i := 0; i < count; i++ {
		if len(r.Particles) >= r.maxParticles {
			return
		}

		var velX, velY float32
		var life int32
		switch ptype {
		case ParticleBirth:
			// Radial burst
			angle := r.rng.Float64() * 2 * math.Pi
			speed := 0.5 + r.rng.Float32()*0.8
			velX = float32(math.Cos(angle)) * speed
			velY = float32(math.Sin(angle)) * speed
			life = 30 + r.rng.Int31n(30)
		default:
			velX = (r.rng.Float32() - 0.5) * 0.2
			velY = r.rng.Float32() * 0.2 // Downward
			life = 80 + r.rng.Int31n(60)
		}

		r.Particles = append(r.Particles, EffectParticle{
			X:       x + (r.rng.Float32()-0.5)*spread,
			Y:       y + (r.rng.Float32()-0.5)*spread,
			VelX:    velX,
			VelY:    velY,
			Life:    life,
			MaxLife: life,
			Type:    ptype,
			Size:    2 + r.rng.Float32()*1.5,
		})
	}
}

// Update ages and moves all particles, dropping expired ones.
func (r *ParticleRenderer) Update() {
	alive := 0
	for i := range r.Particles {
		p := &r.Particles[i]

		p.Life--
		if p.Life <= 0 {
			continue
		}

		switch p.Type {
		case ParticleDeath:
			// Sink downward
			p.VelY += 0.02
		case ParticleBirth:
			// Slight gravity
			p.VelY += 0.005
		}

		// Drag
		p.VelX *= 0.95
		p.VelY *= 0.95

		p.X += p.VelX
		p.Y += p.VelY

		r.Particles[alive] = r.Particles[i]
		alive++
	}
	r.Particles = r.Particles[:alive]
}

// Count returns the current number of active particles.
func (r *ParticleRenderer) Count() int {
	return len(r.Particles)
}

// Draw advances and renders all particles.
func (r *ParticleRenderer) Draw() {
	r.Update()
	for i := range r.Particles {
		p := &r.Particles[i]

		lifeRatio := float32(p.Life) / float32(p.MaxLife)

		var color rl.Color
		switch p.Type {
		case ParticleDeath:
			// Grey/brown
			color = rl.Color{R: 100, G: 80, B: 60, A: uint8(lifeRatio * 150)}
		default:
			// Orange
			color = rl.Color{R: 255, G: 150, B: 50, A: uint8(lifeRatio * 200)}
		}

		size := p.Size * lifeRatio
		if size < 0.5 {
			size = 0.5
		}
		rl.DrawCircle(int32(p.X), int32(p.Y), size, color)
	}
}
