// Package population owns the live set of organisms.
//
// The store is backed by an ark ECS world. Entity handles never leave the
// package: membership only changes through Spawn, PruneWhere and Reset, and
// every access is serialized behind the store's mutex.
package population

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosynth/components"
)

var (
	// ErrEmptyText is returned when spawning an organism without text.
	ErrEmptyText = errors.New("organism text is empty")
	// ErrNoEnergy is returned when spawning an organism with energy <= 0.
	ErrNoEnergy = errors.New("organism energy must be positive")
)

// Bounds is the rectangle default positions are drawn from.
type Bounds struct {
	Width, Height float64
}

// Options configures a Store.
type Options struct {
	Bounds        Bounds
	InitialEnergy float64 // energy for organisms spawned without WithEnergy
	InitialSpeed  float64 // max random speed per axis for organisms spawned without WithVelocity
	Seed          int64
}

// Body gives the Physics Stage write access to one organism's fields.
// Pointers are only valid inside the Update callback that produced them.
type Body struct {
	Pos    *components.Position
	Vel    *components.Velocity
	Energy *components.Energy
	Org    *components.Organism
}

// Store holds the organism population.
type Store struct {
	mu   sync.Mutex
	opts Options
	rng  *rand.Rand

	world  *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Organism,
		components.Appearance,
	]
	filter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Organism,
		components.Appearance,
	]

	index  map[components.ID]ecs.Entity
	nextID components.ID
}

// NewStore creates an empty population.
func NewStore(opts Options) *Store {
	world := ecs.NewWorld()
	return &Store{
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Organism,
			components.Appearance,
		](world),
		filter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Organism,
			components.Appearance,
		](world),
		index:  make(map[components.ID]ecs.Entity),
		nextID: 1,
	}
}

// SpawnOption customizes a spawned organism.
type SpawnOption func(*spawnParams)

type spawnParams struct {
	pos        *components.Position
	vel        *components.Velocity
	energy     *float64
	parentA    components.ID
	parentB    components.ID
	generation int
}

// WithPosition places the organism at p instead of a random in-bounds point.
func WithPosition(p components.Position) SpawnOption {
	return func(sp *spawnParams) { sp.pos = &p }
}

// WithVelocity sets the initial velocity instead of a random one.
func WithVelocity(v components.Velocity) SpawnOption {
	return func(sp *spawnParams) { sp.vel = &v }
}

// WithEnergy overrides the initial energy.
func WithEnergy(e float64) SpawnOption {
	return func(sp *spawnParams) { sp.energy = &e }
}

// WithLineage records the parents and generation of an offspring.
func WithLineage(a, b components.ID, generation int) SpawnOption {
	return func(sp *spawnParams) {
		sp.parentA = a
		sp.parentB = b
		sp.generation = generation
	}
}

// Spawn inserts a new organism and returns its freshly minted id.
// Rejected input yields 0; use TrySpawn to get the error.
func (s *Store) Spawn(text string, opts ...SpawnOption) components.ID {
	id, err := s.TrySpawn(text, opts...)
	if err != nil {
		return 0
	}
	return id
}

// TrySpawn is Spawn with an explicit error for rejected input.
func (s *Store) TrySpawn(text string, opts ...SpawnOption) (components.ID, error) {
	if text == "" {
		return 0, ErrEmptyText
	}

	var sp spawnParams
	for _, o := range opts {
		o(&sp)
	}
	if sp.energy != nil && *sp.energy <= 0 {
		return 0, ErrNoEnergy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	var pos components.Position
	if sp.pos != nil {
		pos = *sp.pos
	} else {
		pos = components.Position{
			X: s.rng.Float64() * s.opts.Bounds.Width,
			Y: s.rng.Float64() * s.opts.Bounds.Height,
		}
	}

	var vel components.Velocity
	if sp.vel != nil {
		vel = *sp.vel
	} else if s.opts.InitialSpeed > 0 {
		vel = components.Velocity{
			X: (s.rng.Float64()*2 - 1) * s.opts.InitialSpeed,
			Y: (s.rng.Float64()*2 - 1) * s.opts.InitialSpeed,
		}
	}

	energy := components.Energy{Value: s.opts.InitialEnergy}
	if sp.energy != nil {
		energy.Value = *sp.energy
	}

	org := components.Organism{
		ID:         id,
		Text:       text,
		Generation: sp.generation,
		ParentA:    sp.parentA,
		ParentB:    sp.parentB,
	}
	look := components.AppearanceFor(text)

	entity := s.mapper.NewEntity(&pos, &vel, &energy, &org, &look)
	s.index[id] = entity

	return id, nil
}

// Len returns the number of live organisms.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Get returns a copy of the organism with the given id.
func (s *Store) Get(id components.ID) (components.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id components.ID) (components.State, bool) {
	entity, ok := s.index[id]
	if !ok {
		return components.State{}, false
	}
	pos, vel, energy, org, look := s.mapper.Get(entity)
	return components.State{Pos: *pos, Vel: *vel, Energy: *energy, Org: *org, Look: *look}, true
}

// ForEach calls fn with a copy of every organism, ordered by id.
func (s *Store) ForEach(fn func(components.State)) {
	s.mu.Lock()
	states := s.collect()
	s.mu.Unlock()

	for _, st := range states {
		fn(st)
	}
}

// Snapshot returns the render-facing view of every organism, ordered by id.
func (s *Store) Snapshot() []components.OrganismView {
	s.mu.Lock()
	states := s.collect()
	s.mu.Unlock()

	views := make([]components.OrganismView, len(states))
	for i, st := range states {
		views[i] = st.View()
	}
	return views
}

// collect copies all organisms. Caller must hold the lock.
func (s *Store) collect() []components.State {
	states := make([]components.State, 0, len(s.index))
	query := s.filter.Query()
	for query.Next() {
		pos, vel, energy, org, look := query.Get()
		states = append(states, components.State{Pos: *pos, Vel: *vel, Energy: *energy, Org: *org, Look: *look})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Org.ID < states[j].Org.ID })
	return states
}

// Update runs fn with write access to every organism's fields, ordered by id.
// Membership cannot change while fn runs.
func (s *Store) Update(fn func([]Body)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bodies := make([]Body, 0, len(s.index))
	query := s.filter.Query()
	for query.Next() {
		pos, vel, energy, org, _ := query.Get()
		bodies = append(bodies, Body{Pos: pos, Vel: vel, Energy: energy, Org: org})
	}
	sort.Slice(bodies, func(i, j int) bool { return bodies[i].Org.ID < bodies[j].Org.ID })

	fn(bodies)
}

// PruneWhere removes every organism matching pred and returns the removed ids
// in ascending order.
func (s *Store) PruneWhere(pred func(components.State) bool) []components.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: collect matches (must complete before modifying)
	var removed []components.ID
	for _, st := range s.collect() {
		if pred(st) {
			removed = append(removed, st.Org.ID)
		}
	}

	// Second pass: remove entities (query iteration complete)
	for _, id := range removed {
		s.world.RemoveEntity(s.index[id])
		delete(s.index, id)
	}
	return removed
}

// Reset removes every organism. Ids minted afterwards keep increasing.
func (s *Store) Reset() []components.ID {
	return s.PruneWhere(func(components.State) bool { return true })
}

// Claim atomically flags a and b as mutating if both exist, are distinct and
// neither is already mutating. It returns copies taken after flagging.
func (s *Store) Claim(a, b components.ID) (components.State, components.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a == b {
		return components.State{}, components.State{}, false
	}
	ea, okA := s.index[a]
	eb, okB := s.index[b]
	if !okA || !okB {
		return components.State{}, components.State{}, false
	}

	_, _, _, orgA, _ := s.mapper.Get(ea)
	_, _, _, orgB, _ := s.mapper.Get(eb)
	if orgA.Mutating || orgB.Mutating {
		return components.State{}, components.State{}, false
	}
	orgA.Mutating = true
	orgB.Mutating = true

	sa, _ := s.get(a)
	sb, _ := s.get(b)
	return sa, sb, true
}

// ClearMutating resets the mutating flag on every listed organism that still exists.
func (s *Store) ClearMutating(ids ...components.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		entity, ok := s.index[id]
		if !ok {
			continue
		}
		_, _, _, org, _ := s.mapper.Get(entity)
		org.Mutating = false
	}
}

// Debit subtracts amount from the organism's energy. It reports false, and
// does nothing, when the organism no longer exists.
func (s *Store) Debit(id components.ID, amount float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.index[id]
	if !ok {
		return false
	}
	_, _, energy, _, _ := s.mapper.Get(entity)
	energy.Value -= amount
	return true
}

// Position returns the current position of id, or fallback if it is gone.
func (s *Store) Position(id components.ID, fallback components.Position) (components.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.index[id]
	if !ok {
		return fallback, false
	}
	pos, _, _, _, _ := s.mapper.Get(entity)
	return *pos, true
}

// TotalEnergy sums the energy of all organisms.
func (s *Store) TotalEnergy() float64 {
	var total float64
	s.ForEach(func(st components.State) { total += st.Energy.Value })
	return total
}

// Energies returns every organism's energy, ordered by id.
func (s *Store) Energies() []float64 {
	var out []float64
	s.ForEach(func(st components.State) { out = append(out, st.Energy.Value) })
	return out
}

// MaxGeneration returns the highest generation present, or 0 when empty.
func (s *Store) MaxGeneration() int {
	gen := 0
	s.ForEach(func(st components.State) { gen = max(gen, st.Org.Generation) })
	return gen
}
