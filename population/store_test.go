package population

import (
	"errors"
	"testing"

	"github.com/pthm-cable/biosynth/components"
)

func newTestStore() *Store {
	return NewStore(Options{
		Bounds:        Bounds{Width: 200, Height: 100},
		InitialEnergy: 100,
		Seed:          1,
	})
}

func TestSpawnMintsUniqueIncreasingIDs(t *testing.T) {
	s := newTestStore()

	a := s.Spawn("خورشید")
	b := s.Spawn("خورشید")
	if a == 0 || b == 0 {
		t.Fatalf("expected non-zero ids, got %d and %d", a, b)
	}
	if b <= a {
		t.Errorf("ids should increase: %d then %d", a, b)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestIDsNeverReusedAfterPrune(t *testing.T) {
	s := newTestStore()
	first := s.Spawn("ماه")
	s.Reset()

	next := s.Spawn("ماه")
	if next <= first {
		t.Errorf("id %d reused or decreased after reset (first %d)", next, first)
	}
}

func TestSpawnDefaultsInBounds(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 50; i++ {
		s.Spawn("دریا")
	}
	s.ForEach(func(st components.State) {
		if st.Pos.X < 0 || st.Pos.X > 200 || st.Pos.Y < 0 || st.Pos.Y > 100 {
			t.Errorf("organism %d spawned out of bounds at %+v", st.Org.ID, st.Pos)
		}
		if st.Energy.Value != 100 {
			t.Errorf("organism %d energy = %v, want 100", st.Org.ID, st.Energy.Value)
		}
	})
}

func TestSpawnOptions(t *testing.T) {
	s := newTestStore()
	id := s.Spawn("باد",
		WithPosition(components.Position{X: 10, Y: 20}),
		WithVelocity(components.Velocity{X: -1, Y: 2}),
		WithEnergy(7),
		WithLineage(3, 4, 2),
	)

	st, ok := s.Get(id)
	if !ok {
		t.Fatal("spawned organism not found")
	}
	if st.Pos != (components.Position{X: 10, Y: 20}) {
		t.Errorf("Pos = %+v", st.Pos)
	}
	if st.Vel != (components.Velocity{X: -1, Y: 2}) {
		t.Errorf("Vel = %+v", st.Vel)
	}
	if st.Energy.Value != 7 {
		t.Errorf("Energy = %v, want 7", st.Energy.Value)
	}
	if st.Org.ParentA != 3 || st.Org.ParentB != 4 || st.Org.Generation != 2 {
		t.Errorf("lineage = %+v", st.Org)
	}
	if st.Look != components.AppearanceFor("باد") {
		t.Errorf("appearance not derived from text: %+v", st.Look)
	}
}

func TestTrySpawnRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts []SpawnOption
		want error
	}{
		{"empty text", "", nil, ErrEmptyText},
		{"zero energy", "شب", []SpawnOption{WithEnergy(0)}, ErrNoEnergy},
		{"negative energy", "شب", []SpawnOption{WithEnergy(-3)}, ErrNoEnergy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			if _, err := s.TrySpawn(tt.text, tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("TrySpawn error = %v, want %v", err, tt.want)
			}
			if id := s.Spawn(tt.text, tt.opts...); id != 0 {
				t.Errorf("Spawn = %d, want 0", id)
			}
			if s.Len() != 0 {
				t.Errorf("Len = %d, want 0", s.Len())
			}
		})
	}
}

func TestPruneWhere(t *testing.T) {
	s := newTestStore()
	keep := s.Spawn("آتش", WithEnergy(5))
	dead1 := s.Spawn("خاک", WithEnergy(1))
	dead2 := s.Spawn("شب", WithEnergy(2))

	// Drain the two weaker organisms to zero and below
	s.Update(func(bodies []Body) {
		for _, b := range bodies {
			b.Energy.Value -= 2
		}
	})

	removed := s.PruneWhere(func(st components.State) bool { return st.Energy.Value <= 0 })

	if len(removed) != 2 || removed[0] != dead1 || removed[1] != dead2 {
		t.Errorf("removed = %v, want [%d %d]", removed, dead1, dead2)
	}
	if _, ok := s.Get(keep); !ok {
		t.Error("live organism was pruned")
	}
	if _, ok := s.Get(dead1); ok {
		t.Error("dead organism still present")
	}
}

func TestSnapshotOrderedAndDetached(t *testing.T) {
	s := newTestStore()
	a := s.Spawn("آینه")
	b := s.Spawn("ماه")

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != a || snap[1].ID != b {
		t.Fatalf("snapshot = %+v", snap)
	}

	snap[0].Energy = -100
	st, _ := s.Get(a)
	if st.Energy.Value != 100 {
		t.Error("mutating the snapshot changed the store")
	}
}

func TestUpdateWritesFields(t *testing.T) {
	s := newTestStore()
	id := s.Spawn("دریا", WithPosition(components.Position{X: 1, Y: 1}))

	s.Update(func(bodies []Body) {
		for _, b := range bodies {
			b.Pos.X += 5
			b.Energy.Value -= 1
		}
	})

	st, _ := s.Get(id)
	if st.Pos.X != 6 || st.Energy.Value != 99 {
		t.Errorf("Update not applied: pos %+v energy %v", st.Pos, st.Energy.Value)
	}
}

func TestClaimAndClearMutating(t *testing.T) {
	s := newTestStore()
	a := s.Spawn("خورشید")
	b := s.Spawn("ماه")
	c := s.Spawn("باد")

	sa, sb, ok := s.Claim(a, b)
	if !ok {
		t.Fatal("first claim should succeed")
	}
	if !sa.Org.Mutating || !sb.Org.Mutating {
		t.Error("claimed states should report mutating")
	}

	if _, _, ok := s.Claim(a, c); ok {
		t.Error("claim with an already mutating organism should fail")
	}
	if _, _, ok := s.Claim(c, c); ok {
		t.Error("claim of an organism with itself should fail")
	}
	if _, _, ok := s.Claim(c, 999); ok {
		t.Error("claim with a missing organism should fail")
	}

	s.ClearMutating(a, b, 999)
	if st, _ := s.Get(a); st.Org.Mutating {
		t.Error("a should be idle after ClearMutating")
	}
	if _, _, ok := s.Claim(a, c); !ok {
		t.Error("claim should succeed once flags are cleared")
	}
}

func TestDebitAndPosition(t *testing.T) {
	s := newTestStore()
	id := s.Spawn("شب", WithPosition(components.Position{X: 3, Y: 4}))

	if !s.Debit(id, 20) {
		t.Fatal("Debit on live organism should succeed")
	}
	if st, _ := s.Get(id); st.Energy.Value != 80 {
		t.Errorf("Energy = %v, want 80", st.Energy.Value)
	}
	if s.Debit(999, 20) {
		t.Error("Debit on missing organism should report false")
	}

	fallback := components.Position{X: -1, Y: -1}
	if p, ok := s.Position(id, fallback); !ok || p.X != 3 || p.Y != 4 {
		t.Errorf("Position = %+v, %v", p, ok)
	}
	if p, ok := s.Position(999, fallback); ok || p != fallback {
		t.Errorf("missing Position = %+v, %v; want fallback", p, ok)
	}
}

func TestAggregates(t *testing.T) {
	s := newTestStore()
	s.Spawn("آتش", WithEnergy(10))
	s.Spawn("خاک", WithEnergy(30), WithLineage(1, 2, 3))

	if got := s.TotalEnergy(); got != 40 {
		t.Errorf("TotalEnergy = %v, want 40", got)
	}
	if got := s.Energies(); len(got) != 2 || got[0] != 10 || got[1] != 30 {
		t.Errorf("Energies = %v", got)
	}
	if got := s.MaxGeneration(); got != 3 {
		t.Errorf("MaxGeneration = %d, want 3", got)
	}
}
