package breeding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/mutation"
	"github.com/pthm-cable/biosynth/population"
)

const testCost = 20

func newStore() *population.Store {
	return population.NewStore(population.Options{
		Bounds:        population.Bounds{Width: 200, Height: 200},
		InitialEnergy: 100,
		Seed:          1,
	})
}

func newCoordinator(store Population, svc mutation.Service, opts Options) *Coordinator {
	if opts.Cost == 0 {
		opts.Cost = testCost
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCoordinator(store, svc, opts)
}

// gated returns a service that blocks until release is closed and counts calls.
func gated(release <-chan struct{}, calls *atomic.Int32) mutation.Service {
	return mutation.Func(func(ctx context.Context, a, b string) (string, error) {
		calls.Add(1)
		select {
		case <-release:
			return a + mutation.ZWNJ + b, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func mutating(t *testing.T, s *population.Store, id components.ID) bool {
	t.Helper()
	st, ok := s.Get(id)
	if !ok {
		t.Fatalf("organism %d missing", id)
	}
	return st.Org.Mutating
}

func TestNewPairKeyIsUnordered(t *testing.T) {
	if NewPairKey(3, 7) != NewPairKey(7, 3) {
		t.Error("pair key depends on argument order")
	}
	if k := NewPairKey(9, 2); k.Lo != 2 || k.Hi != 9 {
		t.Errorf("key = %+v, want {2 9}", k)
	}
}

func TestPairLockExclusive(t *testing.T) {
	store := newStore()
	a := store.Spawn("خورشید")
	b := store.Spawn("ماه")

	release := make(chan struct{})
	var calls atomic.Int32
	c := newCoordinator(store, gated(release, &calls), Options{})
	defer c.Close()

	if !c.TryBreed(a, b) {
		t.Fatal("first TryBreed should start a request")
	}
	if c.TryBreed(a, b) {
		t.Error("second TryBreed for the same pair should decline")
	}
	if c.TryBreed(b, a) {
		t.Error("TryBreed with swapped ids should decline")
	}
	if !c.Pending(b, a) {
		t.Error("pair should be pending")
	}
	if got := c.InFlight(); got != 1 {
		t.Errorf("InFlight = %d, want 1", got)
	}

	close(release)
	c.Wait()
	c.Apply()

	if got := calls.Load(); got != 1 {
		t.Errorf("service invoked %d times, want 1", got)
	}
	if got := store.Len(); got != 3 {
		t.Errorf("population = %d, want 3", got)
	}
}

func TestSuccessSpawnsOffspringAndDebitsParents(t *testing.T) {
	store := newStore()
	a := store.Spawn("خورشید", population.WithPosition(components.Position{X: 10, Y: 40}))
	b := store.Spawn("ماه", population.WithPosition(components.Position{X: 30, Y: 60}), population.WithLineage(0, 0, 2))

	svc := mutation.Func(func(_ context.Context, x, y string) (string, error) {
		return x + mutation.ZWNJ + y, nil
	})
	c := newCoordinator(store, svc, Options{})
	defer c.Close()

	if !c.TryBreed(a, b) {
		t.Fatal("TryBreed declined")
	}
	if !mutating(t, store, a) || !mutating(t, store, b) {
		t.Error("parents should be flagged while the request is pending")
	}

	c.Wait()
	outcomes := c.Apply()
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(outcomes))
	}
	out := outcomes[0]
	if out.Err != nil || out.Child == 0 {
		t.Fatalf("outcome = %+v", out)
	}

	if got := store.Len(); got != 3 {
		t.Errorf("population = %d, want 3", got)
	}
	child, ok := store.Get(out.Child)
	if !ok {
		t.Fatal("offspring not in store")
	}
	if want := "خورشید" + mutation.ZWNJ + "ماه"; child.Org.Text != want {
		t.Errorf("offspring text = %q, want %q", child.Org.Text, want)
	}
	if child.Pos != (components.Position{X: 20, Y: 50}) {
		t.Errorf("offspring position = %+v, want midpoint {20 50}", child.Pos)
	}
	if child.Energy.Value != 100 {
		t.Errorf("offspring energy = %v, want 100", child.Energy.Value)
	}
	if child.Org.Generation != 3 || child.Org.ParentA != a || child.Org.ParentB != b {
		t.Errorf("lineage = %+v", child.Org)
	}

	for _, id := range []components.ID{a, b} {
		st, _ := store.Get(id)
		if st.Energy.Value != 100-testCost {
			t.Errorf("parent %d energy = %v, want %v", id, st.Energy.Value, 100-testCost)
		}
		if st.Org.Mutating {
			t.Errorf("parent %d still mutating", id)
		}
	}
	if c.Pending(a, b) || c.InFlight() != 0 {
		t.Error("pair-lock not released after success")
	}
}

func TestFailureReleasesLock(t *testing.T) {
	tests := []struct {
		name string
		svc  mutation.Service
	}{
		{"service error", mutation.Func(func(context.Context, string, string) (string, error) {
			return "", errors.New("upstream unavailable")
		})},
		{"empty result", mutation.Func(func(context.Context, string, string) (string, error) {
			return "", nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			a := store.Spawn("آتش")
			b := store.Spawn("خاک")
			c := newCoordinator(store, tt.svc, Options{})
			defer c.Close()

			if !c.TryBreed(a, b) {
				t.Fatal("TryBreed declined")
			}
			c.Wait()
			outcomes := c.Apply()

			if len(outcomes) != 1 || outcomes[0].Err == nil || outcomes[0].Child != 0 {
				t.Fatalf("outcomes = %+v, want one failure", outcomes)
			}
			if store.Len() != 2 {
				t.Errorf("population = %d, want 2", store.Len())
			}
			if mutating(t, store, a) || mutating(t, store, b) {
				t.Error("flags not cleared after failure")
			}
			for _, id := range []components.ID{a, b} {
				if st, _ := store.Get(id); st.Energy.Value != 100 {
					t.Errorf("failed breeding debited %d: energy %v", id, st.Energy.Value)
				}
			}
			if !c.TryBreed(a, b) {
				t.Error("pair should be breedable again after failure")
			}
		})
	}
}

func TestTimeoutReleasesLock(t *testing.T) {
	store := newStore()
	a := store.Spawn("باد")
	b := store.Spawn("باران")

	never := make(chan struct{})
	var calls atomic.Int32
	c := newCoordinator(store, gated(never, &calls), Options{Timeout: 10 * time.Millisecond})
	defer c.Close()

	if !c.TryBreed(a, b) {
		t.Fatal("TryBreed declined")
	}
	c.Wait()
	outcomes := c.Apply()

	if len(outcomes) != 1 || !outcomes[0].TimedOut {
		t.Fatalf("outcomes = %+v, want one timeout", outcomes)
	}
	if !errors.Is(outcomes[0].Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", outcomes[0].Err)
	}
	if mutating(t, store, a) || mutating(t, store, b) || c.Pending(a, b) {
		t.Error("timeout did not release the pair")
	}
}

func TestPrunedParentIsNotDebited(t *testing.T) {
	store := newStore()
	a := store.Spawn("شب", population.WithPosition(components.Position{X: 0, Y: 0}))
	b := store.Spawn("روز", population.WithPosition(components.Position{X: 40, Y: 20}))

	release := make(chan struct{})
	var calls atomic.Int32
	c := newCoordinator(store, gated(release, &calls), Options{})
	defer c.Close()

	if !c.TryBreed(a, b) {
		t.Fatal("TryBreed declined")
	}
	store.PruneWhere(func(st components.State) bool { return st.Org.ID == a })

	close(release)
	c.Wait()
	outcomes := c.Apply()

	if len(outcomes) != 1 || outcomes[0].Child == 0 {
		t.Fatalf("outcomes = %+v, want offspring", outcomes)
	}
	if got := outcomes[0].Debited; len(got) != 1 || got[0] != b {
		t.Errorf("debited = %v, want [%d]", got, b)
	}
	if st, _ := store.Get(b); st.Energy.Value != 100-testCost {
		t.Errorf("surviving parent energy = %v", st.Energy.Value)
	}
	child, _ := store.Get(outcomes[0].Child)
	if child.Pos != (components.Position{X: 20, Y: 10}) {
		t.Errorf("offspring position = %+v, want {20 10}", child.Pos)
	}
	if store.Len() != 2 {
		t.Errorf("population = %d, want 2", store.Len())
	}
}

func TestCancelReleasesEverything(t *testing.T) {
	store := newStore()
	a := store.Spawn("آب")
	b := store.Spawn("آینه")
	d := store.Spawn("کوه")
	e := store.Spawn("دشت")

	never := make(chan struct{})
	var calls atomic.Int32
	c := newCoordinator(store, gated(never, &calls), Options{Timeout: time.Minute})
	defer c.Close()

	c.TryBreed(a, b)
	c.TryBreed(d, e)

	if got := c.Cancel(); got != 2 {
		t.Errorf("Cancel released %d pairs, want 2", got)
	}
	if c.InFlight() != 0 || c.Queued() != 0 {
		t.Errorf("after Cancel: in flight %d, queued %d", c.InFlight(), c.Queued())
	}
	for _, id := range []components.ID{a, b, d, e} {
		if mutating(t, store, id) {
			t.Errorf("organism %d still mutating after Cancel", id)
		}
	}
	if out := c.Apply(); out != nil {
		t.Errorf("stale results applied: %+v", out)
	}
	if store.Len() != 4 {
		t.Errorf("population = %d, want 4", store.Len())
	}
	if !c.TryBreed(a, b) {
		t.Error("coordinator should accept new requests after Cancel")
	}
}

func TestMaxInFlightDeclinesWithoutSideEffects(t *testing.T) {
	store := newStore()
	a := store.Spawn("گل")
	b := store.Spawn("خار")
	d := store.Spawn("ابر")
	e := store.Spawn("مه")

	release := make(chan struct{})
	var calls atomic.Int32
	c := newCoordinator(store, gated(release, &calls), Options{MaxInFlight: 1})
	defer c.Close()

	if !c.TryBreed(a, b) {
		t.Fatal("first request declined")
	}
	if c.TryBreed(d, e) {
		t.Fatal("request over the cap should decline")
	}
	if mutating(t, store, d) || mutating(t, store, e) {
		t.Error("declined pair left flagged")
	}
	if c.Pending(d, e) {
		t.Error("declined pair registered")
	}

	close(release)
	c.Wait()
	c.Apply()

	if !c.TryBreed(d, e) {
		t.Error("capacity should be available after the first call returned")
	}
}

func TestTryBreedDeclinesMissingOrBusy(t *testing.T) {
	store := newStore()
	a := store.Spawn("سنگ")
	b := store.Spawn("چوب")
	d := store.Spawn("آهن")

	release := make(chan struct{})
	defer close(release)
	var calls atomic.Int32
	c := newCoordinator(store, gated(release, &calls), Options{})
	defer c.Close()

	if c.TryBreed(a, 999) {
		t.Error("TryBreed with a missing organism should decline")
	}
	if c.TryBreed(a, a) {
		t.Error("TryBreed of an organism with itself should decline")
	}
	if !c.TryBreed(a, b) {
		t.Fatal("TryBreed declined")
	}
	if c.TryBreed(b, d) {
		t.Error("TryBreed with a mutating organism should decline")
	}
	if mutating(t, store, d) {
		t.Error("declined request flagged the idle organism")
	}
}
