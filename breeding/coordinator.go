// Package breeding coordinates asynchronous breeding requests.
//
// The coordinator guarantees at most one in-flight Mutation Service call per
// unordered pair of organism ids. Calls run on their own goroutines and post
// their results to a queue; nothing touches the population until the owner of
// the simulation drains the queue with Apply, so a tick never observes a
// half-applied result.
package breeding

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/mutation"
	"github.com/pthm-cable/biosynth/population"
)

// Population is the subset of the Population Store the coordinator needs.
type Population interface {
	Claim(a, b components.ID) (components.State, components.State, bool)
	ClearMutating(ids ...components.ID)
	Debit(id components.ID, amount float64) bool
	Position(id components.ID, fallback components.Position) (components.Position, bool)
	Spawn(text string, opts ...population.SpawnOption) components.ID
}

// PairKey identifies an unordered pair of organisms.
type PairKey struct {
	Lo, Hi components.ID
}

// NewPairKey returns the canonical key for a and b.
func NewPairKey(a, b components.ID) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

// Options configures a Coordinator.
type Options struct {
	Cost        float64       // energy debited from each parent on success
	Timeout     time.Duration // bound on each Mutation Service call
	MaxInFlight int           // 0 = unlimited
	Logger      *slog.Logger
}

// Result is posted by a finished Mutation Service call.
type Result struct {
	Key        PairKey
	A, B       components.State // parents as they were when the request was issued
	Text       string
	Err        error
	Generation int
	Duration   time.Duration
}

// Outcome describes what Apply did with one Result.
type Outcome struct {
	Key      PairKey
	Child    components.ID // 0 when breeding failed
	Text     string
	Err      error
	TimedOut bool
	Debited  []components.ID // parents that were still present and paid
	Duration time.Duration
}

// Coordinator enforces the pair-lock and applies breeding results.
type Coordinator struct {
	store  Population
	svc    mutation.Service
	opts   Options
	logger *slog.Logger
	sem    *semaphore.Weighted

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	inFlight map[PairKey]context.CancelFunc
	queue    []Result
	epoch    uint64 // bumped by Cancel; results from older epochs are dropped
	wg       sync.WaitGroup
}

// NewCoordinator creates a coordinator that breeds organisms from store using svc.
func NewCoordinator(store Population, svc mutation.Service, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var sem *semaphore.Weighted
	if opts.MaxInFlight > 0 {
		sem = semaphore.NewWeighted(int64(opts.MaxInFlight))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:      store,
		svc:        svc,
		opts:       opts,
		logger:     logger,
		sem:        sem,
		baseCtx:    ctx,
		baseCancel: cancel,
		inFlight:   make(map[PairKey]context.CancelFunc),
	}
}

// TryBreed starts an asynchronous breeding request for a and b and reports
// whether one was started. It declines without side effects when the pair is
// already in flight, when either organism is missing or mutating, or when the
// in-flight cap is reached. It never blocks on the Mutation Service.
func (c *Coordinator) TryBreed(a, b components.ID) bool {
	key := NewPairKey(a, b)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[key]; busy {
		return false
	}

	sa, sb, ok := c.store.Claim(a, b)
	if !ok {
		return false
	}

	if c.sem != nil && !c.sem.TryAcquire(1) {
		c.store.ClearMutating(a, b)
		return false
	}

	ctx, cancel := context.WithTimeout(c.baseCtx, c.opts.Timeout)
	c.inFlight[key] = cancel
	epoch := c.epoch
	c.wg.Add(1)

	go c.run(ctx, cancel, key, epoch, sa, sb)

	c.logger.Debug("breeding_started", "a", sa.Org.ID, "b", sb.Org.ID, "text_a", sa.Org.Text, "text_b", sb.Org.Text)
	return true
}

// run calls the Mutation Service and posts the result.
func (c *Coordinator) run(ctx context.Context, cancel context.CancelFunc, key PairKey, epoch uint64, sa, sb components.State) {
	defer c.wg.Done()
	defer cancel()
	if c.sem != nil {
		defer c.sem.Release(1)
	}

	start := time.Now()
	text, err := c.svc.Mutate(ctx, sa.Org.Text, sb.Org.Text)
	if err == nil && text == "" {
		err = mutation.ErrEmptyResult
	}

	res := Result{
		Key:        key,
		A:          sa,
		B:          sb,
		Text:       text,
		Err:        err,
		Generation: max(sa.Org.Generation, sb.Org.Generation) + 1,
		Duration:   time.Since(start),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		// Cancelled: locks and flags were already released.
		return
	}
	c.queue = append(c.queue, res)
}

// Apply drains every posted result in arrival order and applies it to the
// population. On success the offspring is spawned at the midpoint of the
// parents' current positions and each parent still present pays the breeding
// cost. Success or not, both mutating flags are cleared and the pair-lock is
// released.
func (c *Coordinator) Apply() []Outcome {
	c.mu.Lock()
	results := c.queue
	c.queue = nil
	c.mu.Unlock()

	if len(results) == 0 {
		return nil
	}

	outcomes := make([]Outcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, c.apply(r))
	}
	return outcomes
}

func (c *Coordinator) apply(r Result) Outcome {
	a, b := r.A.Org.ID, r.B.Org.ID
	out := Outcome{
		Key:      r.Key,
		Text:     r.Text,
		Err:      r.Err,
		TimedOut: errors.Is(r.Err, context.DeadlineExceeded),
		Duration: r.Duration,
	}

	if r.Err == nil {
		// A parent pruned mid-flight contributes the position it had when the
		// request was issued.
		pa, _ := c.store.Position(a, r.A.Pos)
		pb, _ := c.store.Position(b, r.B.Pos)

		out.Child = c.store.Spawn(r.Text,
			population.WithPosition(components.Midpoint(pa, pb)),
			population.WithLineage(a, b, r.Generation),
		)

		for _, id := range []components.ID{a, b} {
			if c.store.Debit(id, c.opts.Cost) {
				out.Debited = append(out.Debited, id)
			}
		}

		c.logger.Info("breeding_succeeded",
			"a", a, "b", b,
			"child", out.Child,
			"text", r.Text,
			"generation", r.Generation,
			"debited", len(out.Debited),
			"duration_ms", r.Duration.Milliseconds(),
		)
	} else {
		c.logger.Warn("breeding_failed",
			"a", a, "b", b,
			"timed_out", out.TimedOut,
			"error", r.Err,
		)
	}

	c.store.ClearMutating(a, b)

	c.mu.Lock()
	delete(c.inFlight, r.Key)
	c.mu.Unlock()

	return out
}

// Pending reports whether a breeding request for the pair is in flight or
// waiting to be applied.
func (c *Coordinator) Pending(a, b components.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[NewPairKey(a, b)]
	return busy
}

// InFlight returns the number of pair-locks currently held.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// Queued returns the number of results waiting for Apply.
func (c *Coordinator) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Wait blocks until every running Mutation Service call has returned and
// posted its result.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Cancel cancels every in-flight call, waits for the calls to return, and
// releases every pair-lock and mutating flag. Results not yet applied are
// discarded. The coordinator stays usable afterwards.
func (c *Coordinator) Cancel() int {
	c.mu.Lock()
	c.epoch++
	keys := make([]PairKey, 0, len(c.inFlight))
	for key, cancel := range c.inFlight {
		cancel()
		keys = append(keys, key)
	}
	c.inFlight = make(map[PairKey]context.CancelFunc)
	dropped := len(c.queue)
	c.queue = nil
	c.mu.Unlock()

	c.wg.Wait()

	for _, key := range keys {
		c.store.ClearMutating(key.Lo, key.Hi)
	}

	if len(keys) > 0 {
		c.logger.Info("breeding_cancelled", "pairs", len(keys), "dropped_results", dropped)
	}
	return len(keys)
}

// Close cancels all outstanding work. The coordinator must not be used afterwards.
func (c *Coordinator) Close() {
	c.Cancel()
	c.baseCancel()
}
