package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fastprodman/drawengine/internal/config"
	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
)

type clockWaiter struct {
	at time.Time
	ch chan time.Time
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, clockWaiter{at: c.now.Add(d), ch: ch})

	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	keep := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at.After(c.now) {
			keep = append(keep, w)
			continue
		}

		w.ch <- c.now
	}

	c.waiters = keep
}

// awaitSleepers blocks until n goroutines wait on the clock.
func (c *fakeClock) awaitSleepers(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.waiters)
		c.mu.Unlock()

		if got >= n {
			return
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatalf("timed out waiting for %d sleepers", n)
}

type fakeStore struct {
	mu          sync.Mutex
	periods     map[string]period.Period
	failPrepare int
	prepares    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{periods: map[string]period.Period{}}
}

func (s *fakeStore) Open(_ context.Context, p period.Period, _ time.Time) (period.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.openLocked(p), nil
}

func (s *fakeStore) openLocked(p period.Period) period.Period {
	have, ok := s.periods[p.ID]
	if !ok {
		have = p
	}

	if have.State == period.StatePending {
		have.State = period.StateOpen
	}

	s.periods[p.ID] = have

	return have
}

func (s *fakeStore) Prepare(_ context.Context, p period.Period, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prepares++

	if s.failPrepare > 0 {
		s.failPrepare--
		return errors.New("connection reset")
	}

	s.openLocked(p)

	return nil
}

func (s *fakeStore) Handoff(_ context.Context, cur, next period.Period, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.periods[cur.ID]
	if c.State == period.StateOpen {
		c.State = period.StateClosing
		s.periods[cur.ID] = c
	}

	s.openLocked(next)

	return nil
}

func (s *fakeStore) ListUnfinished(_ context.Context, before time.Time, limit int) ([]period.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []period.Period

	for _, p := range s.periods {
		if p.State != period.StateCompleted && !p.EndAt.After(before) {
			out = append(out, p)
		}
	}

	slices.SortFunc(out, func(a, b period.Period) int { return a.EndAt.Compare(b.EndAt) })

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (s *fakeStore) get(id string) period.Period {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.periods[id]
}

type fakeSettler struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeSettler) Settle(_ context.Context, id string) (draw.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, id)

	if f.fail[id] {
		return draw.Record{}, errors.New("ledger down")
	}

	return draw.Record{PeriodID: id, Method: draw.MethodMinExposure}, nil
}

func testScheduler(store Store, settler Settler, hub *Hub, clock Clock) *Scheduler {
	s := New(game.DefaultCatalog(), store, settler, hub, config.SchedulerConfig{
		Lead:          10 * time.Second,
		SettleTimeout: time.Second,
	})
	s.clock = clock
	s.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	return s
}

func TestLaneLifecycle(t *testing.T) {
	t.Parallel()

	key := period.Key{Game: game.Wingo, Duration: 30 * time.Second}
	clock := &fakeClock{now: time.Date(2026, 10, 16, 12, 0, 5, 0, time.UTC)}
	store := newFakeStore()
	store.failPrepare = 1
	settler := &fakeSettler{}
	hub := NewHub()

	records, unsubscribe := hub.Subscribe(4)
	defer unsubscribe()

	s := testScheduler(store, settler, hub, clock)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.runLane(ctx, key)
	}()

	first := period.At(key, clock.Now())
	second := period.Next(first)

	clock.awaitSleepers(t, 1)

	if got := store.get(first.ID).State; got != period.StateOpen {
		t.Fatalf("current period state = %s, want open", got)
	}

	// 12:00:20, lead time before the boundary
	clock.Advance(15 * time.Second)
	clock.awaitSleepers(t, 1)

	if got := store.get(second.ID).State; got != period.StateOpen {
		t.Fatalf("next period state = %q, want open ahead of the boundary", got)
	}

	store.mu.Lock()
	prepares := store.prepares
	store.mu.Unlock()

	if prepares != 2 {
		t.Fatalf("prepares = %d, want a retry after the fault", prepares)
	}

	// the boundary instant is covered before the handoff has closed first
	if !store.get(second.ID).Accepting(first.EndAt) {
		t.Fatalf("%s not accepting at %s", second.ID, first.EndAt)
	}

	if got := store.get(first.ID).State; got != period.StateOpen {
		t.Fatalf("current period state = %s before the boundary, want open", got)
	}

	// 12:00:30, the boundary
	clock.Advance(10 * time.Second)

	select {
	case rec := <-records:
		if rec.PeriodID != first.ID {
			t.Fatalf("published %s, want %s", rec.PeriodID, first.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no settlement published")
	}

	if got := store.get(first.ID).State; got != period.StateClosing {
		t.Fatalf("closed period state = %s", got)
	}

	if got := store.get(second.ID).State; got != period.StateOpen {
		t.Fatalf("following period state = %s", got)
	}

	cancel()
	<-done
}

func TestRecover(t *testing.T) {
	t.Parallel()

	key := period.Key{Game: game.K3, Duration: time.Minute}
	now := time.Date(2026, 10, 16, 12, 5, 0, 0, time.UTC)

	stuck := period.At(key, now.Add(-3*time.Minute))
	stuck.State = period.StateSettling
	neverClosed := period.At(key, now.Add(-2*time.Minute))
	neverClosed.State = period.StateOpen
	running := period.At(key, now)
	running.State = period.StateOpen
	done := period.At(key, now.Add(-4*time.Minute))
	done.State = period.StateCompleted

	store := newFakeStore()
	for _, p := range []period.Period{stuck, neverClosed, running, done} {
		store.periods[p.ID] = p
	}

	settler := &fakeSettler{fail: map[string]bool{neverClosed.ID: true}}
	hub := NewHub()

	records, unsubscribe := hub.Subscribe(4)
	defer unsubscribe()

	s := testScheduler(store, settler, hub, &fakeClock{now: now})

	err := s.Recover(t.Context())
	if err == nil {
		t.Fatal("expected the failed period to be reported")
	}

	if want := []string{stuck.ID, neverClosed.ID}; !slices.Equal(settler.calls, want) {
		t.Fatalf("settled %v, want %v", settler.calls, want)
	}

	if rec := <-records; rec.PeriodID != stuck.ID {
		t.Fatalf("published %s", rec.PeriodID)
	}

	select {
	case rec := <-records:
		t.Fatalf("unexpected publication of %s", rec.PeriodID)
	default:
	}
}

func TestLanesFollowCatalog(t *testing.T) {
	t.Parallel()

	s := testScheduler(newFakeStore(), &fakeSettler{}, NewHub(), &fakeClock{})

	lanes := s.Lanes()
	if len(lanes) != 16 {
		t.Fatalf("lanes = %d, want 16", len(lanes))
	}

	if !slices.Contains(lanes, period.Key{Game: game.TRX, Duration: 10 * time.Minute}) {
		t.Fatalf("missing trx/600s lane in %v", lanes)
	}
}

func TestHub(t *testing.T) {
	t.Parallel()

	hub := NewHub()

	fast, stopFast := hub.Subscribe(2)
	slow, stopSlow := hub.Subscribe(0)

	hub.Publish(draw.Record{PeriodID: "a"})

	if rec := <-fast; rec.PeriodID != "a" {
		t.Fatalf("got %s", rec.PeriodID)
	}

	select {
	case <-slow:
		t.Fatal("unbuffered subscriber without a reader should miss the record")
	default:
	}

	stopSlow()
	stopSlow()

	if _, open := <-slow; open {
		t.Fatal("channel not closed after unsubscribe")
	}

	hub.Publish(draw.Record{PeriodID: "b"})
	stopFast()

	if rec := <-fast; rec.PeriodID != "b" {
		t.Fatalf("buffered record lost: %s", rec.PeriodID)
	}
}
