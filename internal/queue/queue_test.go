package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-push-sync/internal/utils"
)

const waitTimeout = 2 * time.Second

var errTransient = errors.New("transient")

func retryTransient(err error) bool { return errors.Is(err, errTransient) }

// ── Helpers ──────────────────────────────────────────────────────────────────

type fakeReach struct {
	mu        sync.Mutex
	reachable bool
	changes   chan struct{}
}

func newFakeReach(reachable bool) *fakeReach {
	return &fakeReach{reachable: reachable, changes: make(chan struct{})}
}

func (f *fakeReach) IsReachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

func (f *fakeReach) Changes() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changes
}

func (f *fakeReach) set(reachable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reachable && !f.reachable {
		close(f.changes)
		f.changes = make(chan struct{})
	}
	f.reachable = reachable
}

type stateLog struct {
	mu     sync.Mutex
	states map[Key][]State
	ch     chan State
}

func newStateLog() *stateLog {
	return &stateLog{states: make(map[Key][]State), ch: make(chan State, 128)}
}

func (l *stateLog) observe(key Key, _ string, s State) {
	l.mu.Lock()
	l.states[key] = append(l.states[key], s)
	l.mu.Unlock()
	l.ch <- s
}

func (l *stateLog) waitFor(t *testing.T, want State) {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case s := <-l.ch:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func (l *stateLog) of(key Key) []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states[key]...)
}

func waitTicket(t *testing.T, ticket *Ticket) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	select {
	case <-ticket.Done():
		return ticket.Err()
	case <-ctx.Done():
		t.Fatalf("ticket %s did not finish", ticket.Key())
		return nil
	}
}

// gate blocks a task until released.
func gate() (RunFunc, chan struct{}, chan struct{}) {
	started := make(chan struct{})
	release := make(chan struct{})
	return func(ctx context.Context) error {
		close(started)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, started, release
}

func recorder(mu *sync.Mutex, order *[]string, name string) RunFunc {
	return func(context.Context) error {
		mu.Lock()
		*order = append(*order, name)
		mu.Unlock()
		return nil
	}
}

// ── Ordering ─────────────────────────────────────────────────────────────────

func TestQueue_FIFOWithinBand(t *testing.T) {
	q := New("test")
	defer q.Close()

	run, started, release := gate()
	q.Enqueue(NewTask(Key{Type: "blocker"}, Normal, run), nil)
	<-started

	var mu sync.Mutex
	var order []string
	var tickets []*Ticket
	for _, name := range []string{"a", "b", "c"} {
		tickets = append(tickets, q.Enqueue(NewTask(Key{Type: name}, Normal, recorder(&mu, &order, name)), nil))
	}
	close(release)

	for _, tk := range tickets {
		require.NoError(t, waitTicket(t, tk))
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestQueue_VeryHighRunsBeforeQueuedNormal(t *testing.T) {
	q := New("test")
	defer q.Close()

	run, started, release := gate()
	q.Enqueue(NewTask(Key{Type: "blocker"}, Normal, run), nil)
	<-started

	var mu sync.Mutex
	var order []string
	n1 := q.Enqueue(NewTask(Key{Type: "fetch", Target: "1"}, Normal, recorder(&mu, &order, "fetch1")), nil)
	n2 := q.Enqueue(NewTask(Key{Type: "fetch", Target: "2"}, Normal, recorder(&mu, &order, "fetch2")), nil)
	hi := q.Enqueue(NewTask(Key{Type: "depersonalize"}, VeryHigh, recorder(&mu, &order, "depersonalize")), nil)
	close(release)

	for _, tk := range []*Ticket{n1, n2, hi} {
		require.NoError(t, waitTicket(t, tk))
	}
	assert.Equal(t, []string{"depersonalize", "fetch1", "fetch2"}, order)
}

func TestQueue_CallbacksFollowCompletionOrder(t *testing.T) {
	q := New("test")
	defer q.Close()

	run, started, release := gate()
	q.Enqueue(NewTask(Key{Type: "blocker"}, Normal, run), nil)
	<-started

	var mu sync.Mutex
	var order []string
	cb := func(name string) func(error) {
		return func(error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}
	noop := func(context.Context) error { return nil }

	t1 := q.Enqueue(NewTask(Key{Type: "fetch", Target: "1"}, Normal, noop), cb("fetch1"))
	t2 := q.Enqueue(NewTask(Key{Type: "depersonalize"}, VeryHigh, noop), cb("depersonalize"))
	close(release)

	require.NoError(t, waitTicket(t, t1))
	require.NoError(t, waitTicket(t, t2))
	assert.Equal(t, []string{"depersonalize", "fetch1"}, order)
}

// ── Coalescing ───────────────────────────────────────────────────────────────

func TestQueue_CoalescesQueuedTasksWithSameKey(t *testing.T) {
	q := New("test")
	defer q.Close()

	run, started, release := gate()
	q.Enqueue(NewTask(Key{Type: "blocker"}, Normal, run), nil)
	<-started

	var runs atomic.Int32
	var callbacks atomic.Int32
	task := func(context.Context) error {
		runs.Add(1)
		return nil
	}
	cb := func(error) { callbacks.Add(1) }

	key := Key{Type: "create", Target: "installation"}
	first := q.Enqueue(NewTask(key, Normal, task), cb)
	second := q.Enqueue(NewTask(key, Normal, task), cb)
	assert.Same(t, first, second)

	close(release)
	require.NoError(t, waitTicket(t, first))

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(2), callbacks.Load())
}

func TestQueue_DoesNotCoalesceStartedTask(t *testing.T) {
	q := New("test")
	defer q.Close()

	key := Key{Type: "update"}
	run, started, release := gate()
	first := q.Enqueue(NewTask(key, Normal, run), nil)
	<-started

	var runs atomic.Int32
	second := q.Enqueue(NewTask(key, Normal, func(context.Context) error {
		runs.Add(1)
		return nil
	}), nil)
	assert.NotSame(t, first, second)

	close(release)
	require.NoError(t, waitTicket(t, first))
	require.NoError(t, waitTicket(t, second))
	assert.Equal(t, int32(1), runs.Load())
}

func TestQueue_CoalescedFailFastCallerTightensPolicy(t *testing.T) {
	reach := newFakeReach(false)
	q := New("test",
		WithClock(clockwork.NewFakeClock()),
		WithReachability(reach),
		WithRetryClassifier(retryTransient),
	)
	defer q.Close()

	run, started, release := gate()
	q.Enqueue(NewTask(Key{Type: "blocker"}, Normal, run), nil)
	<-started

	var attempts atomic.Int32
	task := func(context.Context) error {
		attempts.Add(1)
		return errTransient
	}

	key := Key{Type: "sync", Target: "user"}
	background := q.Enqueue(NewTask(key, Normal, task, WithRetryLimit(3), WaitForReachability(true)), nil)
	userInitiated := q.Enqueue(NewTask(key, Normal, task, WithRetryLimit(0), WaitForReachability(false)), nil)
	require.Same(t, background, userInitiated)

	close(release)
	err := waitTicket(t, userInitiated)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, int32(1), attempts.Load())
}

// ── Retry ────────────────────────────────────────────────────────────────────

func TestQueue_RetriesWithBackoff(t *testing.T) {
	fc := clockwork.NewFakeClock()
	states := newStateLog()
	q := New("test",
		WithClock(fc),
		WithBackoff(time.Second, 10*time.Second),
		WithRetryClassifier(retryTransient),
		WithStateObserver(states.observe),
	)
	defer q.Close()

	var attempts atomic.Int32
	key := Key{Type: "flaky"}
	ticket := q.Enqueue(NewTask(key, Normal, func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errTransient
		}
		return nil
	}, WithRetryLimit(5)), nil)

	states.waitFor(t, StateRetryScheduled)
	assert.Equal(t, StateRetryScheduled, ticket.State())
	fc.Advance(time.Second)

	states.waitFor(t, StateRetryScheduled)
	fc.Advance(2 * time.Second)

	require.NoError(t, waitTicket(t, ticket))
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, []State{
		StateQueued, StateExecuting, StateRetryScheduled,
		StateExecuting, StateRetryScheduled, StateExecuting, StateFinished,
	}, states.of(key))
}

func TestQueue_RetriesExhausted(t *testing.T) {
	fc := clockwork.NewFakeClock()
	states := newStateLog()
	q := New("test",
		WithClock(fc),
		WithBackoff(time.Second, time.Second),
		WithRetryClassifier(retryTransient),
		WithStateObserver(states.observe),
	)
	defer q.Close()

	var attempts atomic.Int32
	ticket := q.Enqueue(NewTask(Key{Type: "broken"}, Normal, func(context.Context) error {
		attempts.Add(1)
		return errTransient
	}, WithRetryLimit(2)), nil)

	for range 2 {
		states.waitFor(t, StateRetryScheduled)
		fc.Advance(time.Second)
	}

	err := waitTicket(t, ticket)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestQueue_NonRetriableErrorFinishesImmediately(t *testing.T) {
	errFatal := errors.New("validation")
	q := New("test", WithRetryClassifier(retryTransient))
	defer q.Close()

	var attempts atomic.Int32
	ticket := q.Enqueue(NewTask(Key{Type: "bad"}, Normal, func(context.Context) error {
		attempts.Add(1)
		return errFatal
	}, WithRetryLimit(5)), nil)

	assert.ErrorIs(t, waitTicket(t, ticket), errFatal)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestQueue_ParkedTaskBlocksOnlyItsBandAndLower(t *testing.T) {
	fc := clockwork.NewFakeClock()
	states := newStateLog()
	q := New("test",
		WithClock(fc),
		WithBackoff(time.Minute, time.Minute),
		WithRetryClassifier(retryTransient),
		WithStateObserver(states.observe),
	)
	defer q.Close()

	var failed atomic.Bool
	flaky := q.Enqueue(NewTask(Key{Type: "flaky"}, Normal, func(context.Context) error {
		if failed.CompareAndSwap(false, true) {
			return errTransient
		}
		return nil
	}, WithRetryLimit(1)), nil)
	states.waitFor(t, StateRetryScheduled)

	var normalRan atomic.Bool
	normal := q.Enqueue(NewTask(Key{Type: "other"}, Normal, func(context.Context) error {
		normalRan.Store(true)
		return nil
	}), nil)
	high := q.Enqueue(NewTask(Key{Type: "depersonalize"}, VeryHigh, func(context.Context) error {
		return nil
	}), nil)

	require.NoError(t, waitTicket(t, high))
	assert.False(t, normalRan.Load(), "normal band must wait for its parked head")

	fc.Advance(time.Minute)
	require.NoError(t, waitTicket(t, flaky))
	require.NoError(t, waitTicket(t, normal))
	assert.True(t, normalRan.Load())
}

// ── Reachability ─────────────────────────────────────────────────────────────

func TestQueue_WaitsForReachabilityWithoutConsumingAttempts(t *testing.T) {
	reach := newFakeReach(false)
	states := newStateLog()
	q := New("test",
		WithReachability(reach),
		WithRetryClassifier(retryTransient),
		WithStateObserver(states.observe),
	)
	defer q.Close()

	var attempts atomic.Int32
	ticket := q.Enqueue(NewTask(Key{Type: "sync"}, Normal, func(context.Context) error {
		if !reach.IsReachable() {
			attempts.Add(1)
			return errTransient
		}
		return nil
	}, WaitForReachability(true)), nil)

	states.waitFor(t, StateWaitingReachability)
	assert.Equal(t, StateWaitingReachability, ticket.State())

	reach.set(true)
	require.NoError(t, waitTicket(t, ticket))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestQueue_TaskNotWaitingForReachabilityUsesRetries(t *testing.T) {
	reach := newFakeReach(false)
	q := New("test",
		WithReachability(reach),
		WithRetryClassifier(retryTransient),
	)
	defer q.Close()

	ticket := q.Enqueue(NewTask(Key{Type: "user-initiated"}, Normal, func(context.Context) error {
		return errTransient
	}), nil)

	err := waitTicket(t, ticket)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
}

// ── Cancellation ─────────────────────────────────────────────────────────────

func TestQueue_CancelAll(t *testing.T) {
	fc := clockwork.NewFakeClock()
	states := newStateLog()
	q := New("test",
		WithClock(fc),
		WithRetryClassifier(retryTransient),
		WithStateObserver(states.observe),
	)
	defer q.Close()

	parked := q.Enqueue(NewTask(Key{Type: "flaky"}, VeryHigh, func(context.Context) error {
		return errTransient
	}, WithRetryLimit(3)), nil)
	states.waitFor(t, StateRetryScheduled)

	var calls atomic.Int32
	queued := q.Enqueue(NewTask(Key{Type: "queued"}, Normal, func(context.Context) error {
		return nil
	}), func(err error) {
		calls.Add(1)
		assert.ErrorIs(t, err, ErrCancelled)
	})

	q.CancelAll()

	assert.ErrorIs(t, waitTicket(t, parked), ErrCancelled)
	assert.ErrorIs(t, waitTicket(t, queued), ErrCancelled)
	assert.Equal(t, 0, q.Len())

	fc.Advance(time.Hour)
	q.CancelAll()
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueue_CancelAllInterruptsRunningTask(t *testing.T) {
	q := New("test")
	defer q.Close()

	run, started, _ := gate()
	ticket := q.Enqueue(NewTask(Key{Type: "long"}, Normal, run), nil)
	<-started

	q.CancelAll()
	assert.ErrorIs(t, waitTicket(t, ticket), ErrCancelled)
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	q := New("test")
	q.Close()

	var got error
	ticket := q.Enqueue(NewTask(Key{Type: "late"}, Normal, func(context.Context) error {
		return nil
	}), func(err error) { got = err })

	assert.ErrorIs(t, waitTicket(t, ticket), ErrQueueClosed)
	assert.ErrorIs(t, got, ErrQueueClosed)
	assert.True(t, IsCancelled(got))

	q.Close()
}

func TestQueue_PanicFinishesTask(t *testing.T) {
	q := New("test")
	defer q.Close()

	ticket := q.Enqueue(NewTask(Key{Type: "panics"}, Normal, func(context.Context) error {
		panic("boom")
	}), nil)

	assert.ErrorIs(t, waitTicket(t, ticket), ErrTaskPanicked)

	next := q.Enqueue(NewTask(Key{Type: "after"}, Normal, func(context.Context) error { return nil }), nil)
	assert.NoError(t, waitTicket(t, next))
}

// ── Concurrency ──────────────────────────────────────────────────────────────

func TestQueue_ConcurrentEnqueueRunsEveryCallbackOnce(t *testing.T) {
	q := New("test")
	defer q.Close()

	const n = 50
	counts := make([]atomic.Int32, n)
	var wg sync.WaitGroup
	tickets := make([]*Ticket, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key{Type: "sync", Target: string(rune('a' + i%5))}
			tickets[i] = q.Enqueue(NewTask(key, Normal, func(context.Context) error { return nil }),
				func(error) { counts[i].Add(1) })
		}()
	}
	wg.Wait()

	for _, tk := range tickets {
		require.NoError(t, waitTicket(t, tk))
	}
	for i := range counts {
		assert.Equal(t, int32(1), counts[i].Load(), "callback %d", i)
	}
}

func TestQueue_TaskContextCarriesTraceID(t *testing.T) {
	q := New("test")
	defer q.Close()

	var traceID string
	ticket := q.Enqueue(NewTask(Key{Type: "trace"}, Normal, func(ctx context.Context) error {
		traceID, _ = utils.GetTraceIDFromContext(ctx)
		return nil
	}), nil)

	require.NoError(t, waitTicket(t, ticket))
	assert.Equal(t, ticket.ID(), traceID)
}

func TestQueue_Delay(t *testing.T) {
	q := &Queue{backoff: time.Second, maxBackoff: 5 * time.Second}

	assert.Equal(t, time.Second, q.delay(1))
	assert.Equal(t, 2*time.Second, q.delay(2))
	assert.Equal(t, 4*time.Second, q.delay(3))
	assert.Equal(t, 5*time.Second, q.delay(4))
	assert.Equal(t, 5*time.Second, q.delay(10))
}
