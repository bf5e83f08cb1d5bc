// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package queue implements a priority task queue with retries.
//
// A [Queue] runs one task at a time on a single worker goroutine. Tasks are
// kept in FIFO bands, one per [Priority], and the worker always drains the
// highest band first. A task that failed with a retriable error stays at the
// head of its band until its backoff timer fires or the backend becomes
// reachable again; while it is parked, its band and every lower band wait,
// but higher bands keep running.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/utils"
)

const (
	defaultBackoff    = time.Second
	defaultMaxBackoff = time.Minute
)

// Reachability reports whether the backend can be reached.
type Reachability interface {
	IsReachable() bool
	// Changes returns a channel closed on the next transition to reachable.
	Changes() <-chan struct{}
}

// RetryClassifier reports whether err should be retried.
type RetryClassifier func(err error) bool

// StateFunc observes task state transitions. It may run with the queue lock
// held and must not call back into the queue.
type StateFunc func(key Key, id string, state State)

// Opt configures a [Queue].
type Opt func(*Queue)

// WithClock sets the clock used for backoff timers.
func WithClock(clock clockwork.Clock) Opt {
	return func(q *Queue) {
		q.clock = clock
	}
}

// WithReachability enables parking of tasks that wait for reachability.
func WithReachability(r Reachability) Opt {
	return func(q *Queue) {
		q.reach = r
	}
}

// WithRetryClassifier sets the function that decides which errors are
// retried. Without it no error is retried.
func WithRetryClassifier(fn RetryClassifier) Opt {
	return func(q *Queue) {
		q.isRetriable = fn
	}
}

// WithBackoff sets the delay before the first retry and its upper bound.
// The delay doubles with every attempt.
func WithBackoff(initial, max time.Duration) Opt {
	return func(q *Queue) {
		q.backoff = initial
		q.maxBackoff = max
	}
}

// WithLogger sets the queue logger.
func WithLogger(log *logger.Logger) Opt {
	return func(q *Queue) {
		q.logger = log
	}
}

// WithStateObserver registers fn for every state transition.
func WithStateObserver(fn StateFunc) Opt {
	return func(q *Queue) {
		q.observers = append(q.observers, fn)
	}
}

type entry struct {
	task   Task
	ticket *Ticket
	prio   Priority

	// retry policy, tightened by coalesced callers
	retryLimit int
	waits      bool

	retries   int
	ready     bool
	cancelled bool
	timer     clockwork.Timer
	stop      chan struct{}
}

// Queue is a priority task queue. The zero value is not usable, see [New].
type Queue struct {
	name        string
	clock       clockwork.Clock
	reach       Reachability
	isRetriable RetryClassifier
	backoff     time.Duration
	maxBackoff  time.Duration
	logger      *logger.Logger
	observers   []StateFunc
	ids         *utils.UUIDGenerator

	mu        sync.Mutex
	bands     [prioritiesCount][]*entry
	parked    [prioritiesCount]*entry
	pending   map[Key]*entry
	running   *entry
	runCancel context.CancelFunc
	closed    bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a queue and starts its worker.
func New(name string, opts ...Opt) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:        name,
		clock:       clockwork.NewRealClock(),
		isRetriable: func(error) bool { return false },
		backoff:     defaultBackoff,
		maxBackoff:  defaultMaxBackoff,
		logger:      logger.Nop(),
		ids:         utils.NewUUIDGenerator(),
		pending:     make(map[Key]*entry),
		wake:        make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.run()
	return q
}

// Enqueue schedules task and returns immediately. onFinish, when not nil, is
// called exactly once with the outcome. A task whose key matches a queued
// task that has not started yet is merged into it: both callers share the
// returned ticket, and the merged task keeps the stricter retry policy of
// the two.
func (q *Queue) Enqueue(task Task, onFinish func(error)) *Ticket {
	key := task.Key()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		t := newTicket(q.ids.Generate(), key)
		t.addCallback(onFinish)
		t.finish(ErrQueueClosed)
		return t
	}

	if e, ok := q.pending[key]; ok {
		e.ticket.addCallback(onFinish)
		e.retryLimit = min(e.retryLimit, task.RetryLimit())
		e.waits = e.waits && task.WaitsForReachability()
		q.mu.Unlock()
		q.logger.Debug().Str("func", "Queue.Enqueue").Str("queue", q.name).
			Str("task", key.String()).Str("trace_id", e.ticket.ID()).Msg("task coalesced")
		return e.ticket
	}

	prio := task.Priority()
	if !prio.valid() {
		prio = Normal
	}
	e := &entry{
		task:       task,
		ticket:     newTicket(q.ids.Generate(), key),
		prio:       prio,
		retryLimit: task.RetryLimit(),
		waits:      task.WaitsForReachability(),
	}
	e.ticket.addCallback(onFinish)
	q.bands[prio] = append(q.bands[prio], e)
	q.pending[key] = e
	q.observe(e, StateQueued)
	q.mu.Unlock()

	q.signal()
	return e.ticket
}

// Len returns the number of tasks that did not finish yet.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for p := range q.bands {
		n += len(q.bands[p])
		if q.parked[p] != nil {
			n++
		}
	}
	if q.running != nil {
		n++
	}
	return n
}

// CancelAll finishes every queued, parked and running task with
// [ErrCancelled]. The context of the running task is cancelled.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	var dropped []*entry
	for p := range q.bands {
		dropped = append(dropped, q.bands[p]...)
		q.bands[p] = nil
		if pe := q.parked[p]; pe != nil {
			dropped = append(dropped, pe)
			q.parked[p] = nil
		}
	}
	q.pending = make(map[Key]*entry)

	var cancelRunning context.CancelFunc
	if q.running != nil {
		q.running.cancelled = true
		cancelRunning = q.runCancel
	}
	q.mu.Unlock()

	if cancelRunning != nil {
		cancelRunning()
	}
	for _, e := range dropped {
		q.unpark(e)
		q.finish(e, ErrCancelled)
	}
	if len(dropped) > 0 {
		q.logger.Info().Str("func", "Queue.CancelAll").Str("queue", q.name).
			Int("cancelled", len(dropped)).Msg("tasks cancelled")
	}
}

// Close cancels every task and stops the worker. Tasks enqueued afterwards
// finish with [ErrQueueClosed].
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.CancelAll()
	q.cancel()
	<-q.done
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		e := q.next()
		if e == nil {
			select {
			case <-q.wake:
				continue
			case <-q.ctx.Done():
				return
			}
		}
		q.execute(e)
	}
}

// next picks the task to run, or nil when every runnable band is empty or
// blocked by a parked task.
func (q *Queue) next() *entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	for p := range q.bands {
		if pe := q.parked[p]; pe != nil {
			if !pe.ready {
				return nil
			}
			q.parked[p] = nil
			pe.ready = false
			pe.ticket.setState(StateExecuting)
			q.running = pe
			return pe
		}
		if len(q.bands[p]) > 0 {
			e := q.bands[p][0]
			q.bands[p][0] = nil
			q.bands[p] = q.bands[p][1:]
			delete(q.pending, e.task.Key())
			e.ticket.setState(StateExecuting)
			q.running = e
			return e
		}
	}
	return nil
}

func (q *Queue) execute(e *entry) {
	key := e.task.Key()
	log := q.logger.WithTraceID(e.ticket.ID())

	ctx, cancel := context.WithCancel(q.ctx)
	ctx = utils.WithTraceID(log.ToContext(ctx), e.ticket.ID())

	q.mu.Lock()
	q.runCancel = cancel
	q.mu.Unlock()

	q.observe(e, StateExecuting)
	log.Debug().Str("func", "Queue.execute").Str("queue", q.name).Str("task", key.String()).
		Int("attempt", e.retries+1).Msg("running task")

	err := runTask(ctx, e.task)
	cancel()

	// the reachability channel must be taken before the state is checked,
	// otherwise a transition between the two calls would be missed
	var changes <-chan struct{}
	waits := err != nil && e.waits && q.reach != nil && q.isRetriable(err)
	if waits {
		changes = q.reach.Changes()
		waits = !q.reach.IsReachable()
	}

	q.mu.Lock()
	q.running = nil
	q.runCancel = nil
	cancelled := e.cancelled

	switch {
	case cancelled:
		q.mu.Unlock()
		q.finish(e, ErrCancelled)

	case err == nil:
		q.mu.Unlock()
		log.Debug().Str("func", "Queue.execute").Str("queue", q.name).Str("task", key.String()).Msg("task succeeded")
		q.finish(e, nil)

	case !q.isRetriable(err):
		q.mu.Unlock()
		log.Warn().Err(err).Str("func", "Queue.execute").Str("queue", q.name).Str("task", key.String()).Msg("task failed")
		q.finish(e, err)

	case waits:
		e.stop = make(chan struct{})
		q.parked[e.prio] = e
		e.ticket.setState(StateWaitingReachability)
		q.observe(e, StateWaitingReachability)
		q.mu.Unlock()
		log.Info().Err(err).Str("func", "Queue.execute").Str("queue", q.name).Str("task", key.String()).
			Msg("backend unreachable, task waits for reachability")
		go q.awaitReachability(e, changes, e.stop)

	case e.retries < e.retryLimit:
		e.retries++
		delay := q.delay(e.retries)
		q.parked[e.prio] = e
		e.ticket.setState(StateRetryScheduled)
		q.observe(e, StateRetryScheduled)
		e.timer = q.clock.AfterFunc(delay, func() { q.markReady(e) })
		q.mu.Unlock()
		log.Info().Err(err).Str("func", "Queue.execute").Str("queue", q.name).Str("task", key.String()).
			Int("retry", e.retries).Dur("delay", delay).Msg("task retry scheduled")

	default:
		q.mu.Unlock()
		log.Warn().Err(err).Str("func", "Queue.execute").Str("queue", q.name).Str("task", key.String()).
			Int("retries", e.retries).Msg("task retries exhausted")
		q.finish(e, fmt.Errorf("%w: %w", ErrRetriesExhausted, err))
	}
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task.Run(ctx)
}

func (q *Queue) delay(retry int) time.Duration {
	d := q.backoff
	for i := 1; i < retry && d < q.maxBackoff; i++ {
		d *= 2
	}
	if q.maxBackoff > 0 && d > q.maxBackoff {
		d = q.maxBackoff
	}
	return d
}

func (q *Queue) awaitReachability(e *entry, changes <-chan struct{}, stop <-chan struct{}) {
	select {
	case <-changes:
		q.markReady(e)
	case <-stop:
	case <-q.ctx.Done():
	}
}

func (q *Queue) markReady(e *entry) {
	q.mu.Lock()
	if q.parked[e.prio] != e {
		q.mu.Unlock()
		return
	}
	e.ready = true
	q.mu.Unlock()

	q.signal()
}

// unpark releases the timer or reachability waiter of a parked entry.
func (q *Queue) unpark(e *entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func (q *Queue) finish(e *entry, err error) {
	if e.ticket.finish(err) {
		q.observe(e, StateFinished)
	}
}

func (q *Queue) observe(e *entry, s State) {
	for _, fn := range q.observers {
		fn(e.ticket.Key(), e.ticket.ID(), s)
	}
}

// IsCancelled reports whether err means the task was dropped from a queue.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, ErrQueueClosed)
}
