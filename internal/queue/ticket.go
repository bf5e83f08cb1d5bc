package queue

import (
	"context"
	"sync"
)

// State is the lifecycle state of an enqueued task.
type State int

const (
	StateQueued State = iota
	StateExecuting
	StateRetryScheduled
	StateWaitingReachability
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateExecuting:
		return "executing"
	case StateRetryScheduled:
		return "retryScheduled"
	case StateWaitingReachability:
		return "waitingReachability"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Ticket tracks an enqueued task. Coalesced callers share one ticket.
type Ticket struct {
	id  string
	key Key

	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	state     State
	err       error
	callbacks []func(error)
}

func newTicket(id string, key Key) *Ticket {
	return &Ticket{id: id, key: key, done: make(chan struct{})}
}

// ID is unique per ticket and doubles as the trace id of the task.
func (t *Ticket) ID() string { return t.id }

// Key returns the key of the tracked task.
func (t *Ticket) Key() Key { return t.key }

// Done is closed after the task finished and every callback returned.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Err returns the outcome. It is nil until the task finished.
func (t *Ticket) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// State returns the current lifecycle state.
func (t *Ticket) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Wait blocks until the task finished or ctx is done.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticket) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateFinished {
		t.state = s
	}
}

// addCallback registers fn. A nil fn is ignored. When the ticket is already
// finished fn runs immediately.
func (t *Ticket) addCallback(fn func(error)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	if t.state != StateFinished {
		t.callbacks = append(t.callbacks, fn)
		t.mu.Unlock()
		return
	}
	err := t.err
	t.mu.Unlock()

	fn(err)
}

// finish settles the ticket exactly once.
func (t *Ticket) finish(err error) bool {
	finished := false
	t.once.Do(func() {
		t.mu.Lock()
		t.state = StateFinished
		t.err = err
		callbacks := t.callbacks
		t.callbacks = nil
		t.mu.Unlock()

		for _, fn := range callbacks {
			fn(err)
		}
		close(t.done)
		finished = true
	})
	return finished
}

// FinishedTicket returns a ticket that already finished with err. onFinish,
// when not nil, is called before it returns. Used by callers that fail
// before a task could be enqueued.
func FinishedTicket(key Key, err error, onFinish func(error)) *Ticket {
	t := newTicket("", key)
	t.addCallback(onFinish)
	t.finish(err)
	return t
}
