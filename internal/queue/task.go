package queue

import (
	"context"
	"fmt"
)

// Priority orders tasks inside a queue. Lower values run first.
type Priority int

const (
	// VeryHigh is reserved for depersonalization.
	VeryHigh Priority = iota
	// Normal is used by every other task.
	Normal

	prioritiesCount = int(Normal) + 1
)

func (p Priority) String() string {
	switch p {
	case VeryHigh:
		return "veryHigh"
	case Normal:
		return "normal"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func (p Priority) valid() bool {
	return p >= VeryHigh && p <= Normal
}

// Key identifies a task by request type and target. Two queued tasks with
// the same key are coalesced.
type Key struct {
	Type   string
	Target string
}

func (k Key) String() string {
	if k.Target == "" {
		return k.Type
	}
	return k.Type + ":" + k.Target
}

// Task is a unit of network-bound work executed by a [Queue].
type Task interface {
	Key() Key
	Priority() Priority
	// RetryLimit is the number of re-attempts allowed after retriable failures.
	RetryLimit() int
	// WaitsForReachability reports whether the task should be parked while
	// the backend is unreachable instead of consuming retry attempts.
	WaitsForReachability() bool
	Run(ctx context.Context) error
}

// RunFunc is the body of a task built with [NewTask].
type RunFunc func(ctx context.Context) error

// TaskOpt configures a task built with [NewTask].
type TaskOpt func(*funcTask)

// WithRetryLimit sets the number of re-attempts after retriable failures.
func WithRetryLimit(n int) TaskOpt {
	return func(t *funcTask) {
		t.retryLimit = n
	}
}

// WaitForReachability parks the task while the backend is unreachable.
func WaitForReachability(wait bool) TaskOpt {
	return func(t *funcTask) {
		t.waits = wait
	}
}

type funcTask struct {
	key        Key
	priority   Priority
	retryLimit int
	waits      bool
	run        RunFunc
}

// NewTask builds a [Task] from fn.
func NewTask(key Key, priority Priority, fn RunFunc, opts ...TaskOpt) Task {
	t := &funcTask{key: key, priority: priority, run: fn}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *funcTask) Key() Key                      { return t.key }
func (t *funcTask) Priority() Priority            { return t.priority }
func (t *funcTask) RetryLimit() int               { return t.retryLimit }
func (t *funcTask) WaitsForReachability() bool    { return t.waits }
func (t *funcTask) Run(ctx context.Context) error { return t.run(ctx) }
