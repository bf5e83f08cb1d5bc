package queue

import "errors"

var (
	// ErrCancelled finishes tasks removed by [Queue.CancelAll] or [Queue.Close].
	ErrCancelled = errors.New("task cancelled")

	// ErrRetriesExhausted wraps the last error of a task that failed with a
	// retriable error more often than its retry limit allows.
	ErrRetriesExhausted = errors.New("task retries exhausted")

	// ErrQueueClosed finishes tasks enqueued after [Queue.Close].
	ErrQueueClosed = errors.New("queue is closed")

	// ErrTaskPanicked is returned when a task panics while running.
	ErrTaskPanicked = errors.New("task panicked")
)
