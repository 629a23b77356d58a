// Package queue provides the notification job queues: a buffered channel for
// single-instance deployments and a Kafka topic when brokers are configured.
package queue

import (
	"context"
	"errors"

	"confreg/internal/notification"
)

// ErrFull is returned when the in-memory buffer cannot take another job.
var ErrFull = errors.New("notification queue full")

// Memory is a bounded in-process queue. Enqueue never blocks the request
// path; a full buffer is reported to the caller instead.
type Memory struct {
	jobs chan notification.Job
}

// NewMemory creates a queue holding up to buffer pending jobs.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 1
	}
	return &Memory{jobs: make(chan notification.Job, buffer)}
}

func (q *Memory) Enqueue(ctx context.Context, job notification.Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFull
	}
}

// Consume hands jobs to handle one at a time until ctx is cancelled. Handler
// errors are the handler's to report.
func (q *Memory) Consume(ctx context.Context, handle func(ctx context.Context, job notification.Job) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-q.jobs:
			_ = handle(ctx, job)
		}
	}
}

// Len reports the number of pending jobs.
func (q *Memory) Len() int {
	return len(q.jobs)
}
