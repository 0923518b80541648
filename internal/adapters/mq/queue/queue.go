// Package queue defines the contract for enqueuing and consuming lot reports.
//
// Implementations may use channels or more advanced structures. The service
// runs on an in-memory bounded queue.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Report is the payload type flowing through the queue.
// Using the model.LotReport type for type safety.
type Report = model.LotReport

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report to the queue.
	// Returns false if the queue is full and the report was not enqueued.
	Enqueue(ctx context.Context, r Report) bool

	// Dequeue returns a channel that will receive reports as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Report

	// Len returns the current number of queued reports.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new reports can be enqueued and the dequeue channel
	// will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	reports    chan Report
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	// Reports never queue deeper than the configured capacity.
	if q.bufferSize > q.capacity {
		q.bufferSize = q.capacity
	}
	q.reports = make(chan Report, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a report to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Report) bool { //nolint:gocritic // hugeParam: Report must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordQueueProcessingLatency(float64(latency))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.reports) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.reports <- r:
		metrics.RecordQueueEnqueue()
		currentSize := len(q.reports)
		metrics.UpdateQueueSize(currentSize)
		utilization := float64(currentSize) / float64(q.capacity)
		metrics.UpdateQueueUtilization(utilization)
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive reports as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Report {
	// Wrap the channel to track dequeue metrics.
	dequeueChan := make(chan Report)
	go func() {
		defer close(dequeueChan)
		for report := range q.reports {
			select {
			case dequeueChan <- report:
				metrics.RecordQueueDequeue()
				currentSize := len(q.reports)
				metrics.UpdateQueueSize(currentSize)
				utilization := float64(currentSize) / float64(q.capacity)
				metrics.UpdateQueueUtilization(utilization)
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued reports.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.reports)
	metrics.UpdateQueueSize(size)
	utilization := float64(size) / float64(q.capacity)
	metrics.UpdateQueueUtilization(utilization)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	// Closing the channel signals consumers to stop.
	close(q.reports)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
