// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default capacity of the bounded deduper.
const defaultMaxSize = 50000

// Deduper records seen report IDs to ensure at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// Used when a report was marked as seen but could not be handed to the
	// queue (e.g., backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// node is a single entry in the recency list.
type node struct {
	id   string
	next *node
}

// reset clears the node state for reuse.
func (n *node) reset() {
	n.id = ""
	n.next = nil
}

// inMemoryDeduper implements Deduper in memory.
// Bounded mode (maxSize > 0) keeps a recency list and evicts the oldest
// entry once full, reusing nodes through a sync.Pool.
// Unbounded mode (maxSize <= 0) is a plain map with no eviction.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]*node // id -> node in bounded mode, nil values in unbounded mode
	head     *node            // most recently recorded id
	maxSize  int              // 0 or negative means unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)

	if d.maxSize > 0 {
		d.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		// Make room before recording the new id.
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}

		n := d.nodePool.Get().(*node)
		n.id = id
		n.next = d.head

		d.head = n
		d.seen[id] = n
	} else {
		d.seen[id] = nil
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.maxSize > 0 {
		n, exists := d.seen[id]
		if !exists {
			return
		}
		delete(d.seen, id)

		if d.head == n {
			d.head = n.next
		} else {
			current := d.head
			for current != nil && current.next != n {
				current = current.next
			}
			if current != nil {
				current.next = n.next
			}
		}

		n.reset()
		d.nodePool.Put(n)
		d.size.Add(-1)
		return
	}

	if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// evictOldest drops the least recently recorded id (tail of the list).
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.seen) == 0 || d.head == nil {
		return
	}

	var prev *node
	current := d.head

	if current.next == nil {
		delete(d.seen, current.id)
		current.reset()
		d.nodePool.Put(current)
		d.head = nil
		d.size.Add(-1)
		return
	}

	for current.next != nil {
		prev = current
		current = current.next
	}

	if prev != nil {
		prev.next = nil
		delete(d.seen, current.id)
		current.reset()
		d.nodePool.Put(current)
		d.size.Add(-1)
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
