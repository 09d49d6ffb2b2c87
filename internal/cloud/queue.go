package cloud

import "sync"

// IngestQueue decouples cloud producers from the single consumer cycle.
// Any number of goroutines may Enqueue concurrently; the consumer drains the
// backlog exactly once per cycle with DrainAll. An Enqueue racing a DrainAll
// lands either fully in the drained batch or fully in the queue afterwards,
// never both and never neither.
//
// No ordering is guaranteed among queued clouds; the slice happens to keep
// FIFO order but callers must not rely on it.
type IngestQueue struct {
	mu      sync.Mutex
	pending []Cloud
}

// NewIngestQueue returns an empty queue.
func NewIngestQueue() *IngestQueue {
	return &IngestQueue{}
}

// Enqueue appends a cloud to the backlog. Safe for concurrent use.
func (q *IngestQueue) Enqueue(c Cloud) {
	q.mu.Lock()
	q.pending = append(q.pending, c)
	q.mu.Unlock()
}

// DrainAll removes and returns every currently queued cloud in one atomic
// step, leaving the queue empty. Called once per consumer cycle.
func (q *IngestQueue) DrainAll() []Cloud {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	return batch
}

// Len reports the current backlog size. Diagnostic only; the value may be
// stale by the time the caller looks at it.
func (q *IngestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
