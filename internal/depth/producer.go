package depth

import (
	"context"
	"time"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
)

// retryDelay is the fixed backoff after a failed acquisition. Retrying is a
// producer-side decision; the core never replays anything.
const retryDelay = 500 * time.Millisecond

// Producer pumps a Source into the ingest queue: acquire, convert, enqueue.
// Acquisition failures are reported and nothing is enqueued for that frame.
type Producer struct {
	source Source
	queue  *cloud.IngestQueue
}

// NewProducer wires a depth source to a queue.
func NewProducer(source Source, queue *cloud.IngestQueue) *Producer {
	return &Producer{source: source, queue: queue}
}

// Run pumps frames until ctx is cancelled. Blocking acquisition happens here,
// in the producer goroutine, never inside the consumer cycle.
func (p *Producer) Run(ctx context.Context) error {
	defer p.source.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap, err := p.source.Acquire()
		if err != nil {
			monitoring.Logf("depth: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		c, err := CloudFromSnapshot(snap)
		if err != nil {
			monitoring.Logf("depth: discarding malformed snapshot: %v", err)
			continue
		}
		if len(c.Points) == 0 {
			// Every sample was a zero return; nothing to show.
			continue
		}
		p.queue.Enqueue(c)
	}
}
