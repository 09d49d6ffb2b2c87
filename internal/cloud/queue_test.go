package cloud

import (
	"sync"
	"testing"
)

func TestIngestQueue_DrainEmpty(t *testing.T) {
	q := NewIngestQueue()
	if batch := q.DrainAll(); len(batch) != 0 {
		t.Errorf("expected empty batch from fresh queue, got %d clouds", len(batch))
	}
}

func TestIngestQueue_DrainResets(t *testing.T) {
	q := NewIngestQueue()
	q.Enqueue(NewCloud(RGB{R: 1}, []Point{{1, 2, 3}}))
	q.Enqueue(NewCloud(RGB{B: 1}, []Point{{4, 5, 6}}))

	batch := q.DrainAll()
	if len(batch) != 2 {
		t.Fatalf("expected 2 clouds in batch, got %d", len(batch))
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after drain: %d pending", q.Len())
	}
	if batch2 := q.DrainAll(); len(batch2) != 0 {
		t.Errorf("second drain returned %d clouds, want 0", len(batch2))
	}
}

// TestIngestQueue_ConcurrentAtomicity checks the drain contract: across many
// producers racing many drains, the union of all drained batches plus the
// final residue is exactly the set of enqueued clouds, no loss, no
// duplication. Clouds are tagged through their X coordinate.
func TestIngestQueue_ConcurrentAtomicity(t *testing.T) {
	const producers = 8
	const perProducer = 500

	q := NewIngestQueue()
	var wg sync.WaitGroup

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				tag := float64(p*perProducer + i)
				q.Enqueue(NewCloud(RGB{}, []Point{{X: tag}}))
			}
		}(p)
	}

	// Drain concurrently with the producers.
	var drained []Cloud
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			drained = append(drained, q.DrainAll()...)
		}
	}()

	wg.Wait()
	<-done
	drained = append(drained, q.DrainAll()...)

	if len(drained) != producers*perProducer {
		t.Fatalf("drained %d clouds, want %d", len(drained), producers*perProducer)
	}
	seen := make(map[float64]bool, len(drained))
	for _, c := range drained {
		tag := c.Points[0].X
		if seen[tag] {
			t.Fatalf("cloud %v drained twice", tag)
		}
		seen[tag] = true
	}
}
