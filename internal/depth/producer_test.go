package depth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestProducer_EnqueuesConvertedClouds(t *testing.T) {
	src := NewMockSource().
		AddSnapshot(Snapshot{Width: 2, Samples: []float64{100, 0, 0, 40}}).
		AddSnapshot(Snapshot{Width: 1, Samples: []float64{0}}) // all-zero, skipped

	q := cloud.NewIngestQueue()
	p := NewProducer(src, q)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for q.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	batch := q.DrainAll()
	if len(batch) != 1 {
		t.Fatalf("queue got %d clouds, want 1 (all-zero frame skipped)", len(batch))
	}
	if len(batch[0].Points) != 2 {
		t.Errorf("cloud has %d points, want 2", len(batch[0].Points))
	}
	if !src.Closed() {
		t.Error("producer did not close its source on exit")
	}
}

func TestProducer_AcquisitionFailureEnqueuesNothing(t *testing.T) {
	src := NewMockSource().AddError(errors.New("sensor offline"))
	q := cloud.NewIngestQueue()
	p := NewProducer(src, q)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if q.Len() != 0 {
		t.Errorf("failed acquisition enqueued %d clouds", q.Len())
	}
}
