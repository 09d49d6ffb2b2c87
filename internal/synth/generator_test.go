package synth

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/banshee-data/cloudview/internal/cloud"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(7, WithPointCount(50)).Next()
	b := NewGenerator(7, WithPointCount(50)).Next()

	if a.Color != b.Color {
		t.Errorf("same seed produced different colors: %v vs %v", a.Color, b.Color)
	}
	if len(a.Points) != len(b.Points) {
		t.Fatalf("point counts differ: %d vs %d", len(a.Points), len(b.Points))
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a.Points[i], b.Points[i])
		}
	}
}

func TestGenerator_PointCountAndBounds(t *testing.T) {
	g := NewGenerator(1, WithPointCount(300), WithClusterSize(0.5), WithArenaRadius(5))
	c := g.Next()
	if len(c.Points) != 300 {
		t.Fatalf("got %d points, want 300", len(c.Points))
	}

	// All points should sit near one centre: the spread of a sigma-0.5
	// Gaussian stays tiny compared to the arena.
	var cx, cy, cz float64
	for _, p := range c.Points {
		cx += p.X
		cy += p.Y
		cz += p.Z
	}
	n := float64(len(c.Points))
	cx, cy, cz = cx/n, cy/n, cz/n
	for _, p := range c.Points {
		d := math.Sqrt(cloud.SquaredDistance(p, cloud.Point{X: cx, Y: cy, Z: cz}))
		if d > 5 { // 10 sigma; effectively impossible for a real cluster point
			t.Fatalf("point %v is %v from the cluster centre", p, d)
		}
	}
}

func TestGenerator_ColorsInRange(t *testing.T) {
	g := NewGenerator(99, WithPointCount(1))
	for i := 0; i < 20; i++ {
		c := g.Next()
		for _, v := range []float64{c.Color.R, c.Color.G, c.Color.B} {
			if v < 0 || v > 1 {
				t.Fatalf("color component %v out of [0,1]", v)
			}
		}
	}
}

func TestGenerator_RunEnqueues(t *testing.T) {
	g := NewGenerator(3, WithPointCount(10))
	q := cloud.NewIngestQueue()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx, q, time.Millisecond)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for q.Len() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if q.Len() < 3 {
		t.Errorf("generator enqueued %d clouds, want at least 3", q.Len())
	}
}
