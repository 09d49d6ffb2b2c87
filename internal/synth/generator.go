// Package synth generates random point clouds for demos and for exercising
// the ingestion path without sensor hardware.
package synth

import (
	"context"
	"math"
	"time"

	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// Generator produces Gaussian cluster clouds at random positions within a
// bounded arena. A fixed seed gives a reproducible cloud sequence.
type Generator struct {
	src         rand.Source
	pointCount  int
	clusterSize float64
	arenaRadius float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithPointCount sets points per generated cloud.
func WithPointCount(n int) Option {
	return func(g *Generator) { g.pointCount = n }
}

// WithClusterSize sets the standard deviation of the cluster spread.
func WithClusterSize(sigma float64) Option {
	return func(g *Generator) { g.clusterSize = sigma }
}

// WithArenaRadius bounds where cluster centres are placed.
func WithArenaRadius(r float64) Option {
	return func(g *Generator) { g.arenaRadius = r }
}

// NewGenerator creates a generator seeded for reproducibility.
func NewGenerator(seed uint64, opts ...Option) *Generator {
	g := &Generator{
		src:         rand.NewPCG(seed, seed),
		pointCount:  200,
		clusterSize: 1.5,
		arenaRadius: 10.0,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next generates one cloud: a Gaussian blob around a uniformly placed centre
// with a random display color.
func (g *Generator) Next() cloud.Cloud {
	centre := distuv.Uniform{Min: -g.arenaRadius, Max: g.arenaRadius, Src: g.src}
	cx, cy, cz := centre.Rand(), centre.Rand(), centre.Rand()

	spread := distuv.Normal{Mu: 0, Sigma: g.clusterSize, Src: g.src}
	points := make([]cloud.Point, g.pointCount)
	for i := range points {
		points[i] = cloud.Point{
			X: cx + spread.Rand(),
			Y: cy + spread.Rand(),
			Z: cz + spread.Rand(),
		}
	}

	return cloud.NewCloud(g.randomColor(), points)
}

// randomColor picks a saturated hue so neighbouring clouds stay visually
// distinct.
func (g *Generator) randomColor() cloud.RGB {
	hue := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: g.src}.Rand()
	return cloud.RGB{
		R: 0.5 + 0.5*math.Sin(hue),
		G: 0.5 + 0.5*math.Sin(hue+2*math.Pi/3),
		B: 0.5 + 0.5*math.Sin(hue+4*math.Pi/3),
	}
}

// Run enqueues a fresh cloud every interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context, queue *cloud.IngestQueue, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			queue.Enqueue(g.Next())
		}
	}
}
