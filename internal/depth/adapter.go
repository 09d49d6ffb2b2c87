// Package depth adapts depth-sensor snapshots into point clouds. Snapshot
// acquisition (including any blocking I/O and retry policy) lives entirely on
// the producer side; the consumer cycle only ever sees finished clouds on the
// ingest queue.
package depth

import (
	"fmt"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// Viewer-space calibration for the depth camera. The divisors and offset are
// magic values carried over from the sensor bring-up and have no documented
// derivation; they must not change without recalibrating (see DESIGN.md).
const (
	lateralDivisor = 10.0
	depthDivisor   = 20.0
	depthOffset    = -30.0
)

// DefaultCloudColor marks depth-sourced clouds in the viewer.
var DefaultCloudColor = cloud.RGB{R: 0.9, G: 0.9, B: 0.2}

// Snapshot is one depth frame: a flat row-major sample grid. Sample i sits at
// row i/Width, column i%Width. A zero sample means no return at that pixel.
type Snapshot struct {
	Samples []float64
	Width   int
}

// Source acquires depth snapshots. Acquire blocks until a snapshot is ready
// or acquisition fails.
type Source interface {
	Acquire() (Snapshot, error)
	Close() error
}

// CloudFromSnapshot converts a depth frame to a viewer-space cloud:
// zero-depth samples are dropped, the flat index is unpacked to (row, col),
// and coordinates are scaled by the fixed calibration above.
func CloudFromSnapshot(snap Snapshot) (cloud.Cloud, error) {
	if snap.Width <= 0 {
		return cloud.Cloud{}, fmt.Errorf("snapshot width must be positive, got %d", snap.Width)
	}
	if len(snap.Samples)%snap.Width != 0 {
		return cloud.Cloud{}, fmt.Errorf("sample count %d not a multiple of width %d", len(snap.Samples), snap.Width)
	}

	points := make([]cloud.Point, 0, len(snap.Samples))
	for i, d := range snap.Samples {
		if d == 0 {
			continue
		}
		row := i / snap.Width
		col := i % snap.Width
		points = append(points, cloud.Point{
			X: float64(col) / lateralDivisor,
			Y: float64(row) / lateralDivisor,
			Z: d/depthDivisor + depthOffset,
		})
	}
	return cloud.NewCloud(DefaultCloudColor, points), nil
}
