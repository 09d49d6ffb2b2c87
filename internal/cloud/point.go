package cloud

import "sort"

// Point is a position in viewer space. Coordinates are dimensionless viewer
// units (depth snapshots are scaled into this space by the depth adapter).
type Point struct {
	X, Y, Z float64
}

// RGB is a display color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// ComparePoints is a strict lexicographic comparator over (X, Y, Z).
// It carries no geometric meaning; it exists so points can be used as
// sortable keys for deterministic ordering in tests and tie-breaking.
// Returns -1, 0 or +1.
func ComparePoints(a, b Point) int {
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	case a.Z < b.Z:
		return -1
	case a.Z > b.Z:
		return 1
	}
	return 0
}

// SortPoints sorts a point slice in place using ComparePoints.
func SortPoints(points []Point) {
	sort.Slice(points, func(i, j int) bool {
		return ComparePoints(points[i], points[j]) < 0
	})
}

// SquaredDistance returns the squared Euclidean distance between two points.
// Kept squared to avoid a sqrt in neighbour-query hot paths.
func SquaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// Cloud is a colored, immutable set of 3D points treated as one renderable
// unit. Point order is preserved from construction: it is not geometrically
// meaningful, but correspondence output follows the source cloud's order.
type Cloud struct {
	Color  RGB     `json:"color"`
	Points []Point `json:"points"`
}

// NewCloud constructs a Cloud, copying the point slice so later mutation of
// the caller's slice cannot reach into the cloud.
func NewCloud(color RGB, points []Point) Cloud {
	copied := make([]Point, len(points))
	copy(copied, points)
	return Cloud{Color: color, Points: copied}
}
