package cloud

import "sort"

// KDTree is a balanced binary space partition over point coordinates, built
// once from a cloud's point list and read-only afterwards. Rebuild on change,
// never update in place: clouds are immutable, so a tree is only ever built
// from a fixed snapshot.
//
// The split axis cycles X, Y, Z by depth and each level splits at the median
// of the current axis. Ties at the median keep input-sequence order (stable
// partition), which makes tree shape deterministic for a given input.
type KDTree struct {
	root *kdNode
	size int
}

type kdNode struct {
	point       Point
	axis        int
	left, right *kdNode
}

func axisCoord(p Point, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}

// BuildKDTree constructs a tree from a point list in one pass. The input
// slice is not modified. A zero-point tree is valid and answers every query
// with an empty result.
func BuildKDTree(points []Point) *KDTree {
	working := make([]Point, len(points))
	copy(working, points)
	return &KDTree{root: buildKD(working, 0), size: len(points)}
}

func buildKD(points []Point, depth int) *kdNode {
	if len(points) == 0 {
		return nil
	}
	axis := depth % 3
	sort.SliceStable(points, func(i, j int) bool {
		return axisCoord(points[i], axis) < axisCoord(points[j], axis)
	})
	median := len(points) / 2
	return &kdNode{
		point: points[median],
		axis:  axis,
		left:  buildKD(points[:median], depth+1),
		right: buildKD(points[median+1:], depth+1),
	}
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int { return t.size }

// Neighbors returns every indexed point whose Euclidean distance to query is
// at most radius. Comparisons are done on squared distances so no sqrt is
// taken in the hot path. The result order is unspecified; callers that need
// determinism re-sort.
func (t *KDTree) Neighbors(query Point, radius float64) []Point {
	if t == nil || t.root == nil || radius < 0 {
		return nil
	}
	var out []Point
	t.root.collect(query, radius*radius, &out)
	return out
}

func (n *kdNode) collect(query Point, radius2 float64, out *[]Point) {
	if n == nil {
		return
	}
	if SquaredDistance(n.point, query) <= radius2 {
		*out = append(*out, n.point)
	}
	delta := axisCoord(query, n.axis) - axisCoord(n.point, n.axis)
	near, far := n.left, n.right
	if delta > 0 {
		near, far = n.right, n.left
	}
	near.collect(query, radius2, out)
	// The far subtree can only contain hits if the splitting plane is within
	// the search radius of the query.
	if delta*delta <= radius2 {
		far.collect(query, radius2, out)
	}
}
