package cloud

import (
	"math"
	"math/rand"
	"testing"
)

func bruteNeighbors(points []Point, query Point, radius float64) []Point {
	var out []Point
	r2 := radius * radius
	for _, p := range points {
		if SquaredDistance(p, query) <= r2 {
			out = append(out, p)
		}
	}
	return out
}

func TestKDTree_Empty(t *testing.T) {
	tree := BuildKDTree(nil)
	if got := tree.Neighbors(Point{}, 10); len(got) != 0 {
		t.Errorf("empty tree returned %d neighbours", len(got))
	}
}

func TestKDTree_SinglePoint(t *testing.T) {
	tree := BuildKDTree([]Point{{1, 1, 1}})
	if got := tree.Neighbors(Point{1, 1, 1}, 0); len(got) != 1 {
		t.Errorf("exact query at radius 0 returned %d points, want 1", len(got))
	}
	if got := tree.Neighbors(Point{5, 5, 5}, 1); len(got) != 0 {
		t.Errorf("far query returned %d points, want 0", len(got))
	}
}

func TestKDTree_BoundaryInclusive(t *testing.T) {
	tree := BuildKDTree([]Point{{3, 0, 0}})
	// Distance exactly equals the radius: must be included (<=, not <).
	if got := tree.Neighbors(Point{0, 0, 0}, 3); len(got) != 1 {
		t.Errorf("boundary point excluded at radius == distance")
	}
}

func TestKDTree_DuplicatePoints(t *testing.T) {
	points := []Point{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}}
	tree := BuildKDTree(points)
	if got := tree.Neighbors(Point{1, 2, 3}, 0.5); len(got) != 3 {
		t.Errorf("got %d copies of duplicated point, want 3", len(got))
	}
}

// TestKDTree_RandomCrossCheck compares tree queries against a brute-force
// scan on random inputs. Multiset equality is checked via sorted order.
func TestKDTree_RandomCrossCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{1, 2, 3, 10, 100, 1000} {
		points := make([]Point, n)
		for i := range points {
			points[i] = Point{
				X: rng.Float64()*20 - 10,
				Y: rng.Float64()*20 - 10,
				Z: rng.Float64()*20 - 10,
			}
		}
		tree := BuildKDTree(points)

		for trial := 0; trial < 50; trial++ {
			query := Point{
				X: rng.Float64()*24 - 12,
				Y: rng.Float64()*24 - 12,
				Z: rng.Float64()*24 - 12,
			}
			radius := rng.Float64() * 8

			got := tree.Neighbors(query, radius)
			want := bruteNeighbors(points, query, radius)

			SortPoints(got)
			SortPoints(want)
			if len(got) != len(want) {
				t.Fatalf("n=%d query=%v r=%v: tree found %d, brute force %d",
					n, query, radius, len(got), len(want))
			}
			for i := range got {
				if ComparePoints(got[i], want[i]) != 0 {
					t.Fatalf("n=%d query=%v r=%v: result mismatch at %d: %v != %v",
						n, query, radius, i, got[i], want[i])
				}
			}
		}
	}
}

func TestKDTree_BuildDoesNotMutateInput(t *testing.T) {
	points := []Point{{3, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	BuildKDTree(points)
	if points[0].X != 3 || points[1].X != 1 || points[2].X != 2 {
		t.Errorf("build reordered caller's slice: %v", points)
	}
}

func TestKDTree_LargeRadiusReturnsAll(t *testing.T) {
	points := make([]Point, 64)
	for i := range points {
		points[i] = Point{X: float64(i)}
	}
	tree := BuildKDTree(points)
	if got := tree.Neighbors(Point{32, 0, 0}, math.Inf(1)); len(got) != len(points) {
		t.Errorf("infinite radius returned %d of %d points", len(got), len(points))
	}
}
