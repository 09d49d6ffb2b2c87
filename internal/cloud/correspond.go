package cloud

import "fmt"

// Match pairs a source-cloud point with its selected target-cloud point.
// Target is nil when no point satisfied the search predicate.
type Match struct {
	Source Point  `json:"source"`
	Target *Point `json:"target,omitempty"`
}

// Result is a full correspondence run: one entry per source-cloud point, in
// source-cloud point order. A result is regenerated wholesale on each request
// and replaces the previous one; there is no incremental update.
type Result struct {
	SourceHandle Handle  `json:"source_handle"`
	TargetHandle Handle  `json:"target_handle"`
	Radius       float64 `json:"radius"`
	Matches      []Match `json:"matches"`
}

// Correspond pairs each point of source with a point of target. For every
// source point it gathers the target points within radius and selects the
// second-closest by squared distance, ties going to the first-encountered
// neighbour. Fewer than two in-radius neighbours yields a nil target.
//
// Selecting the second-closest rather than the closest match is deliberate
// and load-bearing: with overlapping clouds the nearest neighbour is often a
// degenerate self/duplicate match. See the "second-closest" note in DESIGN.md
// before changing this.
func Correspond(source, target Cloud, radius float64) Result {
	index := BuildKDTree(target.Points)
	matches := make([]Match, len(source.Points))
	for i, p := range source.Points {
		neighbors := index.Neighbors(p, radius)
		matches[i] = Match{Source: p, Target: secondClosest(p, neighbors)}
	}
	return Result{Radius: radius, Matches: matches}
}

// Correspond runs correspondence between two promoted clouds. It fails with
// ErrInsufficientClouds when fewer than two clouds are promoted, and wraps
// the same sentinel when either handle is missing; callers keep their
// previous result in both cases.
func (s *Store) Correspond(sourceH, targetH Handle, radius float64) (Result, error) {
	if s.Len() < 2 {
		return Result{}, ErrInsufficientClouds
	}
	source, ok := s.Get(sourceH)
	if !ok {
		return Result{}, fmt.Errorf("source handle %d not in store: %w", sourceH, ErrInsufficientClouds)
	}
	target, ok := s.Get(targetH)
	if !ok {
		return Result{}, fmt.Errorf("target handle %d not in store: %w", targetH, ErrInsufficientClouds)
	}
	res := Correspond(source, target, radius)
	res.SourceHandle = sourceH
	res.TargetHandle = targetH
	return res, nil
}

// secondClosest picks the second-nearest of candidates to p by squared
// distance, first-encountered order breaking ties. Returns nil when fewer
// than two candidates exist.
func secondClosest(p Point, candidates []Point) *Point {
	if len(candidates) < 2 {
		return nil
	}
	// Track the two best without sorting the whole neighbour set. Strict
	// comparisons keep the first-encountered candidate on equal distances.
	bestIdx, secondIdx := -1, -1
	var bestD2, secondD2 float64
	for i, c := range candidates {
		d2 := SquaredDistance(p, c)
		switch {
		case bestIdx < 0 || d2 < bestD2:
			secondIdx, secondD2 = bestIdx, bestD2
			bestIdx, bestD2 = i, d2
		case secondIdx < 0 || d2 < secondD2:
			secondIdx, secondD2 = i, d2
		}
	}
	chosen := candidates[secondIdx]
	return &chosen
}
