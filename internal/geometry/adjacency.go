package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Segment is a line between two points.
type Segment [2]r2.Point

// Length of the segment.
func (s Segment) Length() float64 {
	return Distance(s[0], s[1])
}

// AxisAligned returns if the segment is horizontal or vertical.
func (s Segment) AxisAligned() bool {
	return math.Abs(s[0].X-s[1].X) <= Epsilon || math.Abs(s[0].Y-s[1].Y) <= Epsilon
}

// collinearOverlap returns the length over which b lies along a (0 if b is not
// collinear with a, or they only meet at a point).
func collinearOverlap(a, b [2]r2.Point) float64 {
	s, ok := sharedSegment(a, b)
	if !ok {
		return 0
	}
	return s.Length()
}

// sharedSegment returns the stretch of a that b runs along, if any.
func sharedSegment(a, b [2]r2.Point) (Segment, bool) {
	dir := a[1].Sub(a[0])
	length := dir.Norm()
	if length <= Epsilon {
		return Segment{}, false
	}
	unit := dir.Mul(1 / length)

	// both ends of b must be on the infinite line through a
	if math.Abs(unit.Cross(b[0].Sub(a[0]))) > Epsilon || math.Abs(unit.Cross(b[1].Sub(a[0]))) > Epsilon {
		return Segment{}, false
	}

	t0 := b[0].Sub(a[0]).Dot(unit)
	t1 := b[1].Sub(a[0]).Dot(unit)
	lo := math.Max(0, math.Min(t0, t1))
	hi := math.Min(length, math.Max(t0, t1))
	if hi-lo <= Epsilon {
		return Segment{}, false
	}
	return Segment{a[0].Add(unit.Mul(lo)), a[0].Add(unit.Mul(hi))}, true
}

// SharedBoundary returns every stretch of boundary (of non-zero length) that
// the polygons have in common, measured along a's edges.
func SharedBoundary(a, b Polygon) []Segment {
	if !a.Bounds().ExpandedByMargin(Epsilon).Intersects(b.Bounds()) {
		return nil
	}

	shared := []Segment{}
	for _, ra := range a.Rings() {
		for _, sa := range ra.Segments() {
			for _, rb := range b.Rings() {
				for _, sb := range rb.Segments() {
					s, ok := sharedSegment(sa, sb)
					if ok {
						shared = append(shared, s)
					}
				}
			}
		}
	}
	return shared
}

// AreAdjacent returns true iff the polygons share a boundary segment of
// non-zero length. Touching at a single corner is not adjacency.
func AreAdjacent(a, b Polygon) bool {
	// checked both ways round so the answer is symmetric even when rounding
	// differs depending on which edge we project on to
	return len(SharedBoundary(a, b)) > 0 || len(SharedBoundary(b, a)) > 0
}

// IsOrthogonallyAdjacent returns true iff the polygons share an axis aligned
// boundary segment of non-zero length. On a rectangular grid this is the
// 4-neighbourhood; neighbours across a slanted border (or a corner) are
// excluded.
func IsOrthogonallyAdjacent(a, b Polygon) bool {
	for _, pair := range [][2]Polygon{{a, b}, {b, a}} {
		for _, s := range SharedBoundary(pair[0], pair[1]) {
			if s.AxisAligned() {
				return true
			}
		}
	}
	return false
}

// Project returns the arc length along path of the point on the path closest
// to p. Used to order things "along" a polyline.
func Project(path []r2.Point, p r2.Point) float64 {
	if len(path) < 2 {
		return 0
	}

	best := math.Inf(1)
	bestT := 0.0
	travelled := 0.0
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		ab := b.Sub(a)
		l2 := ab.Dot(ab)
		seglen := math.Sqrt(l2)

		t := 0.0
		if l2 > 0 {
			t = math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
		}
		d := Distance(p, a.Add(ab.Mul(t)))
		if d < best-Epsilon {
			best = d
			bestT = travelled + t*seglen
		}
		travelled += seglen
	}
	return bestT
}
