package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Epsilon is the tolerance used for all comparisons in this package.
const Epsilon = 1e-9

var (
	// ErrGeometry is matched (via errors.Is) by every GeometryError.
	ErrGeometry = errors.New("invalid geometry")
)

// GeometryError reports a degenerate or otherwise unusable ring / polygon.
type GeometryError struct {
	Reason string
}

// Error returns the error string.
func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s", e.Reason)
}

// Is reports whether the target is ErrGeometry.
func (e *GeometryError) Is(err error) bool {
	return err == ErrGeometry
}

// newGeometryError is sugar for &GeometryError{Reason: fmt.Sprintf(...)}
func newGeometryError(format string, args ...interface{}) error {
	return &GeometryError{Reason: fmt.Sprintf(format, args...)}
}

// Ring is an ordered list of vertices. The ring is implicitly closed; a final
// vertex equal to the first is tolerated and ignored.
type Ring []r2.Point

// Polygon is an outer shell with zero or more holes.
type Polygon struct {
	Shell Ring
	Holes []Ring
}

// NewPolygon returns a Polygon with the given shell & no holes.
func NewPolygon(shell Ring) Polygon {
	return Polygon{Shell: shell}
}

// Rings returns the shell followed by any holes.
func (p Polygon) Rings() []Ring {
	return append([]Ring{p.Shell}, p.Holes...)
}

// Bounds returns the bounding rectangle of the shell.
func (p Polygon) Bounds() r2.Rect {
	return p.Shell.Bounds()
}

// Open returns the ring without an explicit closing vertex.
func (r Ring) Open() Ring {
	if len(r) > 1 && Equal(r[0], r[len(r)-1]) {
		return r[:len(r)-1]
	}
	return r
}

// Closed returns a copy of the ring with the first vertex repeated at the end.
func (r Ring) Closed() Ring {
	open := r.Open()
	out := make(Ring, 0, len(open)+1)
	out = append(out, open...)
	if len(open) > 0 {
		out = append(out, open[0])
	}
	return out
}

// Segments returns every edge of the ring, including the closing edge.
func (r Ring) Segments() [][2]r2.Point {
	open := r.Open()
	n := len(open)
	if n < 2 {
		return nil
	}
	segs := make([][2]r2.Point, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, [2]r2.Point{open[i], open[(i+1)%n]})
	}
	return segs
}

// Bounds returns the smallest r2.Rect containing every vertex.
func (r Ring) Bounds() r2.Rect {
	if len(r) == 0 {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(r...)
}

// SignedArea via the shoelace formula; positive for counter-clockwise rings.
func (r Ring) SignedArea() float64 {
	open := r.Open()
	n := len(open)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += open[i].X*open[j].Y - open[j].X*open[i].Y
	}
	return area / 2
}

// Area of the polygon, holes subtracted.
func (p Polygon) Area() float64 {
	a := math.Abs(p.Shell.SignedArea())
	for _, h := range p.Holes {
		a -= math.Abs(h.SignedArea())
	}
	return a
}

// Equal returns if two points are within Epsilon on both axes.
func Equal(a, b r2.Point) bool {
	return math.Abs(a.X-b.X) <= Epsilon && math.Abs(a.Y-b.Y) <= Epsilon
}

// Distance standard pythag.
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// ValidateRing returns a GeometryError if the ring cannot be used as a simple
// polygon boundary: fewer than 3 distinct vertices, zero area or
// self-intersecting edges.
func ValidateRing(r Ring) error {
	open := dedupe(r.Open())
	if len(open) < 3 {
		return newGeometryError("ring has %d distinct vertices, need at least 3", len(open))
	}
	if math.Abs(open.SignedArea()) <= Epsilon {
		return newGeometryError("ring has zero area")
	}

	segs := open.Segments()
	n := len(segs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				// neighbouring edges share a vertex, they only count if they fold back
				if collinearOverlap(segs[i], segs[j]) > Epsilon {
					return newGeometryError("ring folds back on itself at edge %d", j)
				}
				continue
			}
			if SegmentsIntersect(segs[i][0], segs[i][1], segs[j][0], segs[j][1]) {
				return newGeometryError("ring self-intersects between edges %d and %d", i, j)
			}
		}
	}
	return nil
}

// ValidatePolygon validates the shell & every hole.
func ValidatePolygon(p Polygon) error {
	if err := ValidateRing(p.Shell); err != nil {
		return err
	}
	for i, h := range p.Holes {
		if err := ValidateRing(h); err != nil {
			return errors.Wrapf(err, "hole %d", i)
		}
	}
	return nil
}

// dedupe removes consecutive duplicate vertices.
func dedupe(r Ring) Ring {
	out := make(Ring, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && Equal(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && Equal(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// orientation is the cross product of (b-a) x (c-a)
func orientation(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// distToSegment returns the distance from p to the segment a-b
func distToSegment(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return Distance(p, a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return Distance(p, a.Add(ab.Mul(t)))
}

// onSegment returns if p lies on a-b (within Epsilon)
func onSegment(p, a, b r2.Point) bool {
	return distToSegment(p, a, b) <= Epsilon
}

// SegmentsIntersect returns if segments p1-p2 and q1-q2 touch or cross.
func SegmentsIntersect(p1, p2, q1, q2 r2.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	straddles := func(a, b float64) bool {
		return (a > Epsilon && b < -Epsilon) || (a < -Epsilon && b > Epsilon)
	}
	if straddles(d1, d2) && straddles(d3, d4) {
		return true
	}

	return onSegment(p1, q1, q2) || onSegment(p2, q1, q2) || onSegment(q1, p1, p2) || onSegment(q2, p1, p2)
}

// pointInRing ray-casts from p. Points on the boundary count as inside.
func pointInRing(p r2.Point, r Ring) bool {
	open := r.Open()
	n := len(open)
	if n < 3 {
		return false
	}
	for _, s := range open.Segments() {
		if onSegment(p, s[0], s[1]) {
			return true
		}
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := open[i], open[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) && p.X < (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// onBoundary returns if p sits on any edge of the ring
func onBoundary(p r2.Point, r Ring) bool {
	for _, s := range r.Segments() {
		if onSegment(p, s[0], s[1]) {
			return true
		}
	}
	return false
}

// PointInPolygon returns if the point is inside the polygon or on its boundary.
// Points strictly inside a hole are outside.
func PointInPolygon(p r2.Point, poly Polygon) bool {
	if !pointInRing(p, poly.Shell) {
		return false
	}
	for _, h := range poly.Holes {
		if pointInRing(p, h) && !onBoundary(p, h) {
			return false
		}
	}
	return true
}

// PolylineIntersectsCell returns if any part of the path lies in, or touches,
// the cell polygon.
func PolylineIntersectsCell(path []r2.Point, cell Polygon) bool {
	if len(path) == 0 {
		return false
	}

	// cheap reject on bounds
	pathBounds := r2.RectFromPoints(path...).ExpandedByMargin(Epsilon)
	if !pathBounds.Intersects(cell.Bounds()) {
		return false
	}

	for _, p := range path {
		if PointInPolygon(p, cell) {
			return true
		}
	}

	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		for _, r := range cell.Rings() {
			for _, s := range r.Segments() {
				if SegmentsIntersect(a, b, s[0], s[1]) {
					return true
				}
			}
		}
	}
	return false
}

// ringCentroid returns the centroid & unsigned area of a single ring.
func ringCentroid(r Ring) (r2.Point, float64) {
	open := r.Open()
	n := len(open)
	a := open.SignedArea()
	if n == 0 {
		return r2.Point{}, 0
	}
	if math.Abs(a) <= Epsilon {
		sum := r2.Point{}
		for _, v := range open {
			sum = sum.Add(v)
		}
		return sum.Mul(1 / float64(n)), 0
	}

	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := open[i].X*open[j].Y - open[j].X*open[i].Y
		cx += (open[i].X + open[j].X) * cross
		cy += (open[i].Y + open[j].Y) * cross
	}
	f := 1 / (6 * a)
	return r2.Point{X: cx * f, Y: cy * f}, math.Abs(a)
}

// Centroid returns the area weighted centroid of the polygon (holes removed).
func Centroid(poly Polygon) (r2.Point, error) {
	c, area := ringCentroid(poly.Shell)
	if area <= Epsilon {
		return r2.Point{}, newGeometryError("cannot take centroid of zero area polygon")
	}

	sum := c.Mul(area)
	total := area
	for _, h := range poly.Holes {
		hc, ha := ringCentroid(h)
		sum = sum.Sub(hc.Mul(ha))
		total -= ha
	}
	if total <= Epsilon {
		return r2.Point{}, newGeometryError("polygon holes consume the entire shell")
	}
	return sum.Mul(1 / total), nil
}
