package partition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/pkg/errors"

	"github.com/voidshard/citynet/internal/geometry"
)

// Input is a region to be carved out of the footprint. Inputs are given in
// declaration order; later inputs win where they overlap earlier ones.
type Input struct {
	ID   string
	Ring geometry.Ring
}

// Piece is a single cell of a partition.
type Piece struct {
	Polygon  geometry.Polygon
	Centroid r2.Point
	Area     float64

	// Source is the ID of the Input this piece came from, empty for
	// remainder pieces (footprint not claimed by any input).
	Source string
}

// Build carves the footprint into non overlapping pieces.
//
// Each input is clipped to the footprint. Working from the last declared
// input to the first, anything already claimed by a later input is removed
// so overlaps go to whoever was declared last. Whatever of the footprint is
// left over becomes remainder pieces so that the pieces always cover the
// whole footprint. Components smaller than minArea are dropped as slivers.
//
// Pieces come back ordered by input, remainder last.
func Build(footprint geometry.Ring, inputs []Input, minArea float64) (*Partition, error) {
	fp, err := toGeom(footprint)
	if err != nil {
		return nil, errors.Wrap(err, "footprint")
	}

	perInput := make([][]Piece, len(inputs))
	claimed := geom.Geometry{}

	for i := len(inputs) - 1; i >= 0; i-- {
		in := inputs[i]
		g, err := toGeom(in.Ring)
		if err != nil {
			return nil, errors.Wrapf(err, "cell region %s", in.ID)
		}

		clipped, err := geom.Intersection(g, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "clipping cell region %s to footprint", in.ID)
		}
		if clipped.IsEmpty() {
			continue
		}

		piece := clipped
		if !claimed.IsEmpty() {
			piece, err = geom.Difference(clipped, claimed)
			if err != nil {
				return nil, errors.Wrapf(err, "subtracting later regions from %s", in.ID)
			}
		}

		claimed, err = geom.Union(claimed, clipped)
		if err != nil {
			return nil, errors.Wrapf(err, "merging cell region %s", in.ID)
		}

		perInput[i] = pieces(piece, in.ID, minArea)
	}

	remainder := fp
	if !claimed.IsEmpty() {
		remainder, err = geom.Difference(fp, claimed)
		if err != nil {
			return nil, errors.Wrap(err, "computing footprint remainder")
		}
	}

	all := []Piece{}
	for _, ps := range perInput {
		all = append(all, ps...)
	}
	all = append(all, pieces(remainder, "", minArea)...)

	return newPartition(all), nil
}

// toGeom validates the ring with our own kernel (so errors are GeometryErrors)
// & then converts it to a simplefeatures polygon.
func toGeom(r geometry.Ring) (geom.Geometry, error) {
	if err := geometry.ValidateRing(r); err != nil {
		return geom.Geometry{}, err
	}

	closed := r.Closed()
	parts := make([]string, len(closed))
	for i, p := range closed {
		parts[i] = strconv.FormatFloat(p.X, 'f', -1, 64) + " " + strconv.FormatFloat(p.Y, 'f', -1, 64)
	}
	wkt := fmt.Sprintf("POLYGON((%s))", strings.Join(parts, ","))

	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		// simplefeatures validates rings more strictly than we do in places
		return geom.Geometry{}, &geometry.GeometryError{Reason: err.Error()}
	}
	return g, nil
}

// pieces flattens a geometry into usable Pieces.
func pieces(g geom.Geometry, source string, minArea float64) []Piece {
	out := []Piece{}
	for _, poly := range polygons(g) {
		area := poly.Area()
		if area <= minArea {
			continue
		}
		c, err := geometry.Centroid(poly)
		if err != nil {
			continue
		}
		out = append(out, Piece{Polygon: poly, Centroid: c, Area: area, Source: source})
	}
	return out
}

// polygons returns every polygon within g (lines & points are ignored).
func polygons(g geom.Geometry) []geometry.Polygon {
	if g.IsEmpty() {
		return nil
	}

	switch g.Type() {
	case geom.TypePolygon:
		return []geometry.Polygon{fromPolygon(g.MustAsPolygon())}
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		out := make([]geometry.Polygon, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			out = append(out, fromPolygon(mp.PolygonN(i)))
		}
		return out
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		out := []geometry.Polygon{}
		for i := 0; i < gc.NumGeometries(); i++ {
			out = append(out, polygons(gc.GeometryN(i))...)
		}
		return out
	}
	return nil
}

// fromPolygon converts a simplefeatures polygon into our representation.
func fromPolygon(p geom.Polygon) geometry.Polygon {
	out := geometry.Polygon{Shell: fromLineString(p.ExteriorRing())}
	for i := 0; i < p.NumInteriorRings(); i++ {
		out.Holes = append(out.Holes, fromLineString(p.InteriorRingN(i)))
	}
	return out
}

// fromLineString returns the (open) ring described by the line string.
func fromLineString(ls geom.LineString) geometry.Ring {
	seq := ls.Coordinates()
	r := make(geometry.Ring, 0, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		r = append(r, r2.Point{X: xy.X, Y: xy.Y})
	}
	return r.Open()
}

// sortedInts returns the keys of the set in ascending order.
func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
