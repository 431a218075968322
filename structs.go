package citynet

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"

	"github.com/voidshard/citynet/coords"
	"github.com/voidshard/citynet/internal/geometry"
)

// Layer is a vertical display level. Regions, cells, nodes & edges on
// different layers never interact.
type Layer struct {
	Name   string  `json:"name" toml:"name" yaml:"name"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// RegionKind says what a region generates.
type RegionKind string

const (
	CellKind RegionKind = "cell"
	NodeKind RegionKind = "node"
	EdgeKind RegionKind = "edge"
)

// Shape says how a region's coordinates are interpreted & (for node / edge
// regions) which rule turns them into nodes or edges.
type Shape string

const (
	// Polygon is a closed ring. Cell & node regions.
	Polygon Shape = "polygon"

	// Polyline is an open path. Node & edge regions.
	Polyline Shape = "polyline"

	// Polypoint is a set (or for edges, an ordered list) of points. Node & edge regions.
	Polypoint Shape = "polypoint"

	// PolygonAdjacent joins nodes in neighbouring cells within the ring.
	PolygonAdjacent Shape = "polygon-adjacent"

	// PolygonOrthogonal is PolygonAdjacent minus diagonal neighbours.
	PolygonOrthogonal Shape = "polygon-orthogonal"

	// PolygonConnected joins every cluster of nodes within the ring with as
	// little total edge length as possible.
	PolygonConnected Shape = "polygon-connected"
)

var (
	legalShapes = map[RegionKind][]Shape{
		CellKind: {Polygon},
		NodeKind: {Polygon, Polyline, Polypoint},
		EdgeKind: {PolygonAdjacent, PolygonOrthogonal, PolygonConnected, Polyline, Polypoint},
	}
)

// isRing returns if coordinates of this shape form a closed ring.
func (s Shape) isRing() bool {
	switch s {
	case Polygon, PolygonAdjacent, PolygonOrthogonal, PolygonConnected:
		return true
	}
	return false
}

// NodeType is the kind of thing a node is (a junction, a substation ..).
// Two node regions with the same NodeType never place two nodes in one cell.
type NodeType struct {
	Name      string `json:"name" yaml:"name"`
	Color     string `json:"color,omitempty" yaml:"color"`         // css colour name or #rrggbb
	Networked bool   `json:"networked,omitempty" yaml:"networked"` // whether edges should attach to it
}

// Colour returns the display colour.
func (t NodeType) Colour() (color.RGBA, error) {
	return parseColour(t.Color)
}

// EdgeType is the kind of link an edge is (a road, a pipe ..).
type EdgeType struct {
	Name     string `json:"name" yaml:"name"`
	Color    string `json:"color,omitempty" yaml:"color"`
	Directed bool   `json:"directed,omitempty" yaml:"directed"` // From -> To only, for downstream consumers
}

// Colour returns the display colour.
func (t EdgeType) Colour() (color.RGBA, error) {
	return parseColour(t.Color)
}

// parseColour understands css colour names & #rrggbb
func parseColour(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return colornames.Black, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return color.RGBA{}, errors.Errorf("unknown colour %q", s)
}

// Region is a user drawn shape declaring where cells, nodes or edges should be.
type Region struct {
	ID          string
	Description string
	Coords      *coords.List
	Layer       Layer
	Kind        RegionKind
	Shape       Shape

	// set for node regions only
	NodeType *NodeType

	// set for edge regions only
	EdgeType *EdgeType
}

// Validate checks the kind, shape & payload agree & that the coordinates are
// usable for the shape.
func (r *Region) Validate() error {
	if r.ID == "" {
		return errors.Wrap(ErrInvalidRegion, "region requires an id")
	}

	shapes, ok := legalShapes[r.Kind]
	if !ok {
		return errors.Wrapf(ErrInvalidRegion, "region %s: unknown kind %q", r.ID, r.Kind)
	}
	legal := false
	for _, s := range shapes {
		if s == r.Shape {
			legal = true
			break
		}
	}
	if !legal {
		return errors.Wrapf(ErrInvalidRegion, "region %s: shape %q is not valid for %s regions", r.ID, r.Shape, r.Kind)
	}

	switch r.Kind {
	case NodeKind:
		if r.NodeType == nil || r.EdgeType != nil {
			return errors.Wrapf(ErrInvalidRegion, "region %s: node regions require a node type (only)", r.ID)
		}
	case EdgeKind:
		if r.EdgeType == nil || r.NodeType != nil {
			return errors.Wrapf(ErrInvalidRegion, "region %s: edge regions require an edge type (only)", r.ID)
		}
	default:
		if r.NodeType != nil || r.EdgeType != nil {
			return errors.Wrapf(ErrInvalidRegion, "region %s: cell regions carry no node or edge type", r.ID)
		}
	}

	if r.Coords == nil || r.Coords.Len() == 0 {
		return errors.Wrapf(ErrInvalidRegion, "region %s: no coordinates", r.ID)
	}

	if r.Shape.isRing() {
		if err := geometry.ValidateRing(r.Coords.Points()); err != nil {
			return errors.Wrapf(err, "region %s", r.ID)
		}
	} else if r.Shape == Polyline && r.Coords.Len() < 2 {
		return errors.Wrapf(ErrInvalidRegion, "region %s: a polyline requires at least 2 points", r.ID)
	}

	return nil
}

// ring returns the region's coordinates as a ring.
func (r *Region) ring() geometry.Ring {
	return geometry.Ring(r.Coords.Points()).Open()
}

// clone returns a copy of the region that shares nothing mutable.
func (r *Region) clone() *Region {
	out := *r
	if r.Coords != nil {
		out.Coords = r.Coords.Clone()
	}
	if r.NodeType != nil {
		nt := *r.NodeType
		out.NodeType = &nt
	}
	if r.EdgeType != nil {
		et := *r.EdgeType
		out.EdgeType = &et
	}
	return &out
}

// CellKey addresses a cell: the height of the partition it lives in & its
// index within it. Keys are only good until the next PartitionCells.
type CellKey struct {
	Height float64 `json:"height"`
	Index  int     `json:"index"`
}

// String returns a readable key.
func (k CellKey) String() string {
	return fmt.Sprintf("%v/%d", k.Height, k.Index)
}

// Cell is one piece of a layer's partition of the city footprint.
type Cell struct {
	Key      CellKey
	Layer    Layer
	Polygon  geometry.Polygon
	Centroid r2.Point
	Area     float64

	// Region is the ID of the cell region this came from, empty for the
	// remainder of the footprint no cell region claimed.
	Region string `json:",omitempty"`
}

// Node is a point in a system's network, occupying exactly one cell.
type Node struct {
	ID       string
	Type     NodeType
	Cell     CellKey
	Position r2.Point
	Layer    Layer

	// Sources are the IDs of the node regions that produced this node.
	Sources []string
}

// Edge links two nodes of the same system.
type Edge struct {
	ID    string
	Type  EdgeType
	From  string
	To    string
	Layer Layer

	// Sources are the IDs of the edge regions that produced this edge.
	Sources []string
}

// RegionState is where a region is in its regeneration lifecycle.
type RegionState string

const (
	Stale        RegionState = "stale"
	Regenerating RegionState = "regenerating"
	Synthesized  RegionState = "synthesized"
)

// Result summarises a regeneration.
type Result struct {
	// Regenerated lists the regions that were (re)synthesized, in order.
	// This includes edge regions regenerated because a node region changed.
	Regenerated []string

	// Skipped lists regions that were left alone because they aren't on
	// the active layer.
	Skipped []string

	// Nodes & Edges are the system's totals once the result was installed.
	Nodes int
	Edges int

	// Warnings collects per point problems (OutOfBoundsError, ReferenceError)
	// that didn't stop synthesis. Nil if there were none.
	Warnings *multierror.Error
}

// warn adds a warning to the result.
func (r *Result) warn(errs ...error) {
	if len(errs) == 0 {
		return
	}
	r.Warnings = multierror.Append(r.Warnings, errs...)
}
