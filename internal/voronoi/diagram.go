package voronoi

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model2d"

	"github.com/voidshard/citynet/internal/geometry"
)

// half plane clipping as in
// https://github.com/unixpickle/voronoi-glass/blob/main/voronoi.go

// cell is a site & the corners of the convex region nearer to it than to any
// other site. Corners are unordered until ring() is called.
type cell struct {
	site    r2.Point
	corners []model2d.Coord
}

// diagram holds one cell per site, in site order
type diagram []*cell

// computeDiagram clips the bounds against the bisector of each pair of sites.
// Cells are built one at a time so a corner shared by neighbours can differ
// by rounding error between them; snap fixes that up.
func computeDiagram(bounds r2.Rect, sites []r2.Point) diagram {
	box := model2d.NewConvexPolytopeRect(
		model2d.Coord{X: bounds.X.Lo, Y: bounds.Y.Lo},
		model2d.Coord{X: bounds.X.Hi, Y: bounds.Y.Hi},
	)

	out := make(diagram, len(sites))
	for i, site := range sites {
		here := model2d.Coord{X: site.X, Y: site.Y}

		clip := append(model2d.ConvexPolytope{}, box...)
		for j, other := range sites {
			if j == i || other == site {
				continue
			}
			there := model2d.Coord{X: other.X, Y: other.Y}
			towards := there.Sub(here).Normalize()
			clip = append(clip, &model2d.LinearConstraint{Normal: towards, Max: towards.Dot(here.Mid(there))})
		}

		out[i] = &cell{site: site, corners: corners(clip.Mesh().SegmentSlice())}
	}
	return out
}

// corners returns each distinct end point of the segments
func corners(segs []*model2d.Segment) []model2d.Coord {
	seen := map[model2d.Coord]bool{}
	out := make([]model2d.Coord, 0, len(segs))
	for _, s := range segs {
		for _, p := range s {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// snap moves every corner within eps of another onto a single shared
// coordinate, lowest (x, y) first, so neighbouring cells agree exactly.
func (d diagram) snap(eps float64) {
	seen := map[model2d.Coord]bool{}
	all := []model2d.Coord{}
	for _, c := range d {
		for _, p := range c.corners {
			if !seen[p] {
				seen[p] = true
				all = append(all, p)
			}
		}
	}
	if len(all) == 0 {
		return
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].X != all[j].X {
			return all[i].X < all[j].X
		}
		return all[i].Y < all[j].Y
	})

	tree := model2d.NewCoordTree(all)
	to := map[model2d.Coord]model2d.Coord{}
	for _, p := range all {
		if _, ok := to[p]; ok {
			continue
		}
		for _, q := range nearby(tree, p, eps) {
			if _, ok := to[q]; !ok {
				to[q] = p
			}
		}
	}

	for _, c := range d {
		kept := map[model2d.Coord]bool{}
		for i := 0; i < len(c.corners); {
			p := to[c.corners[i]]
			if kept[p] {
				essentials.UnorderedDelete(&c.corners, i)
				continue
			}
			kept[p] = true
			c.corners[i] = p
			i++
		}
	}
}

// ring returns the corners counter clockwise around the site. The cell is
// convex & holds its site, so sorting by angle is enough.
func (c *cell) ring() geometry.Ring {
	angle := func(p model2d.Coord) float64 {
		return math.Atan2(p.Y-c.site.Y, p.X-c.site.X)
	}
	sort.Slice(c.corners, func(i, j int) bool {
		return angle(c.corners[i]) < angle(c.corners[j])
	})

	out := make(geometry.Ring, len(c.corners))
	for i, p := range c.corners {
		out[i] = r2.Point{X: p.X, Y: p.Y}
	}
	return out
}

// nearby returns the points in the tree at most eps from p, p included.
// The neighbour count doubles until one falls outside eps.
func nearby(tree *model2d.CoordTree, p model2d.Coord, eps float64) []model2d.Coord {
	for k := 4; ; k *= 2 {
		near := tree.KNN(k, p)
		cut := sort.Search(len(near), func(i int) bool { return near[i].Dist(p) > eps })
		if cut < len(near) || len(near) < k {
			return near[:cut]
		}
	}
}
