package voronoi

import (
	"github.com/golang/geo/r2"

	"github.com/voidshard/citynet/internal/geometry"
)

// Voronoi is a computed diagram; one cell per builder site, in site order.
type Voronoi struct {
	d      diagram
	sites  []r2.Point
	bounds r2.Rect
}

// newVoronoi builds a voronoi diagram using the given builder information
func newVoronoi(b *Builder) *Voronoi {
	me := &Voronoi{bounds: b.bounds, sites: b.Sites()}
	me.d = computeDiagram(b.bounds, me.sites)
	me.d.snap(1e-8)
	return me
}

// Bounds returns the bounding rect for this diagram
func (v *Voronoi) Bounds() r2.Rect {
	return v.bounds
}

// Sites returns all site centres
func (v *Voronoi) Sites() []r2.Point {
	return v.sites
}

// Ring returns the boundary of the i-th cell as an open ring.
func (v *Voronoi) Ring(i int) geometry.Ring {
	if i < 0 || i >= len(v.d) {
		return nil
	}
	return v.d[i].ring()
}

// Rings returns the boundary of every cell, in site order.
func (v *Voronoi) Rings() []geometry.Ring {
	out := make([]geometry.Ring, len(v.d))
	for i := range v.d {
		out[i] = v.Ring(i)
	}
	return out
}

// SiteFor returns the index of the nearest site ("centre" of a voronoi cell)
// for the given point.
func (v *Voronoi) SiteFor(p r2.Point) int {
	dist := -1.0
	pick := -1
	for i, site := range v.sites {
		sdist := geometry.Distance(site, p)
		if sdist == 0 {
			return i
		} else if dist < 0 || sdist < dist {
			dist = sdist
			pick = i
		}
	}
	return pick
}
