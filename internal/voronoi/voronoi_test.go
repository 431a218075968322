package voronoi

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model2d"

	"github.com/voidshard/citynet/internal/geometry"
)

func bounds(x0, y0, x1, y1 float64) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: x0, Y: y0}, r2.Point{X: x1, Y: y1})
}

func TestBuilderNoSites(t *testing.T) {
	_, err := NewBuilder(bounds(0, 0, 1, 1)).Voronoi()
	assert.True(t, errors.Is(err, ErrNoSites))
}

func TestBuilderFilters(t *testing.T) {
	b := NewBuilder(bounds(0, 0, 10, 10))
	b.SetSiteFilters(MinDistance(3))
	b.SetCandidateFilters(Within(func(p r2.Point) bool { return p.X < 8 }))

	_, ok := b.AddSite(r2.Point{X: 1, Y: 1})
	assert.True(t, ok)
	_, ok = b.AddSite(r2.Point{X: 2, Y: 2})
	assert.False(t, ok, "too close to the first site")
	_, ok = b.AddSite(r2.Point{X: 9, Y: 9})
	assert.False(t, ok, "rejected by the candidate filter")
	_, ok = b.AddSite(r2.Point{X: 20, Y: 1})
	assert.False(t, ok, "outside bounds")
	_, ok = b.AddSite(r2.Point{X: 5, Y: 5})
	assert.True(t, ok)

	assert.Equal(t, 2, b.SiteCount())
}

func TestBuilderRandomSitesSeeded(t *testing.T) {
	place := func() []r2.Point {
		b := NewBuilder(bounds(0, 0, 100, 100))
		b.SetSeed(42)
		b.SetSiteFilters(MinDistance(10))
		for i := 0; i < 50; i++ {
			b.AddRandomSite()
		}
		return b.Sites()
	}

	a := place()
	assert.Equal(t, a, place(), "same seed gives the same sites")
	for i := range a {
		for j := i + 1; j < len(a); j++ {
			assert.GreaterOrEqual(t, geometry.Distance(a[i], a[j]), 10.0)
		}
	}
}

func TestVoronoiTwoSites(t *testing.T) {
	b := NewBuilder(bounds(0, 0, 2, 1))
	_, ok := b.AddSite(r2.Point{X: 0.5, Y: 0.5})
	require.True(t, ok)
	_, ok = b.AddSite(r2.Point{X: 1.5, Y: 0.5})
	require.True(t, ok)

	v, err := b.Voronoi()
	require.NoError(t, err)

	rings := v.Rings()
	require.Len(t, rings, 2)
	for _, r := range rings {
		require.NoError(t, geometry.ValidateRing(r))
		assert.InDelta(t, 1, math.Abs(r.SignedArea()), 1e-6)
	}

	left := geometry.NewPolygon(rings[0])
	assert.True(t, geometry.PointInPolygon(r2.Point{X: 0.25, Y: 0.5}, left))
	assert.False(t, geometry.PointInPolygon(r2.Point{X: 1.75, Y: 0.5}, left))
	assert.True(t, geometry.AreAdjacent(left, geometry.NewPolygon(rings[1])))

	assert.Equal(t, 0, v.SiteFor(r2.Point{X: 0.1, Y: 0.9}))
	assert.Equal(t, 1, v.SiteFor(r2.Point{X: 1.9, Y: 0.1}))
}

func TestDiagramCells(t *testing.T) {
	sites := []r2.Point{{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.5}, {X: 0.5, Y: 1.5}, {X: 1.5, Y: 1.5}}
	d := computeDiagram(bounds(0, 0, 2, 2), sites)
	d.snap(1e-8)

	centre := r2.Point{X: 1, Y: 1}
	for i, c := range d {
		r := c.ring()
		require.NoError(t, geometry.ValidateRing(r), "cell %d", i)
		assert.InDelta(t, 1, math.Abs(r.SignedArea()), 1e-6)

		meets := false
		for _, p := range r {
			meets = meets || geometry.Distance(p, centre) < 1e-6
		}
		assert.True(t, meets, "cell %d reaches the middle", i)
	}
}

func TestDiagramSnap(t *testing.T) {
	d := diagram{
		{site: r2.Point{X: 0, Y: 0.5}, corners: []model2d.Coord{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 1 + 1e-12, Y: 1e-12}, {X: 0, Y: 1}}},
		{site: r2.Point{X: 2, Y: 0.5}, corners: []model2d.Coord{{X: 1 - 1e-12, Y: 0}, {X: 3, Y: 0}, {X: 2, Y: 1}}},
	}
	d.snap(1e-8)

	assert.Len(t, d[0].corners, 3, "near duplicate corners collapse")
	assert.Contains(t, d[1].corners, model2d.Coord{X: 1 - 1e-12, Y: 0}, "lowest corner wins")
	assert.Contains(t, d[0].corners, model2d.Coord{X: 1 - 1e-12, Y: 0})

	r := d[0].ring()
	require.Len(t, r, 3)
	assert.Equal(t, r2.Point{X: -1, Y: 0}, r[0], "counter clockwise from west")
}
