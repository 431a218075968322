package citynet

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/voidshard/citynet/coords"
	"github.com/voidshard/citynet/internal/geometry"
	"github.com/voidshard/citynet/internal/voronoi"
)

// GridCellRegions returns cols x rows rectangular cell regions tiling the
// given bounds, row by row from the bottom left.
func GridCellRegions(bounds r2.Rect, cols, rows int, layer Layer) ([]*Region, error) {
	if cols < 1 || rows < 1 {
		return nil, errors.Errorf("grid requires at least 1 column & row, got %dx%d", cols, rows)
	}
	if bounds.IsEmpty() || bounds.X.Length() <= 0 || bounds.Y.Length() <= 0 {
		return nil, errors.Wrap(ErrGeometry, "grid bounds have no area")
	}

	w := bounds.X.Length() / float64(cols)
	h := bounds.Y.Length() / float64(rows)

	out := make([]*Region, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x0 := bounds.X.Lo + float64(col)*w
			y0 := bounds.Y.Lo + float64(row)*h
			x1, y1 := x0+w, y0+h
			if col == cols-1 {
				x1 = bounds.X.Hi
			}
			if row == rows-1 {
				y1 = bounds.Y.Hi
			}
			out = append(out, &Region{
				ID:     fmt.Sprintf("grid-%d-%d", row, col),
				Coords: rectangle(x0, y0, x1, y1),
				Layer:  layer,
				Kind:   CellKind,
				Shape:  Polygon,
			})
		}
	}
	return out, nil
}

// VoronoiCellRegions scatters up to `sites` sites over the footprint, at
// least minDist apart, & returns the voronoi cell around each as a cell
// region. The same seed always gives the same regions.
//
// Cells are cut from the footprint's bounding box; PartitionCells clips them
// to the footprint itself.
func VoronoiCellRegions(footprint *coords.List, sites int, minDist float64, seed int64, layer Layer) ([]*Region, error) {
	ring := geometry.Ring(footprint.Points()).Open()
	if err := geometry.ValidateRing(ring); err != nil {
		return nil, errors.Wrap(err, "voronoi footprint")
	}
	poly := geometry.NewPolygon(ring)

	b := voronoi.NewBuilder(ring.Bounds())
	b.SetSeed(seed)
	b.SetCandidateFilters(voronoi.Within(func(p r2.Point) bool {
		return geometry.PointInPolygon(p, poly)
	}))
	b.SetSiteFilters(voronoi.MinDistance(minDist))

	// give up after 100 attempts per site
	for attempts := 0; b.SiteCount() < sites && attempts < sites*100; attempts++ {
		b.AddRandomSite()
	}

	v, err := b.Voronoi()
	if err != nil {
		return nil, err
	}

	out := []*Region{}
	for i, r := range v.Rings() {
		if geometry.ValidateRing(r) != nil {
			continue
		}
		out = append(out, &Region{
			ID:     fmt.Sprintf("voronoi-%d", i),
			Coords: coords.New(r...),
			Layer:  layer,
			Kind:   CellKind,
			Shape:  Polygon,
		})
	}
	return out, nil
}

// rectangle returns a closed axis aligned rectangle
func rectangle(x0, y0, x1, y1 float64) *coords.List {
	l := coords.New(
		r2.Point{X: x0, Y: y0},
		r2.Point{X: x1, Y: y0},
		r2.Point{X: x1, Y: y1},
		r2.Point{X: x0, Y: y1},
	)
	l.Close()
	return l
}
