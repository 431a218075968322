package citynet

import (
	"github.com/boljen/go-bitmap"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/voidshard/citynet/internal/geometry"
)

// nodeCells works out which cells of the partition a node region places
// nodes in. Cells come back in index order, each at most once.
//
// Per point problems (POLYPOINT points outside every cell) are returned as
// warnings unless the engine is strict, in which case the first is fatal.
func (e *Engine) nodeCells(lp *layerPartition, r *Region) ([]int, []error, error) {
	// one bit per cell, set if the region wants a node there
	chosen := bitmap.New(lp.p.Len())
	warnings := []error{}

	switch r.Shape {
	case Polygon:
		poly := geometry.NewPolygon(r.ring())
		for _, i := range lp.p.Candidates(poly.Bounds()) {
			if geometry.PointInPolygon(lp.p.Pieces[i].Centroid, poly) {
				chosen.Set(i, true)
			}
		}
	case Polyline:
		for _, i := range lp.p.Crossed(r.Coords.Points()) {
			chosen.Set(i, true)
		}
	case Polypoint:
		for idx, pt := range r.Coords.Points() {
			i, ok := lp.p.Locate(pt)
			if ok {
				chosen.Set(i, true)
				continue
			}
			err := &OutOfBoundsError{Region: r.ID, Index: idx, Point: pt}
			if e.cfg.Strict {
				return nil, nil, err
			}
			warnings = append(warnings, err)
		}
	default:
		return nil, nil, errors.Wrapf(ErrInvalidRegion, "region %s: shape %s cannot place nodes", r.ID, r.Shape)
	}

	out := []int{}
	for i := 0; i < lp.p.Len(); i++ {
		if chosen.Get(i) {
			out = append(out, i)
		}
	}
	return out, warnings, nil
}

// SynthesizeNodes returns the nodes the region would produce against the
// current cells, without installing anything. Outside of the scope's layer
// this is always empty.
//
// If some POLYPOINT points are outside every cell (and the engine isn't
// strict) the nodes for the other points are returned along with an error
// matching ErrOutOfBounds.
func (e *Engine) SynthesizeNodes(scope Scope, sys *System, id string) ([]Node, error) {
	r, ok := sys.Region(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRegion, "region %s", id)
	}
	if r.Kind != NodeKind {
		return nil, errors.Wrapf(ErrInvalidRegion, "region %s is a %s region", id, r.Kind)
	}
	if !scope.Filter.Allows(r.Layer) {
		return []Node{}, nil
	}

	lp, err := scope.City.resolve(r.Layer)
	if err != nil {
		return nil, err
	}
	cells, warnings, err := e.nodeCells(lp, r)
	if err != nil {
		return nil, err
	}

	out := make([]Node, len(cells))
	for i, idx := range cells {
		c := lp.cell(idx)
		out[i] = Node{
			ID:       uuid.NewString(),
			Type:     *r.NodeType,
			Cell:     c.Key,
			Position: c.Centroid,
			Layer:    r.Layer,
			Sources:  []string{r.ID},
		}
	}

	if len(warnings) > 0 {
		return out, joinWarnings(warnings)
	}
	return out, nil
}
