package citynet

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/voidshard/citynet/internal/geometry"
	"github.com/voidshard/citynet/internal/partition"
)

// PartitionCells rebuilds the cells of every layer in scope from the city
// footprint & cell regions, installs them & returns them.
//
// Each layer with cell regions gets its own partition; the base layer always
// gets one. With an active filter only the filtered layer is rebuilt.
//
// Cell keys from before the call are invalid afterwards, so every
// synthesized node region working on a rebuilt layer (and every edge region
// on the same layer) is regenerated. Regions on those layers that are not
// synthesized lose whatever they produced & stay Stale. The cells are installed even if that
// fails for some region; the returned error then lists those regions, which
// are left Stale with nothing attributed to them.
func (e *Engine) PartitionCells(scope Scope) ([]Cell, error) {
	city := scope.City
	start := time.Now()

	layers, inputs := e.cellInputs(city, scope.Filter)
	footprint := geometry.Ring(city.footprint.Points()).Open()

	built := make([]*layerPartition, len(layers))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(e.cfg.workers())
	for i := range layers {
		i := i
		g.Go(func() error {
			p, err := partition.Build(footprint, inputs[i], e.cfg.MinCellArea)
			if err != nil {
				return errors.Wrapf(err, "partitioning layer %s", layers[i].Name)
			}
			built[i] = &layerPartition{layer: layers[i], p: p}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changed := map[float64]bool{}
	city.mu.Lock()
	if scope.Filter.Active {
		if _, ok := city.partitions[scope.Filter.Height]; ok {
			changed[scope.Filter.Height] = true
		}
		delete(city.partitions, scope.Filter.Height)
	} else {
		for h := range city.partitions {
			changed[h] = true
		}
		city.partitions = map[float64]*layerPartition{}
	}
	for _, lp := range built {
		city.partitions[lp.layer.Height] = lp
		changed[lp.layer.Height] = true
	}
	city.mu.Unlock()

	cells := city.Cells(scope.Filter)
	e.log.Debug("partitioned cells", "city", city.Name, "layers", len(built), "cells", len(cells), "elapsed", time.Since(start))

	var errs *multierror.Error
	for _, sys := range city.Systems() {
		res, err := e.reflow(sys, changed)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "system %s", sys.Name))
		}
		if res != nil && res.Warnings != nil {
			e.log.Warn("regenerated with warnings", "system", sys.Name, "warnings", res.Warnings.Len())
		}
	}

	return cells, errs.ErrorOrNil()
}

// cellInputs groups the city's cell regions by layer height. The base layer
// is always present, even with no regions. Layers come back lowest first.
func (e *Engine) cellInputs(city *City, filter LayerFilter) ([]Layer, [][]partition.Input) {
	city.mu.RLock()
	defer city.mu.RUnlock()

	byHeight := map[float64][]partition.Input{}
	layerOf := map[float64]Layer{}

	if filter.Allows(city.BaseLayer) {
		byHeight[city.BaseLayer.Height] = []partition.Input{}
		layerOf[city.BaseLayer.Height] = city.BaseLayer
	}

	for _, r := range city.cellRegions {
		if !filter.Allows(r.Layer) {
			continue
		}
		h := r.Layer.Height
		if _, ok := layerOf[h]; !ok {
			layerOf[h] = r.Layer
		}
		byHeight[h] = append(byHeight[h], partition.Input{ID: r.ID, Ring: r.ring()})
	}

	heights := make([]float64, 0, len(byHeight))
	for h := range byHeight {
		heights = append(heights, h)
	}
	sort.Float64s(heights)

	layers := make([]Layer, len(heights))
	inputs := make([][]partition.Input, len(heights))
	for i, h := range heights {
		layers[i] = layerOf[h]
		inputs[i] = byHeight[h]
	}
	return layers, inputs
}

// reflow regenerates everything in the system that was working on a
// partition that has just been replaced. Regions that fail are stripped of
// what they produced & marked Stale rather than failing the whole system.
func (e *Engine) reflow(sys *System, changed map[float64]bool) (*Result, error) {
	sys.regen.Lock()
	defer sys.regen.Unlock()

	g, regions := sys.working()
	p := e.newPass(sys.city, sys, g)

	affected := func(l Layer) bool {
		if changed[l.Height] {
			return true
		}
		lp, err := sys.city.resolve(l)
		return err != nil || changed[lp.layer.Height]
	}

	failed := &multierror.Error{}
	fail := func(r *Region, err error) {
		p.g.dropSource(r.ID)
		p.states[r.ID] = Stale
		failed = multierror.Append(failed, err)
	}

	touched := map[float64]bool{}
	for _, r := range regions {
		if r.Kind != NodeKind || !affected(r.Layer) {
			continue
		}
		touched[r.Layer.Height] = true
		if st, _ := sys.State(r.ID); st != Synthesized {
			// output of an unsynthesized region names cells that are gone
			p.g.dropSource(r.ID)
			continue
		}
		if err := p.node(r); err != nil {
			fail(r, err)
		}
	}
	for _, r := range regions {
		if r.Kind != EdgeKind || !(touched[r.Layer.Height] || affected(r.Layer)) {
			continue
		}
		if st, _ := sys.State(r.ID); st != Synthesized {
			p.g.dropSource(r.ID)
			continue
		}
		if err := p.edge(r); err != nil {
			fail(r, err)
		}
	}

	sys.install(p.g, p.states, "")
	p.res.Nodes, p.res.Edges = sys.counts()
	return p.res, failed.ErrorOrNil()
}
