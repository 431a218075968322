package citynet

import (
	"sort"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/pkg/errors"

	"github.com/voidshard/citynet/coords"
	"github.com/voidshard/citynet/internal/geometry"
	"github.com/voidshard/citynet/internal/partition"
)

// layerPartition is the partition for one layer height.
type layerPartition struct {
	layer Layer
	p     *partition.Partition
}

// cell returns the i-th cell as a Cell
func (lp *layerPartition) cell(i int) Cell {
	piece := lp.p.Pieces[i]
	return Cell{
		Key:      CellKey{Height: lp.layer.Height, Index: i},
		Layer:    lp.layer,
		Polygon:  piece.Polygon,
		Centroid: piece.Centroid,
		Area:     piece.Area,
		Region:   piece.Source,
	}
}

// City is a footprint, the cell regions that carve it up & the systems
// laid over it.
type City struct {
	Name string

	// Anchor is where the footprint's origin sits on the globe
	Anchor s2.LatLng

	// Rotation of the footprint's x axis from east, counter clockwise
	Rotation s1.Angle

	// Unit is the distance unit coordinates are in (see Config.Units)
	Unit string

	// BaseLayer always has cells. Layers without cell regions of their own
	// use its cells.
	BaseLayer Layer

	footprint *coords.List

	mu          sync.RWMutex
	cellRegions []*Region
	partitions  map[float64]*layerPartition
	systems     []*System
}

// NewCity returns a city with the given footprint, which must be a simple
// ring. The footprint is closed if it isn't already.
func NewCity(name string, footprint *coords.List, base Layer) (*City, error) {
	if footprint == nil {
		return nil, errors.Wrap(ErrGeometry, "city requires a footprint")
	}
	fp := footprint.Clone()
	fp.Close()
	if err := geometry.ValidateRing(fp.Points()); err != nil {
		return nil, errors.Wrapf(err, "city %s footprint", name)
	}
	return &City{
		Name:        name,
		Unit:        DefaultUnit,
		BaseLayer:   base,
		footprint:   fp,
		cellRegions: []*Region{},
		partitions:  map[float64]*layerPartition{},
		systems:     []*System{},
	}, nil
}

// Footprint returns a copy of the (closed) footprint.
func (c *City) Footprint() *coords.List {
	return c.footprint.Clone()
}

// AddCellRegion adds a cell region. Cells are not rebuilt until the next
// PartitionCells. Later regions win where regions overlap.
func (c *City) AddCellRegion(r *Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Kind != CellKind {
		return errors.Wrapf(ErrInvalidRegion, "region %s: cities only hold cell regions, got %s", r.ID, r.Kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, have := range c.cellRegions {
		if have.ID == r.ID {
			return errors.Wrapf(ErrDuplicateRegion, "region %s", r.ID)
		}
	}
	c.cellRegions = append(c.cellRegions, r.clone())
	return nil
}

// RemoveCellRegion removes a cell region. Cells are not rebuilt until the
// next PartitionCells.
func (c *City) RemoveCellRegion(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, have := range c.cellRegions {
		if have.ID == id {
			c.cellRegions = append(c.cellRegions[:i], c.cellRegions[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownRegion, "cell region %s", id)
}

// CellRegions returns a copy of the cell regions in declaration order.
func (c *City) CellRegions() []*Region {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Region, len(c.cellRegions))
	for i, r := range c.cellRegions {
		out[i] = r.clone()
	}
	return out
}

// NewSystem adds a new (empty) system to the city.
func (c *City) NewSystem(name string, kind SystemKind) *System {
	s := newSystem(c, name, kind)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.systems = append(c.systems, s)

	return s
}

// System returns the first system with the given name.
func (c *City) System(name string) (*System, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.systems {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Systems returns all systems in the order they were added.
func (c *City) Systems() []*System {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*System{}, c.systems...)
}

// Layers returns the layers that currently have cells, lowest first.
func (c *City) Layers() []Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Layer, 0, len(c.partitions))
	for _, lp := range c.partitions {
		out = append(out, lp.layer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// Cells returns a snapshot of every cell (lowest layer first, then by index)
// passing the optional filter.
func (c *City) Cells(filter ...LayerFilter) []Cell {
	c.mu.RLock()
	defer c.mu.RUnlock()

	heights := make([]float64, 0, len(c.partitions))
	for h := range c.partitions {
		heights = append(heights, h)
	}
	sort.Float64s(heights)

	out := []Cell{}
	for _, h := range heights {
		lp := c.partitions[h]
		if !allows(filter, lp.layer) {
			continue
		}
		for i := 0; i < lp.p.Len(); i++ {
			out = append(out, lp.cell(i))
		}
	}
	return out
}

// Cell returns the cell with the given key.
func (c *City) Cell(key CellKey) (Cell, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lp, ok := c.partitions[key.Height]
	if !ok || key.Index < 0 || key.Index >= lp.p.Len() {
		return Cell{}, false
	}
	return lp.cell(key.Index), true
}

// resolve returns the partition regions on the given layer work against:
// the layer's own if it has one, otherwise the base layer's.
func (c *City) resolve(l Layer) (*layerPartition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if lp, ok := c.partitions[l.Height]; ok {
		return lp, nil
	}
	if lp, ok := c.partitions[c.BaseLayer.Height]; ok {
		return lp, nil
	}
	return nil, errors.Wrapf(ErrNoPartition, "layer %s (%v)", l.Name, l.Height)
}

// allows returns if the (optional) filter lets the layer through
func allows(filter []LayerFilter, l Layer) bool {
	for _, f := range filter {
		if !f.Allows(l) {
			return false
		}
	}
	return true
}
