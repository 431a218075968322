// Package cityfile reads & writes cities as YAML documents. Coordinates use
// the bracketed "[x0 x1 ..]" / "[y0 y1 ..]" text form so hand written
// numbers survive a load & save unchanged.
package cityfile

import (
	"os"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/voidshard/citynet"
	"github.com/voidshard/citynet/coords"
)

// File is a whole city on disk.
type File struct {
	Name     string  `yaml:"name"`
	Unit     string  `yaml:"unit,omitempty"`
	Anchor   *Anchor `yaml:"anchor,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"` // degrees, counter clockwise from east

	Footprint Coords       `yaml:"footprint"`
	Cells     []Region     `yaml:"cells,omitempty"`
	Systems   []SystemSpec `yaml:"systems,omitempty"`
}

// Anchor places the footprint origin on the globe, in degrees.
type Anchor struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Coords is a point list in bracketed text form.
type Coords struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
}

// Region is any region; node & edge regions name their type.
type Region struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description,omitempty"`
	Layer       *citynet.Layer `yaml:"layer,omitempty"`
	Shape       citynet.Shape  `yaml:"shape,omitempty"`
	NodeType    string         `yaml:"node_type,omitempty"`
	EdgeType    string         `yaml:"edge_type,omitempty"`

	Coords `yaml:",inline"`
}

// SystemSpec is a system with the types its regions use.
type SystemSpec struct {
	Name      string             `yaml:"name"`
	Kind      citynet.SystemKind `yaml:"kind,omitempty"`
	NodeTypes []citynet.NodeType `yaml:"node_types,omitempty"`
	EdgeTypes []citynet.EdgeType `yaml:"edge_types,omitempty"`
	Nodes     []Region           `yaml:"nodes,omitempty"`
	Edges     []Region           `yaml:"edges,omitempty"`
}

// Load reads a city file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading city file %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "city file %s", path)
	}
	return f, nil
}

// Parse decodes a city document.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}
	if f.Name == "" {
		return nil, errors.New("city requires a name")
	}
	return f, nil
}

// Marshal encodes the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Save writes the file to disk.
func (f *File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build turns the file into a city on the given engine. Cells are not
// partitioned & nothing is synthesized; every region starts Stale.
func (f *File) Build(e *citynet.Engine) (*citynet.City, error) {
	fp, err := coords.Parse(f.Footprint.X, f.Footprint.Y)
	if err != nil {
		return nil, errors.Wrap(err, "footprint")
	}
	city, err := e.NewCity(f.Name, fp)
	if err != nil {
		return nil, err
	}
	if f.Unit != "" {
		city.Unit = f.Unit
	}
	if f.Anchor != nil {
		city.Anchor = s2.LatLngFromDegrees(f.Anchor.Lat, f.Anchor.Lng)
	}
	city.Rotation = s1.Angle(f.Rotation) * s1.Degree

	for _, spec := range f.Cells {
		r, err := spec.region(city.BaseLayer, citynet.CellKind, citynet.Polygon)
		if err != nil {
			return nil, err
		}
		if err := city.AddCellRegion(r); err != nil {
			return nil, err
		}
	}

	for _, s := range f.Systems {
		if _, ok := city.System(s.Name); ok {
			return nil, errors.Errorf("system %s declared twice", s.Name)
		}
		kind := s.Kind
		if kind == "" {
			kind = citynet.Undefined
		}
		sys := city.NewSystem(s.Name, kind)

		nodeTypes := map[string]citynet.NodeType{}
		for _, t := range s.NodeTypes {
			nodeTypes[t.Name] = t
		}
		edgeTypes := map[string]citynet.EdgeType{}
		for _, t := range s.EdgeTypes {
			edgeTypes[t.Name] = t
		}

		for _, spec := range s.Nodes {
			r, err := spec.region(city.BaseLayer, citynet.NodeKind, citynet.Polygon)
			if err != nil {
				return nil, err
			}
			t, ok := nodeTypes[spec.NodeType]
			if !ok {
				return nil, errors.Wrapf(citynet.ErrInvalidRegion, "system %s region %s: unknown node type %q", s.Name, spec.ID, spec.NodeType)
			}
			r.NodeType = &t
			if err := sys.AddRegion(r); err != nil {
				return nil, errors.Wrapf(err, "system %s", s.Name)
			}
		}
		for _, spec := range s.Edges {
			r, err := spec.region(city.BaseLayer, citynet.EdgeKind, citynet.PolygonAdjacent)
			if err != nil {
				return nil, err
			}
			t, ok := edgeTypes[spec.EdgeType]
			if !ok {
				return nil, errors.Wrapf(citynet.ErrInvalidRegion, "system %s region %s: unknown edge type %q", s.Name, spec.ID, spec.EdgeType)
			}
			r.EdgeType = &t
			if err := sys.AddRegion(r); err != nil {
				return nil, errors.Wrapf(err, "system %s", s.Name)
			}
		}
	}

	return city, nil
}

// region converts a region, filling in the layer & shape if unset
func (spec Region) region(base citynet.Layer, kind citynet.RegionKind, shape citynet.Shape) (*citynet.Region, error) {
	l, err := coords.Parse(spec.X, spec.Y)
	if err != nil {
		return nil, errors.Wrapf(err, "region %s", spec.ID)
	}
	r := &citynet.Region{
		ID:          spec.ID,
		Description: spec.Description,
		Coords:      l,
		Layer:       base,
		Kind:        kind,
		Shape:       spec.Shape,
	}
	if spec.Layer != nil {
		r.Layer = *spec.Layer
	}
	if r.Shape == "" {
		r.Shape = shape
	}
	return r, nil
}

// FromCity describes a city as a file. Regions on the base layer are written
// without a layer.
func FromCity(c *citynet.City) *File {
	f := &File{
		Name:     c.Name,
		Unit:     c.Unit,
		Rotation: c.Rotation.Degrees(),
	}
	if c.Anchor != (s2.LatLng{}) {
		f.Anchor = &Anchor{Lat: c.Anchor.Lat.Degrees(), Lng: c.Anchor.Lng.Degrees()}
	}
	f.Footprint = toCoords(c.Footprint())

	for _, r := range c.CellRegions() {
		f.Cells = append(f.Cells, fromRegion(c.BaseLayer, r))
	}

	for _, sys := range c.Systems() {
		s := SystemSpec{Name: sys.Name, Kind: sys.Kind}
		seenNodes := map[string]bool{}
		seenEdges := map[string]bool{}
		for _, r := range sys.Regions() {
			out := fromRegion(c.BaseLayer, r)
			switch r.Kind {
			case citynet.NodeKind:
				out.NodeType = r.NodeType.Name
				if !seenNodes[r.NodeType.Name] {
					seenNodes[r.NodeType.Name] = true
					s.NodeTypes = append(s.NodeTypes, *r.NodeType)
				}
				s.Nodes = append(s.Nodes, out)
			case citynet.EdgeKind:
				out.EdgeType = r.EdgeType.Name
				if !seenEdges[r.EdgeType.Name] {
					seenEdges[r.EdgeType.Name] = true
					s.EdgeTypes = append(s.EdgeTypes, *r.EdgeType)
				}
				s.Edges = append(s.Edges, out)
			}
		}
		f.Systems = append(f.Systems, s)
	}
	return f
}

func fromRegion(base citynet.Layer, r *citynet.Region) Region {
	out := Region{
		ID:          r.ID,
		Description: r.Description,
		Shape:       r.Shape,
		Coords:      toCoords(r.Coords),
	}
	if r.Layer != base {
		l := r.Layer
		out.Layer = &l
	}
	return out
}

func toCoords(l *coords.List) Coords {
	x, y := l.Format()
	return Coords{X: x, Y: y}
}
