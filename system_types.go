package citynet

import (
	"image/color"
	"sort"

	"golang.org/x/image/colornames"
)

// SystemKind indicates roughly what a given system carries. Kinds are free
// strings so callers can add their own, those below are just the ones we
// know how to colour.
type SystemKind string

const (
	Building       SystemKind = "building"       // houses, offices, anything with a footprint
	Transportation SystemKind = "transportation" // roads, rail, footpaths
	Energy         SystemKind = "energy"         // power lines, substations
	Waste          SystemKind = "waste"          // sewers, treatment, collection points
	Water          SystemKind = "water"          // mains, pumping stations, reservoirs
	Undefined      SystemKind = "undefined"      // nothing in particular
)

var (
	// default colours by system kind, used when a node / edge type has none.
	kindColours = map[SystemKind]color.RGBA{
		Building:       colornames.Slategray,
		Transportation: colornames.Dimgray,
		Energy:         colornames.Gold,
		Waste:          colornames.Saddlebrown,
		Water:          colornames.Steelblue,
		Undefined:      colornames.Black,
	}
)

// AllSystemKinds returns the known system kinds, sorted by name.
func AllSystemKinds() []SystemKind {
	out := make([]SystemKind, 0, len(kindColours))
	for k := range kindColours {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Colour returns the default colour of this kind (black if we don't know it).
func (k SystemKind) Colour() color.RGBA {
	c, ok := kindColours[k]
	if !ok {
		return colornames.Black
	}
	return c
}
