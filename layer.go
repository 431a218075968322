package citynet

// MatchesLayer returns if the layer sits at the given height. Heights are
// discrete user chosen levels so this is an exact comparison.
func MatchesLayer(l Layer, height float64) bool {
	return l.Height == height
}

// LayerFilter restricts an operation to a single layer. The zero value
// matches everything.
type LayerFilter struct {
	Active bool
	Height float64
}

// OnLayer returns an active filter for the given height.
func OnLayer(height float64) LayerFilter {
	return LayerFilter{Active: true, Height: height}
}

// Allows returns if the filter lets the given layer through.
func (f LayerFilter) Allows(l Layer) bool {
	return !f.Active || MatchesLayer(l, f.Height)
}

// Scope is what every engine operation works on: a city & optionally a
// single layer of it.
type Scope struct {
	City   *City
	Filter LayerFilter
}
