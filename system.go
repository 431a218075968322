package citynet

import (
	"sync"

	"github.com/pkg/errors"
)

// System is one network (roads, power ..) laid over a city. It owns its
// node & edge regions along with the nodes & edges they produced.
//
// Regeneration is serialised per system; readers always get copies of the
// last installed graph.
type System struct {
	Name string
	Kind SystemKind

	city *City

	// held for the whole of a regeneration & while regions change
	regen sync.Mutex

	// guards everything below
	mu      sync.RWMutex
	regions []*Region
	states  map[string]RegionState
	g       *graph
}

// newSystem returns an empty system
func newSystem(c *City, name string, kind SystemKind) *System {
	return &System{
		Name:    name,
		Kind:    kind,
		city:    c,
		regions: []*Region{},
		states:  map[string]RegionState{},
		g:       newGraph(),
	}
}

// City returns the city this system belongs to.
func (s *System) City() *City {
	return s.city
}

// AddRegion adds a node or edge region in the Stale state. Nothing is
// synthesized until the region is regenerated.
func (s *System) AddRegion(r *Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Kind != NodeKind && r.Kind != EdgeKind {
		return errors.Wrapf(ErrInvalidRegion, "region %s: systems hold node & edge regions, got %s", r.ID, r.Kind)
	}

	s.regen.Lock()
	defer s.regen.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[r.ID]; ok {
		return errors.Wrapf(ErrDuplicateRegion, "region %s", r.ID)
	}
	s.regions = append(s.regions, r.clone())
	s.states[r.ID] = Stale
	return nil
}

// UpdateRegion replaces the region with the same ID, keeping its place in
// the declaration order. The region becomes Stale; whatever it produced
// stays until it is regenerated or the cells under it are rebuilt.
//
// Waits for any regeneration of the system in progress.
func (s *System) UpdateRegion(r *Region) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.regen.Lock()
	defer s.regen.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, have := range s.regions {
		if have.ID != r.ID {
			continue
		}
		if have.Kind != r.Kind {
			return errors.Wrapf(ErrInvalidRegion, "region %s: cannot change kind from %s to %s", r.ID, have.Kind, r.Kind)
		}
		s.regions[i] = r.clone()
		s.states[r.ID] = Stale
		return nil
	}
	return errors.Wrapf(ErrUnknownRegion, "region %s", r.ID)
}

// Region returns a copy of the region with the given ID.
func (s *System) Region(id string) (*Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.region(id)
	if r == nil {
		return nil, false
	}
	return r.clone(), true
}

// region returns the held region (caller holds mu)
func (s *System) region(id string) *Region {
	for _, r := range s.regions {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Regions returns copies of the regions in declaration order.
func (s *System) Regions(filter ...LayerFilter) []*Region {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Region{}
	for _, r := range s.regions {
		if allows(filter, r.Layer) {
			out = append(out, r.clone())
		}
	}
	return out
}

// State returns the regeneration state of a region.
func (s *System) State(id string) (RegionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	return st, ok
}

// Nodes returns a snapshot of the system's nodes in creation order.
func (s *System) Nodes(filter ...LayerFilter) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Node{}
	for _, n := range s.g.nodes {
		if !allows(filter, n.Layer) {
			continue
		}
		cp := *n
		cp.Sources = append([]string{}, n.Sources...)
		out = append(out, cp)
	}
	return out
}

// Node returns the node with the given ID.
func (s *System) Node(id string) (Node, bool) {
	for _, n := range s.Nodes() {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edges returns a snapshot of the system's edges in creation order.
func (s *System) Edges(filter ...LayerFilter) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Edge{}
	for _, e := range s.g.edges {
		if !allows(filter, e.Layer) {
			continue
		}
		cp := *e
		cp.Sources = append([]string{}, e.Sources...)
		out = append(out, cp)
	}
	return out
}

// working returns a copy of the installed graph & regions to build on
// (caller holds regen).
func (s *System) working() (*graph, []*Region) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regions := make([]*Region, len(s.regions))
	for i, r := range s.regions {
		regions[i] = r.clone()
	}
	return s.g.clone(), regions
}

// setStates sets the state of each given region, returning the old states
func (s *System) setStates(ids []string, st RegionState) map[string]RegionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := map[string]RegionState{}
	for _, id := range ids {
		if old, ok := s.states[id]; ok {
			prev[id] = old
			s.states[id] = st
		}
	}
	return prev
}

// restoreStates puts back states returned by setStates
func (s *System) restoreStates(prev map[string]RegionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range prev {
		if _, ok := s.states[id]; ok {
			s.states[id] = st
		}
	}
}

// install swaps in a new graph & region states in one go.
func (s *System) install(g *graph, states map[string]RegionState, remove string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.g = g
	for id, st := range states {
		if _, ok := s.states[id]; ok {
			s.states[id] = st
		}
	}

	if remove == "" {
		return
	}
	for i, r := range s.regions {
		if r.ID == remove {
			s.regions = append(s.regions[:i], s.regions[i+1:]...)
			break
		}
	}
	delete(s.states, remove)
}

// counts returns the number of nodes & edges installed
func (s *System) counts() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.g.nodes), len(s.g.edges)
}
