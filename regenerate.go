package citynet

import (
	"time"

	"github.com/pkg/errors"
)

// pass is one regeneration run over a working copy of a system's graph.
// Nothing it does is visible until the graph is installed.
type pass struct {
	e    *Engine
	city *City
	sys  *System
	g    *graph

	res    *Result
	states map[string]RegionState // new states, applied on install
}

// newPass starts a pass over the given working graph
func (e *Engine) newPass(city *City, sys *System, g *graph) *pass {
	return &pass{
		e:      e,
		city:   city,
		sys:    sys,
		g:      g,
		res:    &Result{Regenerated: []string{}, Skipped: []string{}},
		states: map[string]RegionState{},
	}
}

// node regenerates a node region: whatever it made before is dropped & its
// nodes are placed afresh. Edges to nodes that vanished go with them.
func (p *pass) node(r *Region) error {
	start := time.Now()

	lp, err := p.city.resolve(r.Layer)
	if err != nil {
		return errors.Wrapf(err, "region %s", r.ID)
	}
	cells, warnings, err := p.e.nodeCells(lp, r)
	if err != nil {
		return errors.Wrapf(err, "regenerating region %s", r.ID)
	}

	p.g.dropSource(r.ID)
	for _, i := range cells {
		p.g.addNode(r.ID, *r.NodeType, r.Layer, lp.cell(i))
	}

	p.done(r, len(cells), warnings, start)
	return nil
}

// edge regenerates an edge region against the nodes currently in the
// working graph.
func (p *pass) edge(r *Region) error {
	start := time.Now()

	lp, err := p.city.resolve(r.Layer)
	if err != nil {
		return errors.Wrapf(err, "region %s", r.ID)
	}

	p.g.dropSource(r.ID)
	links, warnings := p.e.edgeLinks(lp, r, networkedOn(p.g, lp, r.Layer))
	for _, l := range links {
		p.g.addEdge(r.ID, *r.EdgeType, r.Layer, l.from.ID, l.to.ID)
	}

	p.done(r, len(links), warnings, start)
	return nil
}

// cascade regenerates every synthesized edge region on the layer, in
// declaration order. Edge regions hold onto node IDs so any change to the
// nodes of a layer leaves them stale.
func (p *pass) cascade(regions []*Region, l Layer) error {
	for _, r := range regions {
		if r.Kind != EdgeKind || !MatchesLayer(r.Layer, l.Height) {
			continue
		}
		if st, _ := p.sys.State(r.ID); st != Synthesized {
			continue
		}
		if err := p.edge(r); err != nil {
			return err
		}
	}
	return nil
}

// done records a region as synthesized
func (p *pass) done(r *Region, made int, warnings []error, start time.Time) {
	p.states[r.ID] = Synthesized
	p.res.Regenerated = append(p.res.Regenerated, r.ID)
	p.res.warn(warnings...)

	p.e.log.Debug("regenerated region",
		"system", p.sys.Name, "region", r.ID, "kind", r.Kind, "shape", r.Shape,
		"made", made, "warnings", len(warnings), "elapsed", time.Since(start),
	)
	for _, w := range warnings {
		p.e.log.Warn("partial synthesis", "system", p.sys.Name, "region", r.ID, "err", w)
	}
}

// install swaps the pass's graph into the system & fills in the totals
func (p *pass) install(remove string) *Result {
	p.sys.install(p.g, p.states, remove)
	p.res.Nodes, p.res.Edges = p.sys.counts()
	return p.res
}

// Regenerate re-synthesizes a single region of the system & installs the
// result. Regenerating a node region also regenerates every edge region of
// the system on the same layer.
//
// Regeneration is all or nothing: on error the system's nodes, edges &
// region states are exactly as they were. A region not on the scope's
// layer is left alone & reported in Result.Skipped.
func (e *Engine) Regenerate(scope Scope, sys *System, id string) (*Result, error) {
	sys.regen.Lock()
	defer sys.regen.Unlock()

	g, regions := sys.working()
	var r *Region
	for _, have := range regions {
		if have.ID == id {
			r = have
			break
		}
	}
	if r == nil {
		return nil, errors.Wrapf(ErrUnknownRegion, "region %s", id)
	}

	p := e.newPass(scope.City, sys, g)
	if !scope.Filter.Allows(r.Layer) {
		p.res.Skipped = append(p.res.Skipped, id)
		p.res.Nodes, p.res.Edges = sys.counts()
		return p.res, nil
	}

	prev := sys.setStates([]string{id}, Regenerating)

	var err error
	if r.Kind == NodeKind {
		err = p.node(r)
		if err == nil {
			err = p.cascade(regions, r.Layer)
		}
	} else {
		err = p.edge(r)
	}
	if err != nil {
		sys.restoreStates(prev)
		return nil, err
	}

	return p.install(""), nil
}

// RegenerateSystem re-synthesizes every region of the system in scope: node
// regions first, then edge regions, each in declaration order. The result
// is installed once at the end, all or nothing.
func (e *Engine) RegenerateSystem(scope Scope, sys *System) (*Result, error) {
	sys.regen.Lock()
	defer sys.regen.Unlock()

	g, regions := sys.working()
	p := e.newPass(scope.City, sys, g)

	ids := []string{}
	for _, r := range regions {
		if scope.Filter.Allows(r.Layer) {
			ids = append(ids, r.ID)
		} else {
			p.res.Skipped = append(p.res.Skipped, r.ID)
		}
	}
	prev := sys.setStates(ids, Regenerating)

	for _, kind := range []RegionKind{NodeKind, EdgeKind} {
		for _, r := range regions {
			if r.Kind != kind || !scope.Filter.Allows(r.Layer) {
				continue
			}
			var err error
			if kind == NodeKind {
				err = p.node(r)
			} else {
				err = p.edge(r)
			}
			if err != nil {
				sys.restoreStates(prev)
				return nil, err
			}
		}
	}

	return p.install(""), nil
}

// DeleteRegion removes a region from the system along with everything only
// it produced. Deleting a node region regenerates the edge regions on its
// layer, as with Regenerate.
func (e *Engine) DeleteRegion(scope Scope, sys *System, id string) (*Result, error) {
	sys.regen.Lock()
	defer sys.regen.Unlock()

	g, regions := sys.working()
	var r *Region
	rest := []*Region{}
	for _, have := range regions {
		if have.ID == id {
			r = have
		} else {
			rest = append(rest, have)
		}
	}
	if r == nil {
		return nil, errors.Wrapf(ErrUnknownRegion, "region %s", id)
	}

	p := e.newPass(scope.City, sys, g)
	removedNodes := p.g.dropSource(id)

	if r.Kind == NodeKind && removedNodes {
		if err := p.cascade(rest, r.Layer); err != nil {
			return nil, err
		}
	}

	e.log.Debug("deleted region", "system", sys.Name, "region", id)
	return p.install(id), nil
}
