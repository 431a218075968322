package citynet

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/voidshard/citynet/internal/geometry"
)

// link is a would-be edge between two nodes
type link struct {
	from, to *Node
}

// edgeLinks works out which pairs of nodes an edge region links. Nodes are
// the system's networked nodes on the region's layer, in creation order.
//
// Returned links never loop & never repeat (for undirected types a->b & b->a
// are the same link). Per point problems (POLYPOINT points with no node)
// come back as warnings; the pairs using those points are skipped.
func (e *Engine) edgeLinks(lp *layerPartition, r *Region, nodes []*Node) ([]link, []error) {
	var raw []link
	warnings := []error{}

	switch r.Shape {
	case PolygonAdjacent, PolygonOrthogonal:
		inside := nodesInside(nodes, geometry.NewPolygon(r.ring()))
		orthogonal := r.Shape == PolygonOrthogonal
		for i := 0; i < len(inside); i++ {
			for j := i + 1; j < len(inside); j++ {
				a, b := inside[i], inside[j]
				if a.Cell.Index == b.Cell.Index {
					continue
				}
				if lp.p.IsAdjacent(a.Cell.Index, b.Cell.Index, orthogonal, e.cfg.workers()) {
					raw = append(raw, link{a, b})
				}
			}
		}
	case PolygonConnected:
		raw = e.spanningLinks(lp, nodesInside(nodes, geometry.NewPolygon(r.ring())))
	case Polyline:
		raw = chainAlong(lp, r.Coords.Points(), nodes)
	case Polypoint:
		var resolved []*Node
		resolved, warnings = resolvePoints(lp, r, nodes)
		for k := 0; k+1 < len(resolved); k++ {
			if resolved[k] != nil && resolved[k+1] != nil {
				raw = append(raw, link{resolved[k], resolved[k+1]})
			}
		}
	}

	seen := map[edgeKey]bool{}
	out := []link{}
	for _, l := range raw {
		if l.from.ID == l.to.ID {
			continue
		}
		k := keyOfEdge(*r.EdgeType, l.from.ID, l.to.ID)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out, warnings
}

// nodesInside returns the nodes whose cell centroid is inside the polygon
func nodesInside(nodes []*Node, poly geometry.Polygon) []*Node {
	out := []*Node{}
	for _, n := range nodes {
		if geometry.PointInPolygon(n.Position, poly) {
			out = append(out, n)
		}
	}
	return out
}

// spanningLinks returns a minimum spanning forest over the nodes, where two
// nodes may only be linked if they share a cell or their cells neighbour.
// Each cluster of touching cells ends up connected; separate clusters are
// not joined.
func (e *Engine) spanningLinks(lp *layerPartition, nodes []*Node) []link {
	type candidate struct {
		i, j int
		dist float64
	}

	cands := []candidate{}
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i].Cell.Index, nodes[j].Cell.Index
			if a != b && !lp.p.IsAdjacent(a, b, false, e.cfg.workers()) {
				continue
			}
			cands = append(cands, candidate{i, j, geometry.Distance(nodes[i].Position, nodes[j].Position)})
		}
	}
	sort.SliceStable(cands, func(x, y int) bool { return cands[x].dist < cands[y].dist })

	// kruskal
	uf := newUnionFind(len(nodes))
	out := []link{}
	for _, c := range cands {
		if uf.union(c.i, c.j) {
			out = append(out, link{nodes[c.i], nodes[c.j]})
		}
	}
	return out
}

// chainAlong orders the nodes whose cells the path passes through by how far
// along the path they are & links each to the next.
func chainAlong(lp *layerPartition, path []r2.Point, nodes []*Node) []link {
	crossed := map[int]bool{}
	for _, i := range lp.p.Crossed(path) {
		crossed[i] = true
	}

	type along struct {
		n *Node
		t float64
	}
	on := []along{}
	for _, n := range nodes {
		if crossed[n.Cell.Index] {
			on = append(on, along{n, geometry.Project(path, n.Position)})
		}
	}
	sort.SliceStable(on, func(i, j int) bool { return on[i].t < on[j].t })

	out := []link{}
	for i := 0; i+1 < len(on); i++ {
		out = append(out, link{on[i].n, on[i+1].n})
	}
	return out
}

// resolvePoints finds, for each point, the first node in the cell containing
// it. Points without one are nil & reported as ReferenceErrors.
func resolvePoints(lp *layerPartition, r *Region, nodes []*Node) ([]*Node, []error) {
	pts := r.Coords.Points()
	out := make([]*Node, len(pts))
	warnings := []error{}

	for idx, pt := range pts {
		if cell, ok := lp.p.Locate(pt); ok {
			for _, n := range nodes {
				if n.Cell.Index == cell {
					out[idx] = n
					break
				}
			}
		}
		if out[idx] == nil {
			warnings = append(warnings, &ReferenceError{Region: r.ID, Index: idx, Point: pt})
		}
	}
	return out, warnings
}

// unionFind is a disjoint set over 0..n-1
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union joins the sets holding a & b, returning false if they were already one set
func (u *unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
	return true
}

// networkedOn returns the graph's networked nodes on the layer, which are
// the only ones edges attach to
func networkedOn(g *graph, lp *layerPartition, l Layer) []*Node {
	out := []*Node{}
	for _, n := range g.nodesOn(l.Height) {
		if n.Type.Networked && n.Cell.Height == lp.layer.Height {
			out = append(out, n)
		}
	}
	return out
}

// SynthesizeEdges returns the edges the region would produce against the
// system's installed nodes, without installing anything. Outside of the
// scope's layer this is always empty.
//
// If some POLYPOINT points resolve to no node the edges for the other pairs
// are returned along with an error matching ErrReference.
func (e *Engine) SynthesizeEdges(scope Scope, sys *System, id string) ([]Edge, error) {
	r, ok := sys.Region(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRegion, "region %s", id)
	}
	if r.Kind != EdgeKind {
		return nil, errors.Wrapf(ErrInvalidRegion, "region %s is a %s region", id, r.Kind)
	}
	if !scope.Filter.Allows(r.Layer) {
		return []Edge{}, nil
	}

	lp, err := scope.City.resolve(r.Layer)
	if err != nil {
		return nil, err
	}

	sys.mu.RLock()
	nodes := networkedOn(sys.g, lp, r.Layer)
	links, warnings := e.edgeLinks(lp, r, nodes)
	sys.mu.RUnlock()

	out := make([]Edge, len(links))
	for i, l := range links {
		out[i] = Edge{
			ID:      uuid.NewString(),
			Type:    *r.EdgeType,
			From:    l.from.ID,
			To:      l.to.ID,
			Layer:   r.Layer,
			Sources: []string{r.ID},
		}
	}
	return out, joinWarnings(warnings)
}
