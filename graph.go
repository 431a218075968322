package citynet

import (
	"github.com/google/uuid"
)

// nodeKey identifies the single node a type may have in a cell on a layer
type nodeKey struct {
	layer float64
	cell  CellKey
	typ   string
}

// edgeKey identifies an edge; undirected edges store their ends sorted
type edgeKey struct {
	typ      string
	from, to string
}

// graph is a system's nodes & edges. Regeneration always works on a clone
// so the installed graph is never seen half built.
type graph struct {
	nodes []*Node
	edges []*Edge

	nodeIdx map[nodeKey]*Node
	edgeIdx map[edgeKey]*Edge
}

// newGraph returns an empty graph
func newGraph() *graph {
	return &graph{
		nodes:   []*Node{},
		edges:   []*Edge{},
		nodeIdx: map[nodeKey]*Node{},
		edgeIdx: map[edgeKey]*Edge{},
	}
}

// clone returns a deep copy
func (g *graph) clone() *graph {
	out := newGraph()
	for _, n := range g.nodes {
		cp := *n
		cp.Sources = append([]string{}, n.Sources...)
		out.putNode(&cp)
	}
	for _, e := range g.edges {
		cp := *e
		cp.Sources = append([]string{}, e.Sources...)
		out.putEdge(&cp)
	}
	return out
}

func keyOfNode(n *Node) nodeKey {
	return nodeKey{layer: n.Layer.Height, cell: n.Cell, typ: n.Type.Name}
}

func keyOfEdge(t EdgeType, from, to string) edgeKey {
	if !t.Directed && to < from {
		from, to = to, from
	}
	return edgeKey{typ: t.Name, from: from, to: to}
}

func (g *graph) putNode(n *Node) {
	g.nodes = append(g.nodes, n)
	g.nodeIdx[keyOfNode(n)] = n
}

func (g *graph) putEdge(e *Edge) {
	g.edges = append(g.edges, e)
	g.edgeIdx[keyOfEdge(e.Type, e.From, e.To)] = e
}

// addNode places a node of the given type in the cell on behalf of the
// region. If the cell already holds a node of that type the region is added
// to its sources instead.
func (g *graph) addNode(region string, t NodeType, layer Layer, cell Cell) *Node {
	k := nodeKey{layer: layer.Height, cell: cell.Key, typ: t.Name}
	if n, ok := g.nodeIdx[k]; ok {
		n.Sources = addSource(n.Sources, region)
		return n
	}
	n := &Node{
		ID:       uuid.NewString(),
		Type:     t,
		Cell:     cell.Key,
		Position: cell.Centroid,
		Layer:    layer,
		Sources:  []string{region},
	}
	g.putNode(n)
	return n
}

// addEdge links two nodes on behalf of the region. Self loops are ignored.
func (g *graph) addEdge(region string, t EdgeType, layer Layer, from, to string) *Edge {
	if from == to {
		return nil
	}
	k := keyOfEdge(t, from, to)
	if e, ok := g.edgeIdx[k]; ok {
		e.Sources = addSource(e.Sources, region)
		return e
	}
	e := &Edge{
		ID:      uuid.NewString(),
		Type:    t,
		From:    from,
		To:      to,
		Layer:   layer,
		Sources: []string{region},
	}
	g.putEdge(e)
	return e
}

// dropSource removes the region from every node & edge it produced. Anything
// left with no source is deleted, as is any edge whose end was deleted.
// Returns if any node was deleted.
func (g *graph) dropSource(region string) bool {
	removedNode := false

	nodes := g.nodes[:0]
	for _, n := range g.nodes {
		n.Sources = removeSource(n.Sources, region)
		if len(n.Sources) == 0 {
			delete(g.nodeIdx, keyOfNode(n))
			removedNode = true
			continue
		}
		nodes = append(nodes, n)
	}
	g.nodes = nodes

	alive := map[string]bool{}
	for _, n := range g.nodes {
		alive[n.ID] = true
	}

	edges := g.edges[:0]
	for _, e := range g.edges {
		e.Sources = removeSource(e.Sources, region)
		if len(e.Sources) == 0 || !alive[e.From] || !alive[e.To] {
			delete(g.edgeIdx, keyOfEdge(e.Type, e.From, e.To))
			continue
		}
		edges = append(edges, e)
	}
	g.edges = edges

	return removedNode
}

// nodesOn returns the nodes on the layer at the given height, in the order
// they were created.
func (g *graph) nodesOn(height float64) []*Node {
	out := []*Node{}
	for _, n := range g.nodes {
		if MatchesLayer(n.Layer, height) {
			out = append(out, n)
		}
	}
	return out
}

// addSource appends id if it isn't already present
func addSource(in []string, id string) []string {
	for _, s := range in {
		if s == id {
			return in
		}
	}
	return append(in, id)
}

// removeSource returns in without id
func removeSource(in []string, id string) []string {
	out := in[:0]
	for _, s := range in {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
