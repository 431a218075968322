package citynet

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/citynet/coords"
)

var (
	surface = Layer{Name: "surface", Height: 0}
	tunnels = Layer{Name: "tunnels", Height: -1}

	junction = NodeType{Name: "junction", Color: "dimgray", Networked: true}
	lamp     = NodeType{Name: "lamp", Color: "gold", Networked: true}
	road     = EdgeType{Name: "road", Color: "black"}
	oneway   = EdgeType{Name: "oneway", Color: "red", Directed: true}
)

func testEngine(cfg *Config) *Engine {
	return New(cfg, WithLogger(log.NewWithOptions(io.Discard, log.Options{})))
}

func points(pts ...float64) *coords.List {
	l := &coords.List{}
	for i := 0; i+1 < len(pts); i += 2 {
		l.Append(r2.Point{X: pts[i], Y: pts[i+1]})
	}
	return l
}

// gridCity returns a cols x rows city of unit cells on the surface layer,
// already partitioned.
func gridCity(t *testing.T, e *Engine, cols, rows int) *City {
	t.Helper()

	c, err := e.NewCity("test", rectangle(0, 0, float64(cols), float64(rows)))
	require.NoError(t, err)

	regions, err := GridCellRegions(r2.RectFromPoints(r2.Point{}, r2.Point{X: float64(cols), Y: float64(rows)}), cols, rows, surface)
	require.NoError(t, err)
	for _, r := range regions {
		require.NoError(t, c.AddCellRegion(r))
	}

	_, err = e.PartitionCells(Scope{City: c})
	require.NoError(t, err)
	return c
}

func nodeRegion(id string, shape Shape, l *coords.List, t NodeType) *Region {
	nt := t
	return &Region{ID: id, Coords: l, Layer: surface, Kind: NodeKind, Shape: shape, NodeType: &nt}
}

func edgeRegion(id string, shape Shape, l *coords.List, t EdgeType) *Region {
	et := t
	return &Region{ID: id, Coords: l, Layer: surface, Kind: EdgeKind, Shape: shape, EdgeType: &et}
}

// cellsOf returns the cell index of each node, in node order
func cellsOf(nodes []Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Cell.Index
	}
	return out
}

// cellPairs returns each edge as the (sorted) pair of cell indexes it joins
func cellPairs(sys *System) map[[2]int]bool {
	where := map[string]int{}
	for _, n := range sys.Nodes() {
		where[n.ID] = n.Cell.Index
	}
	out := map[[2]int]bool{}
	for _, e := range sys.Edges() {
		a, b := where[e.From], where[e.To]
		if b < a {
			a, b = b, a
		}
		out[[2]int{a, b}] = true
	}
	return out
}

func regenerate(t *testing.T, e *Engine, c *City, sys *System, ids ...string) *Result {
	t.Helper()
	var res *Result
	for _, id := range ids {
		var err error
		res, err = e.Regenerate(Scope{City: c}, sys, id)
		require.NoError(t, err)
	}
	return res
}
