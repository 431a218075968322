package citynet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/citynet/coords"
)

func TestPartitionWholeFootprint(t *testing.T) {
	e := testEngine(nil)

	fp, err := coords.Parse("[0 1 1 0]", "[0 0 1 1]")
	require.NoError(t, err)
	c, err := e.NewCity("square", fp)
	require.NoError(t, err)
	require.NoError(t, c.AddCellRegion(&Region{ID: "all", Coords: fp, Layer: surface, Kind: CellKind, Shape: Polygon}))

	cells, err := e.PartitionCells(Scope{City: c})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "all", cells[0].Region)
	assert.InDelta(t, 1, cells[0].Area, 1e-9)
	assert.Equal(t, CellKey{Height: 0, Index: 0}, cells[0].Key)
}

func TestPartitionNoCellRegions(t *testing.T) {
	e := testEngine(nil)
	c, err := e.NewCity("empty", rectangle(0, 0, 3, 2))
	require.NoError(t, err)

	_, err = e.SynthesizeNodes(Scope{City: c}, c.NewSystem("x", Water), "nope")
	assert.True(t, errors.Is(err, ErrUnknownRegion))

	cells, err := e.PartitionCells(Scope{City: c})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "", cells[0].Region)
	assert.InDelta(t, 6, cells[0].Area, 1e-9)
}

func TestPartitionCoversFootprint(t *testing.T) {
	e := testEngine(nil)
	c, err := e.NewCity("overlaps", rectangle(0, 0, 10, 10))
	require.NoError(t, err)

	require.NoError(t, c.AddCellRegion(&Region{ID: "a", Coords: rectangle(-5, -5, 6, 6), Layer: surface, Kind: CellKind, Shape: Polygon}))
	require.NoError(t, c.AddCellRegion(&Region{ID: "b", Coords: rectangle(4, 4, 8, 12), Layer: surface, Kind: CellKind, Shape: Polygon}))
	require.NoError(t, c.AddCellRegion(&Region{ID: "c", Coords: points(5, 0, 10, 0, 10, 5), Layer: surface, Kind: CellKind, Shape: Polygon}))

	cells, err := e.PartitionCells(Scope{City: c})
	require.NoError(t, err)

	total := 0.0
	byRegion := map[string]float64{}
	for _, cell := range cells {
		total += cell.Area
		byRegion[cell.Region] += cell.Area
	}
	assert.InDelta(t, 100, total, 1e-6)
	assert.InDelta(t, 24, byRegion["b"], 1e-6, "b keeps all of itself inside the footprint")
	assert.InDelta(t, 12.5, byRegion["c"], 1e-6)
	assert.InDelta(t, 36-4-0.5, byRegion["a"], 1e-6, "a loses what b & c claim")
}

func TestNodesPolygonLeftHalf(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 2, 1)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("left", Polygon, rectangle(0, 0, 1, 1), junction)))

	preview, err := e.SynthesizeNodes(Scope{City: c}, sys, "left")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, cellsOf(preview))
	assert.Empty(t, sys.Nodes(), "previews install nothing")

	res := regenerate(t, e, c, sys, "left")
	assert.Equal(t, 1, res.Nodes)

	nodes := sys.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, CellKey{Height: 0, Index: 0}, nodes[0].Cell)
	assert.InDelta(t, 0.5, nodes[0].Position.X, 1e-9)
	assert.Equal(t, []string{"left"}, nodes[0].Sources)

	st, _ := sys.State("left")
	assert.Equal(t, Synthesized, st)
}

func TestNodesPolyline(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 3, 3)
	sys := c.NewSystem("power", Energy)

	// runs through the bottom row & up the right column
	require.NoError(t, sys.AddRegion(nodeRegion("line", Polyline, points(0.5, 0.5, 2.5, 0.5, 2.5, 2.5), junction)))
	regenerate(t, e, c, sys, "line")

	assert.ElementsMatch(t, []int{0, 1, 2, 5, 8}, cellsOf(sys.Nodes()))
}

func TestNodesPolypointOutOfBounds(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 2, 1)
	sys := c.NewSystem("water", Water)

	require.NoError(t, sys.AddRegion(nodeRegion("pumps", Polypoint, points(1.5, 0.5, 9, 9, 1.6, 0.4), junction)))

	res := regenerate(t, e, c, sys, "pumps")
	require.NotNil(t, res.Warnings)
	assert.Equal(t, 1, res.Warnings.Len())
	assert.True(t, errors.Is(res.Warnings, ErrOutOfBounds))

	var oob *OutOfBoundsError
	require.True(t, errors.As(res.Warnings, &oob))
	assert.Equal(t, 1, oob.Index)

	assert.Equal(t, []int{1}, cellsOf(sys.Nodes()), "two points in one cell make one node")

	t.Run("Strict", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strict = true
		strict := testEngine(cfg)

		nodes, err := strict.SynthesizeNodes(Scope{City: c}, sys, "pumps")
		assert.Nil(t, nodes)
		assert.True(t, errors.Is(err, ErrOutOfBounds))

		before := sys.Nodes()
		_, err = strict.Regenerate(Scope{City: c}, sys, "pumps")
		assert.True(t, errors.Is(err, ErrOutOfBounds))
		assert.Equal(t, before, sys.Nodes(), "failed regeneration keeps the old nodes")
	})
}

func TestNodesDedupePerType(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 3, 1)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("a", Polygon, rectangle(0, 0, 2, 1), junction)))
	require.NoError(t, sys.AddRegion(nodeRegion("b", Polygon, rectangle(1, 0, 3, 1), junction)))
	require.NoError(t, sys.AddRegion(nodeRegion("c", Polygon, rectangle(1, 0, 2, 1), lamp)))
	regenerate(t, e, c, sys, "a", "b", "c", "b")

	nodes := sys.Nodes()
	require.Len(t, nodes, 4)

	perCell := map[int][]string{}
	for _, n := range nodes {
		perCell[n.Cell.Index] = append(perCell[n.Cell.Index], n.Type.Name)
		if n.Cell.Index == 1 && n.Type.Name == "junction" {
			assert.ElementsMatch(t, []string{"a", "b"}, n.Sources)
		}
	}
	assert.Equal(t, []string{"junction"}, perCell[0])
	assert.ElementsMatch(t, []string{"junction", "lamp"}, perCell[1])
	assert.Equal(t, []string{"junction"}, perCell[2])

	// dropping a leaves the shared node to b
	_, err := e.DeleteRegion(Scope{City: c}, sys, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 1, 2}, cellsOf(sys.Nodes()))
}

func TestEdgesAdjacentPair(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 2, 1)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("both", Polygon, rectangle(0, 0, 2, 1), junction)))
	require.NoError(t, sys.AddRegion(edgeRegion("link", PolygonAdjacent, rectangle(0, 0, 2, 1), road)))
	res := regenerate(t, e, c, sys, "both", "link")
	assert.Equal(t, 2, res.Nodes)
	assert.Equal(t, 1, res.Edges)

	assert.Equal(t, map[[2]int]bool{{0, 1}: true}, cellPairs(sys))
}

func TestEdgesPolylineChain(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 3, 1)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("all", Polygon, rectangle(0, 0, 3, 1), junction)))
	// drawn right to left, so order comes from the path & not the cells
	require.NoError(t, sys.AddRegion(edgeRegion("street", Polyline, points(2.9, 0.5, 0.1, 0.5), oneway)))
	regenerate(t, e, c, sys, "all", "street")

	edges := sys.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, map[[2]int]bool{{0, 1}: true, {1, 2}: true}, cellPairs(sys))

	where := map[string]int{}
	for _, n := range sys.Nodes() {
		where[n.ID] = n.Cell.Index
	}
	assert.Equal(t, 2, where[edges[0].From])
	assert.Equal(t, 1, where[edges[0].To])
	assert.Equal(t, 1, where[edges[1].From])
	assert.Equal(t, 0, where[edges[1].To])
}

func TestEdgesOrthogonalExcludesSlanted(t *testing.T) {
	e := testEngine(nil)
	c, err := e.NewCity("slant", rectangle(0, 0, 2, 1))
	require.NoError(t, err)
	require.NoError(t, c.AddCellRegion(&Region{
		ID: "left", Coords: points(0, 0, 0.8, 0, 1.2, 1, 0, 1), Layer: surface, Kind: CellKind, Shape: Polygon,
	}))
	cells, err := e.PartitionCells(Scope{City: c})
	require.NoError(t, err)
	require.Len(t, cells, 2)

	sys := c.NewSystem("roads", Transportation)
	require.NoError(t, sys.AddRegion(nodeRegion("nodes", Polygon, rectangle(0, 0, 2, 1), junction)))
	require.NoError(t, sys.AddRegion(edgeRegion("adj", PolygonAdjacent, rectangle(0, 0, 2, 1), road)))
	require.NoError(t, sys.AddRegion(edgeRegion("orth", PolygonOrthogonal, rectangle(0, 0, 2, 1), road)))
	regenerate(t, e, c, sys, "nodes")
	require.Len(t, sys.Nodes(), 2)

	adj, err := e.SynthesizeEdges(Scope{City: c}, sys, "adj")
	require.NoError(t, err)
	assert.Len(t, adj, 1)

	orth, err := e.SynthesizeEdges(Scope{City: c}, sys, "orth")
	require.NoError(t, err)
	assert.Len(t, orth, 0)
}

func TestEdgesOrthogonalGrid(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 2, 2)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("nodes", Polygon, rectangle(0, 0, 2, 2), junction)))
	require.NoError(t, sys.AddRegion(edgeRegion("orth", PolygonOrthogonal, rectangle(0, 0, 2, 2), road)))
	regenerate(t, e, c, sys, "nodes", "orth")

	// cells: 0 1 along the bottom, 2 3 along the top; no diagonals
	assert.Equal(t, map[[2]int]bool{{0, 1}: true, {0, 2}: true, {1, 3}: true, {2, 3}: true}, cellPairs(sys))
}

func TestEdgesConnected(t *testing.T) {
	e := testEngine(nil)

	t.Run("SingleCluster", func(t *testing.T) {
		c := gridCity(t, e, 3, 3)
		sys := c.NewSystem("water", Water)
		require.NoError(t, sys.AddRegion(nodeRegion("nodes", Polygon, rectangle(0, 0, 3, 3), junction)))
		require.NoError(t, sys.AddRegion(edgeRegion("mains", PolygonConnected, rectangle(0, 0, 3, 3), road)))
		regenerate(t, e, c, sys, "nodes", "mains")

		nodes := sys.Nodes()
		require.Len(t, nodes, 9)
		require.Len(t, sys.Edges(), 8, "a spanning tree over 9 nodes")

		idx := map[string]int{}
		for i, n := range nodes {
			idx[n.ID] = i
		}
		uf := newUnionFind(len(nodes))
		for _, edge := range sys.Edges() {
			uf.union(idx[edge.From], idx[edge.To])
		}
		for i := range nodes {
			assert.Equal(t, uf.find(0), uf.find(i), "node %d not connected", i)
		}
	})

	t.Run("SeparateClusters", func(t *testing.T) {
		c := gridCity(t, e, 4, 1)
		sys := c.NewSystem("water", Water)
		require.NoError(t, sys.AddRegion(nodeRegion("nodes", Polypoint, points(0.5, 0.5, 1.5, 0.5, 3.5, 0.5), junction)))
		require.NoError(t, sys.AddRegion(edgeRegion("mains", PolygonConnected, rectangle(0, 0, 4, 1), road)))
		regenerate(t, e, c, sys, "nodes", "mains")

		assert.Equal(t, map[[2]int]bool{{0, 1}: true}, cellPairs(sys))
	})

	t.Run("SharedCell", func(t *testing.T) {
		c := gridCity(t, e, 1, 1)
		sys := c.NewSystem("water", Water)
		require.NoError(t, sys.AddRegion(nodeRegion("pumps", Polygon, rectangle(0, 0, 1, 1), junction)))
		require.NoError(t, sys.AddRegion(nodeRegion("lamps", Polygon, rectangle(0, 0, 1, 1), lamp)))
		require.NoError(t, sys.AddRegion(edgeRegion("mains", PolygonConnected, rectangle(0, 0, 1, 1), road)))
		regenerate(t, e, c, sys, "pumps", "lamps", "mains")

		assert.Len(t, sys.Edges(), 1, "nodes sharing a cell are linked")
	})
}

func TestEdgesPolypoint(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 3, 1)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("nodes", Polypoint, points(0.5, 0.5, 1.5, 0.5), junction)))
	require.NoError(t, sys.AddRegion(edgeRegion("path", Polypoint, points(0.2, 0.2, 1.2, 0.2, 2.5, 0.5, 0.7, 0.7, 0.4, 0.4), road)))
	res := regenerate(t, e, c, sys, "nodes", "path")

	// 0-1 ok, 1-2 & 2-0 skip the missing node, 0-0 would loop
	assert.Equal(t, map[[2]int]bool{{0, 1}: true}, cellPairs(sys))

	require.NotNil(t, res.Warnings)
	assert.True(t, errors.Is(res.Warnings, ErrReference))
	var ref *ReferenceError
	require.True(t, errors.As(res.Warnings, &ref))
	assert.Equal(t, 2, ref.Index)
}

func TestEdgesSkipUnnetworkedNodes(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 2, 1)
	sys := c.NewSystem("buildings", Building)

	house := NodeType{Name: "house"}
	require.NoError(t, sys.AddRegion(nodeRegion("houses", Polygon, rectangle(0, 0, 2, 1), house)))
	require.NoError(t, sys.AddRegion(edgeRegion("link", PolygonAdjacent, rectangle(0, 0, 2, 1), road)))
	regenerate(t, e, c, sys, "houses", "link")

	assert.Len(t, sys.Nodes(), 2)
	assert.Empty(t, sys.Edges())
}

func TestEdgesSharedAcrossRegions(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 2, 1)
	sys := c.NewSystem("roads", Transportation)

	require.NoError(t, sys.AddRegion(nodeRegion("nodes", Polygon, rectangle(0, 0, 2, 1), junction)))
	require.NoError(t, sys.AddRegion(edgeRegion("a", PolygonAdjacent, rectangle(0, 0, 2, 1), road)))
	require.NoError(t, sys.AddRegion(edgeRegion("b", Polypoint, points(1.5, 0.5, 0.5, 0.5), road)))
	regenerate(t, e, c, sys, "nodes", "a", "b")

	edges := sys.Edges()
	require.Len(t, edges, 1, "undirected edges of one type are shared")
	assert.ElementsMatch(t, []string{"a", "b"}, edges[0].Sources)
}

func TestNoSelfLoops(t *testing.T) {
	e := testEngine(nil)
	c := gridCity(t, e, 3, 3)
	sys := c.NewSystem("mixed", Undefined)

	require.NoError(t, sys.AddRegion(nodeRegion("j", Polygon, rectangle(0, 0, 3, 3), junction)))
	require.NoError(t, sys.AddRegion(nodeRegion("l", Polyline, points(0.5, 0.5, 2.5, 2.5), lamp)))
	require.NoError(t, sys.AddRegion(edgeRegion("adj", PolygonAdjacent, rectangle(0, 0, 3, 3), road)))
	require.NoError(t, sys.AddRegion(edgeRegion("con", PolygonConnected, rectangle(0, 0, 3, 3), oneway)))
	require.NoError(t, sys.AddRegion(edgeRegion("pl", Polyline, points(0.1, 0.1, 2.9, 2.9), road)))
	require.NoError(t, sys.AddRegion(edgeRegion("pp", Polypoint, points(0.5, 0.5, 0.6, 0.6, 1.5, 1.5), oneway)))

	_, err := e.RegenerateSystem(Scope{City: c}, sys)
	require.NoError(t, err)

	require.NotEmpty(t, sys.Edges())
	for _, edge := range sys.Edges() {
		assert.NotEqual(t, edge.From, edge.To)
	}
}
