package partition

import (
	"sync"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/rtree"
	"golang.org/x/sync/errgroup"

	"github.com/voidshard/citynet/internal/geometry"
)

// Partition is an immutable set of pieces plus a spatial index over them.
type Partition struct {
	Pieces []Piece

	tree *rtree.RTree

	adjOnce sync.Once
	adj     [][]int // adjacent piece indexes, ascending
	orth    [][]int // orthogonally adjacent piece indexes, ascending
}

// newPartition indexes the given pieces.
func newPartition(pieces []Piece) *Partition {
	items := make([]rtree.BulkItem, len(pieces))
	for i, p := range pieces {
		items[i] = rtree.BulkItem{Box: toBox(p.Polygon.Bounds()), RecordID: i}
	}
	return &Partition{Pieces: pieces, tree: rtree.BulkLoad(items)}
}

// toBox converts an r2.Rect into an rtree.Box, padded by geometry.Epsilon so
// that things exactly on a border are still found.
func toBox(r r2.Rect) rtree.Box {
	r = r.ExpandedByMargin(geometry.Epsilon)
	return rtree.Box{MinX: r.X.Lo, MinY: r.Y.Lo, MaxX: r.X.Hi, MaxY: r.Y.Hi}
}

// Len returns the number of pieces.
func (p *Partition) Len() int {
	return len(p.Pieces)
}

// Candidates returns (in ascending order) the indexes of pieces whose bounds
// overlap r. Callers must still check the real geometry.
func (p *Partition) Candidates(r r2.Rect) []int {
	found := map[int]bool{}
	_ = p.tree.RangeSearch(toBox(r), func(recordID int) error {
		found[recordID] = true
		return nil
	})
	return sortedInts(found)
}

// Locate returns the index of the piece containing pt. Points on a border
// shared by several pieces go to the lowest index.
func (p *Partition) Locate(pt r2.Point) (int, bool) {
	for _, i := range p.Candidates(r2.RectFromPoints(pt)) {
		if geometry.PointInPolygon(pt, p.Pieces[i].Polygon) {
			return i, true
		}
	}
	return -1, false
}

// Crossed returns the indexes of every piece the path passes through or touches.
func (p *Partition) Crossed(path []r2.Point) []int {
	if len(path) == 0 {
		return nil
	}
	out := []int{}
	for _, i := range p.Candidates(r2.RectFromPoints(path...)) {
		if geometry.PolylineIntersectsCell(path, p.Pieces[i].Polygon) {
			out = append(out, i)
		}
	}
	return out
}

// Adjacent returns the pieces sharing a border with piece i.
func (p *Partition) Adjacent(i int, workers int) []int {
	p.computeAdjacency(workers)
	return p.adj[i]
}

// OrthogonallyAdjacent returns the pieces sharing an axis aligned border with piece i.
func (p *Partition) OrthogonallyAdjacent(i int, workers int) []int {
	p.computeAdjacency(workers)
	return p.orth[i]
}

// IsAdjacent returns if pieces a & b share a border (orthogonal restricts to
// axis aligned borders).
func (p *Partition) IsAdjacent(a, b int, orthogonal bool, workers int) bool {
	list := p.Adjacent(a, workers)
	if orthogonal {
		list = p.OrthogonallyAdjacent(a, workers)
	}
	for _, n := range list {
		if n == b {
			return true
		}
	}
	return false
}

// computeAdjacency works out the neighbours of every piece (once).
// Each piece is checked independently against the candidates the rtree gives
// us, so the work spreads over `workers` goroutines.
func (p *Partition) computeAdjacency(workers int) {
	p.adjOnce.Do(func() {
		n := len(p.Pieces)
		p.adj = make([][]int, n)
		p.orth = make([][]int, n)

		if workers < 1 {
			workers = 1
		}
		var g errgroup.Group
		g.SetLimit(workers)

		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				me := p.Pieces[i].Polygon
				adj := []int{}
				orth := []int{}
				for _, j := range p.Candidates(me.Bounds()) {
					if j == i {
						continue
					}
					other := p.Pieces[j].Polygon
					if !geometry.AreAdjacent(me, other) {
						continue
					}
					adj = append(adj, j)
					if geometry.IsOrthogonallyAdjacent(me, other) {
						orth = append(orth, j)
					}
				}
				p.adj[i] = adj
				p.orth[i] = orth
				return nil
			})
		}
		_ = g.Wait() // used as a bounded WaitGroup; nothing returns an error
	})
}
