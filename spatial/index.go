// Package spatial provides a static 3D point index over mesh nodes.
// The index is built once per mesh and is read-only afterwards, so
// it can be shared across goroutines without locking.
package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point is one indexed node position.
type Point struct {
	ID      int
	X, Y, Z float64
}

func (p Point) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func (p Point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point)
	return p.coord(d) - q.coord(d)
}

func (p Point) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, following the
// kdtree convention. Callers get true distances from the query
// methods below.
func (p Point) Distance(c kdtree.Comparable) float64 {
	q := c.(Point)
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return dx*dx + dy*dy + dz*dz
}

type points []Point

func (p points) Index(i int) kdtree.Comparable   { return p[i] }
func (p points) Len() int                        { return len(p) }
func (p points) Slice(s, e int) kdtree.Interface { return p[s:e] }
func (p points) Pivot(d kdtree.Dim) int          { return plane{Dim: d, points: p}.Pivot() }

type plane struct {
	kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool {
	return p.points[i].coord(p.Dim) < p.points[j].coord(p.Dim)
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(s, e int) kdtree.SortSlicer {
	p.points = p.points[s:e]
	return p
}
func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// Neighbor is one query result with the true Euclidean distance.
type Neighbor struct {
	ID   int
	Dist float64
}

// Index is an immutable k-d tree over a point set.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// NewIndex builds the tree. The input is copied and ordered by node
// id first so the tree shape, and therefore every query result, is
// the same for the same point set regardless of input order.
func NewIndex(pts []Point) *Index {
	cp := make(points, len(pts))
	copy(cp, pts)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	ix := &Index{n: len(cp)}
	if len(cp) > 0 {
		ix.tree = kdtree.New(cp, false)
	}
	return ix
}

func (ix *Index) Len() int { return ix.n }

// KNearest returns up to k nearest points to q, ordered by ascending
// distance with ascending node id breaking ties.
func (ix *Index) KNearest(q [3]float64, k int) []Neighbor {
	if ix.tree == nil || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keep, Point{ID: -1, X: q[0], Y: q[1], Z: q[2]})
	out := harvest(keep.Heap)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// WithinRadius returns every point within r of q, ordered the same
// way as KNearest.
func (ix *Index) WithinRadius(q [3]float64, r float64) []Neighbor {
	if ix.tree == nil || r <= 0 {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	ix.tree.NearestSet(keep, Point{ID: -1, X: q[0], Y: q[1], Z: q[2]})
	return harvest(keep.Heap)
}

// harvest drops keeper sentinels, converts squared distances back to
// Euclidean and applies the deterministic ordering.
func harvest(h kdtree.Heap) []Neighbor {
	out := make([]Neighbor, 0, len(h))
	for _, cd := range h {
		if cd.Comparable == nil || math.IsInf(cd.Dist, 1) {
			continue
		}
		p := cd.Comparable.(Point)
		out = append(out, Neighbor{ID: p.ID, Dist: math.Sqrt(cd.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist != out[j].Dist {
			return out[i].Dist < out[j].Dist
		}
		return out[i].ID < out[j].ID
	})
	return out
}
