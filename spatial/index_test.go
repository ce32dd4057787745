package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func unitLine() []Point {
	return []Point{
		{ID: 1, X: 0},
		{ID: 2, X: 1},
		{ID: 3, X: 2},
		{ID: 4, X: 3},
		{ID: 5, X: 4},
	}
}

func TestKNearest(t *testing.T) {
	ix := NewIndex(unitLine())

	got := ix.KNearest([3]float64{1.9, 0, 0}, 3)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
	assert.Equal(t, 4, got[2].ID)
	assert.InDelta(t, 0.1, got[0].Dist, 1e-12)

	{ // k larger than the point set
		all := ix.KNearest([3]float64{0, 0, 0}, 10)
		assert.Len(t, all, 5)
	}
	{ // degenerate k
		assert.Nil(t, ix.KNearest([3]float64{0, 0, 0}, 0))
	}
}

func TestKNearestTieBreakByID(t *testing.T) {
	pts := []Point{
		{ID: 9, X: 1, Y: 0, Z: 0},
		{ID: 3, X: -1, Y: 0, Z: 0},
		{ID: 6, X: 0, Y: 1, Z: 0},
		{ID: 1, X: 0, Y: -1, Z: 0},
	}
	ix := NewIndex(pts)

	got := ix.KNearest([3]float64{0, 0, 0}, 4)
	ids := []int{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	assert.Equal(t, []int{1, 3, 6, 9}, ids)
	for _, n := range got {
		assert.InDelta(t, 1.0, n.Dist, 1e-12)
	}
}

func TestWithinRadius(t *testing.T) {
	ix := NewIndex(unitLine())

	got := ix.WithinRadius([3]float64{0, 0, 0}, 2.5)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
	assert.Equal(t, 3, got[2].ID)

	{ // boundary is inclusive
		exact := ix.WithinRadius([3]float64{0, 0, 0}, 2.0)
		assert.Len(t, exact, 3)
	}
	{ // nothing in range
		assert.Empty(t, ix.WithinRadius([3]float64{100, 0, 0}, 1.0))
	}
	{ // degenerate radius
		assert.Nil(t, ix.WithinRadius([3]float64{0, 0, 0}, 0))
	}
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex(nil)
	assert.Zero(t, ix.Len())
	assert.Nil(t, ix.KNearest([3]float64{0, 0, 0}, 3))
	assert.Nil(t, ix.WithinRadius([3]float64{0, 0, 0}, 1))
}

func TestInsertionOrderIndependence(t *testing.T) {
	fwd := unitLine()
	rev := make([]Point, len(fwd))
	for i, p := range fwd {
		rev[len(fwd)-1-i] = p
	}
	a := NewIndex(fwd)
	b := NewIndex(rev)

	q := [3]float64{2.2, 0.3, -0.1}
	assert.Equal(t, a.KNearest(q, 4), b.KNearest(q, 4))
	assert.Equal(t, a.WithinRadius(q, 1.5), b.WithinRadius(q, 1.5))
}

func TestEuclideanDistances(t *testing.T) {
	ix := NewIndex([]Point{{ID: 1, X: 3, Y: 4, Z: 0}})
	got := ix.KNearest([3]float64{0, 0, 0}, 1)
	assert.Len(t, got, 1)
	assert.InDelta(t, 5.0, got[0].Dist, 1e-12)
	assert.False(t, math.IsInf(got[0].Dist, 1))
}
