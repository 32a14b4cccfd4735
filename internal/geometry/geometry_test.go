package geometry

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/reegis/coastdat-cli/internal/model"
)

func square(minX, minY, size float64) *geom.Polygon {
	ring := []float64{
		minX, minY,
		minX + size, minY,
		minX + size, minY + size,
		minX, minY + size,
		minX, minY,
	}
	return geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})
}

// donut is a square with a centered square hole.
func donut() *geom.Polygon {
	outer := []float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0}
	hole := []float64{1, 1, 3, 1, 3, 3, 1, 3, 1, 1}
	flat := append(append([]float64{}, outer...), hole...)
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(outer), len(outer) + len(hole)})
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	g := New("test")
	require.NoError(t, g.Add(Feature{ID: "1", Geom: square(0, 0, 1)}))
	err := g.Add(Feature{ID: "1", Geom: square(1, 0, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestContains(t *testing.T) {
	sq := square(0, 0, 1)

	assert.True(t, Contains(sq, geom.Coord{0.5, 0.5}))
	assert.False(t, Contains(sq, geom.Coord{1.5, 0.5}))
	assert.False(t, Contains(sq, geom.Coord{-0.1, 0.5}))
}

func TestContainsRespectsHoles(t *testing.T) {
	d := donut()

	assert.True(t, Contains(d, geom.Coord{0.5, 2}))
	assert.False(t, Contains(d, geom.Coord{2, 2}), "point in the hole")
	assert.False(t, Contains(d, geom.Coord{5, 2}))
}

func TestContainsMultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(0, 0, 1)))
	require.NoError(t, mp.Push(square(5, 5, 1)))

	assert.True(t, Contains(mp, geom.Coord{0.5, 0.5}))
	assert.True(t, Contains(mp, geom.Coord{5.5, 5.5}))
	assert.False(t, Contains(mp, geom.Coord{3, 3}))
}

func TestWithinTolerance(t *testing.T) {
	sq := square(0, 0, 1)

	// 0.04 degrees east of the boundary.
	outside := geom.Coord{1.04, 0.5}
	assert.False(t, WithinTolerance(sq, outside, 0))
	assert.False(t, WithinTolerance(sq, outside, 0.03))
	assert.True(t, WithinTolerance(sq, outside, 0.05))

	// Contained points match at any tolerance.
	assert.True(t, WithinTolerance(sq, geom.Coord{0.5, 0.5}, 0))
}

func TestBoundaryDistance(t *testing.T) {
	sq := square(0, 0, 1)

	assert.InDelta(t, 0.5, BoundaryDistance(sq, geom.Coord{1.5, 0.5}), 1e-12)
	assert.InDelta(t, 0.25, BoundaryDistance(sq, geom.Coord{0.75, 0.5}), 1e-12)
	assert.True(t, math.IsInf(BoundaryDistance(geom.NewPointFlat(geom.XY, []float64{0, 0}), geom.Coord{1, 1}), 1))
}

func TestCentroids(t *testing.T) {
	g := New("cells")
	require.NoError(t, g.Add(Feature{ID: "1", Geom: square(0, 0, 1)}))
	require.NoError(t, g.Add(Feature{ID: "2", Geom: geom.NewPointFlat(geom.XY, []float64{7, 8})}))

	reduced, err := g.Centroids()
	require.NoError(t, err)
	require.Equal(t, 2, reduced.Len())

	f, ok := reduced.Feature("1")
	require.True(t, ok)
	c, err := Coord(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c[0], 1e-12)
	assert.InDelta(t, 0.5, c[1], 1e-12)

	// Point features pass through unchanged.
	f, ok = reduced.Feature("2")
	require.True(t, ok)
	c, err = Coord(f)
	require.NoError(t, err)
	assert.Equal(t, geom.Coord{7, 8}, c)
}

func TestCoordRejectsPolygons(t *testing.T) {
	_, err := Coord(Feature{ID: "1", Geom: square(0, 0, 1)})
	require.Error(t, err)
}

func TestRepresentativePointConvex(t *testing.T) {
	c, err := RepresentativePoint(square(0, 0, 2))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c[0], 1e-9)
	assert.InDelta(t, 1.0, c[1], 1e-9)
}

func TestRepresentativePointConcave(t *testing.T) {
	// A U shape whose centroid falls into the notch. The point must still
	// land inside the polygon.
	ring := []float64{
		0, 0,
		5, 0,
		5, 5,
		4, 5,
		4, 1,
		1, 1,
		1, 5,
		0, 5,
		0, 0,
	}
	u := geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})

	c, err := RepresentativePoint(u)
	require.NoError(t, err)
	assert.True(t, Contains(u, c), "representative point (%v) must be interior", c)
}

func TestLoadPointsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.csv")
	csv := "gid,lon,lat\n1129087,9.225,53.9\n1129088,9.4,53.9\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	g, err := LoadPointsCSV(context.Background(), "grid", path)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"1129087", "1129088"}, g.IDs())

	pts, err := GridPoints(g)
	require.NoError(t, err)
	assert.Equal(t, model.GridPoint{ID: 1129087, Lon: 9.225, Lat: 53.9}, pts[0])
}

func TestLoadPointsCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte("gid,x,y\n1,2,3\n"), 0o644))

	_, err := LoadPointsCSV(context.Background(), "grid", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lon")
}
