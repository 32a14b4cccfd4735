package geometry

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestShapeToGeomPoint(t *testing.T) {
	g := shapeToGeom(&shp.Point{X: 9.225, Y: 53.9})
	pt, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 9.225, pt.X())
	assert.Equal(t, 53.9, pt.Y())
}

func TestShapeToGeomPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: 0, Y: 0},
			{X: 0, Y: 1},
			{X: 1, Y: 1},
			{X: 1, Y: 0},
			{X: 0, Y: 0},
		},
	}

	g := shapeToGeom(poly)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 1, mp.NumPolygons())
	assert.True(t, Contains(mp, geom.Coord{0.5, 0.5}))
	assert.False(t, Contains(mp, geom.Coord{1.5, 0.5}))
}

func TestShapeToGeomMultiPart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
			{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}, {X: 5, Y: 5},
		},
	}

	g := shapeToGeom(poly)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.True(t, Contains(mp, geom.Coord{5.5, 5.5}))
}

func TestShapeToGeomPolygonWithHole(t *testing.T) {
	// Outer ring clockwise, hole ring counter-clockwise, shapefile style.
	// A point inside the hole must not be contained.
	poly := &shp.Polygon{
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
			{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4},
		},
	}

	g := shapeToGeom(poly)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 1, mp.NumPolygons())
	require.Equal(t, 2, mp.Polygon(0).NumLinearRings())

	assert.True(t, Contains(mp, geom.Coord{1, 1}))
	assert.False(t, Contains(mp, geom.Coord{5, 5}), "point inside the hole")
}

func TestShapeToGeomUnsupported(t *testing.T) {
	assert.Nil(t, shapeToGeom(&shp.PolyLine{}))
	assert.Nil(t, shapeToGeom(&shp.Polygon{}))
}
