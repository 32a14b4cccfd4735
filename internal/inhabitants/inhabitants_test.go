package inhabitants

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/reegis/coastdat-cli/internal/geometry"
	"github.com/reegis/coastdat-cli/internal/join"
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

func testRegions(t *testing.T) *geometry.Geometry {
	t.Helper()
	g := geometry.New("regions")
	require.NoError(t, g.Add(geometry.Feature{ID: "A", Geom: square(0, 0, 1)}))
	require.NoError(t, g.Add(geometry.Feature{ID: "B", Geom: square(1, 0, 1)}))
	return g
}

func writeMunicipalities(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "municipalities.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("GEN", 20),
		shp.NumberField("EWZ", 10),
	}))

	rows := []struct {
		ring []shp.Point
		name string
		ewz  int
	}{
		{[]shp.Point{{X: 0.1, Y: 0.1}, {X: 0.1, Y: 0.4}, {X: 0.4, Y: 0.4}, {X: 0.4, Y: 0.1}, {X: 0.1, Y: 0.1}}, "Adorf", 1200},
		{[]shp.Point{{X: 0.6, Y: 0.6}, {X: 0.6, Y: 0.9}, {X: 0.9, Y: 0.9}, {X: 0.9, Y: 0.6}, {X: 0.6, Y: 0.6}}, "Bdorf", 300},
		{[]shp.Point{{X: 1.2, Y: 0.2}, {X: 1.2, Y: 0.8}, {X: 1.8, Y: 0.8}, {X: 1.8, Y: 0.2}, {X: 1.2, Y: 0.2}}, "Cstadt", 5000},
	}
	for i, row := range rows {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{row.ring}))
		w.Write(&poly)
		require.NoError(t, w.WriteAttribute(i, 0, row.name))
		require.NoError(t, w.WriteAttribute(i, 1, row.ewz))
	}
	w.Close()
	return path
}

func TestLoad(t *testing.T) {
	path := writeMunicipalities(t, t.TempDir())

	points, counts, err := Load(path, DefaultPopulationField)
	require.NoError(t, err)
	require.Equal(t, 3, points.Len())

	assert.Equal(t, map[model.PointID]float64{1: 1200, 2: 300, 3: 5000}, counts)

	// Each polygon collapses to one interior point.
	f, ok := points.Feature("1")
	require.True(t, ok)
	_, isPoint := f.Geom.(*geom.Point)
	assert.True(t, isPoint)
}

func TestLoadMissingField(t *testing.T) {
	path := writeMunicipalities(t, t.TempDir())

	_, _, err := Load(path, "NOPE")
	require.Error(t, err)
}

func TestByRegion(t *testing.T) {
	path := writeMunicipalities(t, t.TempDir())
	points, counts, err := Load(path, DefaultPopulationField)
	require.NoError(t, err)

	totals, err := ByRegion(points, counts, testRegions(t), join.Options{})
	require.NoError(t, err)

	assert.Equal(t, map[model.RegionID]float64{"A": 1500, "B": 5000}, totals)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inhabitants.csv")
	totals := map[model.RegionID]float64{"B": 5000, "A": 1500}

	written, err := WriteCSV(path, totals, false)
	require.NoError(t, err)
	require.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "region,inhabitants\nA,1500\nB,5000\n", string(data))

	written, err = WriteCSV(path, map[model.RegionID]float64{"A": 1}, false)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestParseCountRejectsNegative(t *testing.T) {
	_, err := parseCount("-5")
	require.Error(t, err)
	_, err = parseCount("")
	require.Error(t, err)
}
