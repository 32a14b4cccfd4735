package geometry

import (
	"context"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/reegis/coastdat-cli/internal/fetcher"
	"github.com/reegis/coastdat-cli/internal/model"
)

// LoadPointsCSV reads the coastdat grid-centroid CSV (gid, lon, lat) into a
// point Geometry keyed by grid id.
func LoadPointsCSV(ctx context.Context, name, path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	header := <-headerCh
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	gidIdx, ok := cols["gid"]
	if !ok {
		return nil, eris.Errorf("geometry: %s has no gid column", path)
	}
	lonIdx, ok := cols["lon"]
	if !ok {
		return nil, eris.Errorf("geometry: %s has no lon column", path)
	}
	latIdx, ok := cols["lat"]
	if !ok {
		return nil, eris.Errorf("geometry: %s has no lat column", path)
	}

	g := New(name)
	for row := range rowCh {
		lon, err := strconv.ParseFloat(row[lonIdx], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: bad lon in %s", path)
		}
		lat, err := strconv.ParseFloat(row[latIdx], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: bad lat in %s", path)
		}
		pt := geom.NewPointFlat(geom.XY, []float64{lon, lat})
		if err := g.Add(Feature{ID: row[gidIdx], Geom: pt}); err != nil {
			return nil, err
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	return g, nil
}

// GridPoints converts a point Geometry into typed grid-point records.
func GridPoints(g *Geometry) ([]model.GridPoint, error) {
	pts := make([]model.GridPoint, 0, g.Len())
	for _, f := range g.Features() {
		id, err := strconv.Atoi(f.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: grid id %q is not an integer", f.ID)
		}
		c, err := Coord(f)
		if err != nil {
			return nil, err
		}
		pts = append(pts, model.GridPoint{ID: model.PointID(id), Lon: c[0], Lat: c[1]})
	}
	return pts, nil
}
