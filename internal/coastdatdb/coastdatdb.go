// Package coastdatdb reads coastdat2 weather data from a PostgreSQL
// mirror, as an alternative to downloading the packed archives. The
// mirror keeps the grid geometry in coastdat.spatial and one value array
// per (grid point, field, year) in coastdat.series.
package coastdatdb

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/db"
	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
	"github.com/reegis/coastdat-cli/internal/store"
)

const (
	gridQuery   = `SELECT gid, st_x(geom), st_y(geom) FROM coastdat.spatial ORDER BY gid`
	seriesQuery = `SELECT gid, field, values FROM coastdat.series WHERE year = $1 ORDER BY gid, field`
)

// FetchGridPoints loads the grid point coordinates from the mirror.
func FetchGridPoints(ctx context.Context, pool db.Pool) ([]model.GridPoint, error) {
	rows, err := pool.Query(ctx, gridQuery)
	if err != nil {
		return nil, eris.Wrap(err, "coastdatdb: query grid points")
	}
	defer rows.Close()

	var points []model.GridPoint
	for rows.Next() {
		var p model.GridPoint
		if err := rows.Scan(&p.ID, &p.Lon, &p.Lat); err != nil {
			return nil, eris.Wrap(err, "coastdatdb: scan grid point")
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "coastdatdb: read grid points")
	}
	if len(points) == 0 {
		return nil, eris.New("coastdatdb: coastdat.spatial is empty")
	}
	return points, nil
}

// ExportGridCSV writes grid points as the gid/lon/lat CSV the offline
// pipeline reads. Returns false when the file already exists.
func ExportGridCSV(points []model.GridPoint, path string) (bool, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		zap.L().Info("grid csv exists, skipping", zap.String("path", path))
		return false, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return false, eris.Wrapf(err, "coastdatdb: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"gid", "lon", "lat"}); err != nil {
		return false, eris.Wrapf(err, "coastdatdb: write %s", path)
	}
	for _, p := range points {
		row := []string{
			strconv.Itoa(int(p.ID)),
			strconv.FormatFloat(p.Lon, 'g', -1, 64),
			strconv.FormatFloat(p.Lat, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return false, eris.Wrapf(err, "coastdatdb: write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, eris.Wrapf(err, "coastdatdb: flush %s", path)
	}
	return true, nil
}

// FetchYear streams one weather year from the mirror into the local
// series store. Series already present locally are kept, a refetch over
// an existing store only fills gaps. Returns the number of stored series.
func FetchYear(ctx context.Context, pool db.Pool, st *store.Store, year int) (int, error) {
	rows, err := pool.Query(ctx, seriesQuery, year)
	if err != nil {
		return 0, eris.Wrapf(err, "coastdatdb: query series for %d", year)
	}
	defer rows.Close()

	log := zap.L().With(zap.Int("year", year))
	var stored, skipped int
	for rows.Next() {
		var gid int
		var field string
		var values []float64
		if err := rows.Scan(&gid, &field, &values); err != nil {
			return stored, eris.Wrap(err, "coastdatdb: scan series row")
		}

		key := model.EncodeSeriesKey(model.PointID(gid))
		err := st.PutSeries(ctx, key, field, &series.Series{Year: year, Values: values})
		switch {
		case err == nil:
			stored++
		case eris.Is(err, store.ErrDuplicateSeries):
			skipped++
		default:
			return stored, err
		}
	}
	if err := rows.Err(); err != nil {
		return stored, eris.Wrapf(err, "coastdatdb: read series for %d", year)
	}

	log.Info("weather year fetched from database",
		zap.Int("stored", stored),
		zap.Int("skipped", skipped),
	)
	return stored, nil
}

// PublishResults pushes aggregated result columns back to the mirror's
// results table, one row per hour and column.
func PublishResults(ctx context.Context, pool db.Pool, name string, columns []series.ResultColumn, year int) (int64, error) {
	var rows [][]any
	for _, c := range columns {
		for hour, v := range c.Values {
			rows = append(rows, []any{name, year, string(c.Region), c.Set, c.Subset, hour, v})
		}
	}
	cols := []string{"name", "year", "region", "set", "subset", "hour", "value"}
	return db.CopyInto(ctx, pool, "coastdat", "results", cols, rows)
}
