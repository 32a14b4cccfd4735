package aggregate

import (
	"context"
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
)

// KeyedReader extends SeriesReader with key enumeration, matching the
// series store.
type KeyedReader interface {
	SeriesReader
	Keys(ctx context.Context, year int) ([]model.SeriesKey, error)
}

// AverageWindSpeed computes the per-grid-point mean of a field across
// several year stores, used to pick strong- or low-wind turbines per
// region. Long series are truncated to the year length first; a point
// missing from a year contributes nothing for that year.
func AverageWindSpeed(ctx context.Context, stores map[int]KeyedReader, field string) (map[model.SeriesKey]float64, error) {
	years := make([]int, 0, len(stores))
	for y := range stores {
		years = append(years, y)
	}
	sort.Ints(years)

	sums := make(map[model.SeriesKey]float64)
	counts := make(map[model.SeriesKey]int)

	for _, year := range years {
		st := stores[year]
		keys, err := st.Keys(ctx, year)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: list stored keys for %d", year)
		}
		for _, key := range keys {
			s, err := st.GetSeries(ctx, key, field, year)
			if err != nil {
				return nil, eris.Wrapf(err, "aggregate: %s of %s for %d", field, key, year)
			}
			values := s.Values
			if limit := series.HoursInYear(year); len(values) > limit {
				values = values[:limit]
			}
			for _, v := range values {
				sums[key] += v
			}
			counts[key] += len(values)
		}
	}

	means := make(map[model.SeriesKey]float64, len(sums))
	for key, sum := range sums {
		if counts[key] > 0 {
			means[key] = sum / float64(counts[key])
		}
	}
	return means, nil
}

// WriteMeanCSV writes per-grid-point means as (coastdat_id, value) rows in
// ascending grid-id order. An existing file is kept unless overwrite is set.
func WriteMeanCSV(path, column string, means map[model.SeriesKey]float64, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			zap.L().Info("mean file exists, skipping", zap.String("path", path))
			return false, nil
		}
	}

	ids := make([]model.PointID, 0, len(means))
	byID := make(map[model.PointID]float64, len(means))
	for key, mean := range means {
		id, err := model.DecodeSeriesKey(key)
		if err != nil {
			return false, eris.Wrap(err, "aggregate: write means")
		}
		ids = append(ids, id)
		byID[id] = mean
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	f, err := os.Create(path)
	if err != nil {
		return false, eris.Wrapf(err, "aggregate: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"coastdat_id", column}); err != nil {
		return false, eris.Wrap(err, "aggregate: write mean header")
	}
	for _, id := range ids {
		row := []string{
			strconv.Itoa(int(id)),
			strconv.FormatFloat(byID[id], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return false, eris.Wrapf(err, "aggregate: write mean row %d", id)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, eris.Wrapf(err, "aggregate: flush %s", path)
	}
	return true, nil
}
