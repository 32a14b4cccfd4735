package store

import (
	"context"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/fetcher"
	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
)

// LoadArchiveCSV streams an unpacked weather archive into the store. Each
// row holds one series: grid id, field name, then the hourly values.
// Series already present are kept. Returns the number of stored series.
func (s *Store) LoadArchiveCSV(ctx context.Context, r io.Reader, year int) (int, error) {
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{TrimSpace: true})

	log := zap.L().With(zap.Int("year", year))
	var stored, skipped int
	line := 0
	for row := range rowCh {
		line++
		if len(row) < 3 {
			return stored, eris.Errorf("store: archive row %d has %d columns, need at least 3", line, len(row))
		}
		gid, err := strconv.Atoi(row[0])
		if err != nil {
			return stored, eris.Wrapf(err, "store: bad grid id at archive row %d", line)
		}
		field := row[1]

		values := make([]float64, 0, len(row)-2)
		for i, cell := range row[2:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return stored, eris.Wrapf(err, "store: bad value in column %d of archive row %d", i+3, line)
			}
			values = append(values, v)
		}

		key := model.EncodeSeriesKey(model.PointID(gid))
		err = s.PutSeries(ctx, key, field, &series.Series{Year: year, Values: values})
		switch {
		case err == nil:
			stored++
		case eris.Is(err, ErrDuplicateSeries):
			skipped++
		default:
			return stored, err
		}
	}
	if err := <-errCh; err != nil {
		return stored, err
	}

	log.Info("archive loaded",
		zap.Int("stored", stored),
		zap.Int("skipped", skipped),
	)
	return stored, nil
}
