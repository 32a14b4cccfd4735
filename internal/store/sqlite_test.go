package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "coastdat.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	in := &series.Series{Year: 2014, Values: []float64{1.5, -2.25, 0, 1e-9}}
	require.NoError(t, s.PutSeries(ctx, "A1129087", "temp_air", in))

	out, err := s.GetSeries(ctx, "A1129087", "temp_air", 2014)
	require.NoError(t, err)
	assert.Equal(t, in.Values, out.Values)
	assert.Equal(t, 2014, out.Year)
}

func TestPutSeries_WriteOnce(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	in := &series.Series{Year: 2014, Values: []float64{1}}
	require.NoError(t, s.PutSeries(ctx, "A1", "temp_air", in))

	err := s.PutSeries(ctx, "A1", "temp_air", in)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDuplicateSeries))

	// Same key, different field or year is fine.
	require.NoError(t, s.PutSeries(ctx, "A1", "v_wind", in))
	require.NoError(t, s.PutSeries(ctx, "A1", "temp_air", &series.Series{Year: 2015, Values: []float64{2}}))
}

func TestPutSeries_RejectsMalformedKey(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	err := s.PutSeries(context.Background(), "1129087", "temp_air", &series.Series{Year: 2014})
	assert.Error(t, err)

	_, err = s.GetSeries(context.Background(), "X1", "temp_air", 2014)
	assert.Error(t, err)
}

func TestGetSeries_NotFound(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	_, err := s.GetSeries(context.Background(), "A99", "temp_air", 2014)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSeriesNotFound))
}

func TestKeysAndFields(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	in := &series.Series{Year: 2014, Values: []float64{1}}
	require.NoError(t, s.PutSeries(ctx, "A2", "temp_air", in))
	require.NoError(t, s.PutSeries(ctx, "A1", "temp_air", in))
	require.NoError(t, s.PutSeries(ctx, "A1", "set1/col_a_b_c", in))
	require.NoError(t, s.PutSeries(ctx, "A3", "temp_air", &series.Series{Year: 2015, Values: []float64{1}}))

	keys, err := s.Keys(ctx, 2014)
	require.NoError(t, err)
	assert.Equal(t, []model.SeriesKey{"A1", "A2"}, keys)

	fields, err := s.Fields(ctx, 2014)
	require.NoError(t, err)
	assert.Equal(t, []string{"set1/col_a_b_c", "temp_air"}, fields)
}

func TestSnapshotKeys(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutSeries(ctx, "A1", "temp_air", &series.Series{Year: 2014, Values: []float64{1}}))

	path := filepath.Join(t.TempDir(), "keys", "coastdat_keys.csv")
	require.NoError(t, s.SnapshotKeys(ctx, 2014, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "A1")

	// Existing snapshot is left untouched.
	before, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, s.PutSeries(ctx, "A2", "temp_air", &series.Series{Year: 2014, Values: []float64{1}}))
	require.NoError(t, s.SnapshotKeys(ctx, 2014, path))
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size())
}
