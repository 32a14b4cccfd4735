package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reegis/coastdat-cli/internal/series"
)

func TestLoadArchiveCSV(t *testing.T) {
	st := openStore(t)

	data := "7,v_wind,1.5,2.5,3.5\n8,v_wind,4,5,6\n7,temp_air,280,281,282\n"
	n, err := st.LoadArchiveCSV(context.Background(), strings.NewReader(data), 2014)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := st.GetSeries(context.Background(), "A7", "v_wind", 2014)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, got.Values)
	assert.Equal(t, 2014, got.Year)

	fields, err := st.Fields(context.Background(), 2014)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp_air", "v_wind"}, fields)
}

func TestLoadArchiveCSVKeepsExisting(t *testing.T) {
	st := openStore(t)
	require.NoError(t, st.PutSeries(context.Background(), "A7", "v_wind",
		&series.Series{Year: 2014, Values: []float64{9}}))

	n, err := st.LoadArchiveCSV(context.Background(), strings.NewReader("7,v_wind,1,2\n"), 2014)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := st.GetSeries(context.Background(), "A7", "v_wind", 2014)
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, got.Values)
}

func TestLoadArchiveCSVRejectsMalformedRows(t *testing.T) {
	st := openStore(t)

	_, err := st.LoadArchiveCSV(context.Background(), strings.NewReader("7,v_wind\n"), 2014)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")

	_, err = st.LoadArchiveCSV(context.Background(), strings.NewReader("x,v_wind,1\n"), 2014)
	require.Error(t, err)

	_, err = st.LoadArchiveCSV(context.Background(), strings.NewReader("7,v_wind,abc\n"), 2014)
	require.Error(t, err)
}
