package series

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reegis/coastdat-cli/internal/model"
)

func TestHoursInYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8784, HoursInYear(2016))
	assert.Equal(t, 8760, HoursInYear(2015))
	assert.Equal(t, 8760, HoursInYear(1900)) // century, not leap
	assert.Equal(t, 8784, HoursInYear(2000))
}

func TestNormalize_TruncatesLong(t *testing.T) {
	t.Parallel()

	vals := make([]float64, 8761)
	for i := range vals {
		vals[i] = float64(i)
	}
	s := &Series{Year: 2015, Values: vals}

	require.NoError(t, s.Normalize("A1", ShortPolicyError))
	assert.Len(t, s.Values, 8760)
	// prefix-preserving
	assert.Equal(t, 0.0, s.Values[0])
	assert.Equal(t, 8759.0, s.Values[8759])
}

func TestNormalize_ExactLengthUntouched(t *testing.T) {
	t.Parallel()

	s := &Series{Year: 2016, Values: make([]float64, 8784)}
	require.NoError(t, s.Normalize("A1", ShortPolicyError))
	assert.Len(t, s.Values, 8784)
}

func TestNormalize_ShortErrors(t *testing.T) {
	t.Parallel()

	s := &Series{Year: 2015, Values: make([]float64, 100)}
	err := s.Normalize("A42", ShortPolicyError)
	require.Error(t, err)

	var short *ShortSeriesError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "A42", short.Key)
	assert.Equal(t, 8760, short.Expected)
	assert.Equal(t, 100, short.Got)
}

func TestNormalize_ShortPads(t *testing.T) {
	t.Parallel()

	s := &Series{Year: 2015, Values: []float64{1, 2, 3}}
	require.NoError(t, s.Normalize("A1", ShortPolicyPad))
	assert.Len(t, s.Values, 8760)
	assert.Equal(t, []float64{1, 2, 3}, s.Values[:3])
	assert.Equal(t, 0.0, s.Values[3])
}

func TestParseShortPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseShortPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ShortPolicyError, p)

	p, err = ParseShortPolicy("pad")
	require.NoError(t, err)
	assert.Equal(t, ShortPolicyPad, p)

	_, err = ParseShortPolicy("guess")
	assert.Error(t, err)
}

func TestHourlyIndex(t *testing.T) {
	t.Parallel()

	idx, err := HourlyIndex(2014, "Europe/Berlin")
	require.NoError(t, err)
	require.Len(t, idx, 8760)
	assert.Equal(t, 2014, idx[0].Year())
	assert.Equal(t, 0, idx[0].Hour())
	assert.Equal(t, 23, idx[len(idx)-1].Hour())
	assert.Equal(t, 31, idx[len(idx)-1].Day())

	leap, err := HourlyIndex(2012, "Europe/Berlin")
	require.NoError(t, err)
	assert.Len(t, leap, 8784)
}

func TestWriteMulti_AndReadHeaderBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "feedin.csv")

	cols := []ResultColumn{
		{Region: "BE", Set: "set1", Subset: "hub98_pwr_2300", Values: constant(8760, 0.5)},
		{Region: "HH", Set: "set1", Subset: "hub98_pwr_2300", Values: constant(8760, 1.6)},
	}

	written, err := WriteMulti(path, cols, 2014, "Europe/Berlin", false)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := ReadMultiHeader(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.RegionID("BE"), got[0].Region)
	assert.Equal(t, "set1", got[0].Set)
	assert.Equal(t, "hub98_pwr_2300", got[1].Subset)
}

func TestWriteMulti_SkipIfExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "feedin.csv")
	cols := []ResultColumn{{Region: "BE", Set: "s", Subset: "a_b_c", Values: constant(8760, 1)}}

	written, err := WriteMulti(path, cols, 2014, "Europe/Berlin", false)
	require.NoError(t, err)
	require.True(t, written)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// Second run must skip and leave the file byte-identical.
	written, err = WriteMulti(path, cols, 2014, "Europe/Berlin", false)
	require.NoError(t, err)
	assert.False(t, written)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWriteSingle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "avg_temp.csv")
	values := map[model.RegionID][]float64{
		"BE": constant(8760, 280.15),
		"TH": constant(8760, 279.0),
	}

	written, err := WriteSingle(path, []model.RegionID{"BE", "TH"}, values, 2014, "Europe/Berlin", false)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ",BE,TH")
}

func constant(n int, v float64) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = v
	}
	return vals
}
