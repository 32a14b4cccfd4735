package aggregate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	m := NewManifest(2014)
	m.Category = "Wind"
	m.Sets = []string{"ENERCON_127_hub135_pwr_7500"}
	m.Regions = 3
	m.Columns = 2

	report := &Report{}
	report.add("DE03", &ZeroCapacityError{Region: "DE03", Category: "Wind", Year: 2014})
	m.Finish(report)

	require.NotEmpty(t, m.RunID)
	require.False(t, m.Finished.IsZero())

	path := filepath.Join(t.TempDir(), "wind.run.yaml")
	require.NoError(t, WriteManifest(path, m))

	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, 2014, got.Year)
	assert.Equal(t, []string{"DE03"}, got.Skipped)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "zero Wind capacity")
}

func TestManifestPath(t *testing.T) {
	assert.Equal(t, "out/wind_2014.run.yaml", ManifestPath("out/wind_2014.csv"))
}
