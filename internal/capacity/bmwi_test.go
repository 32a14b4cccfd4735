package capacity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet(sheet)
	require.NoError(t, err)
	for _, row := range rows {
		r := sh.AddRow()
		for _, cell := range row {
			r.AddCell().Value = cell
		}
	}
	path := filepath.Join(t.TempDir(), "bmwi.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadBMWi(t *testing.T) {
	path := writeWorkbook(t, "4 (EE)", [][]string{
		{"Technologie", "Jahr", "Strom (GWh)", "Leistung (MW)"},
		{"Wasserkraft", "2014", "19600", "5600"},
		{"Wasserkraft", "2015", "19000", "5600"},
		{"", "", "", ""},
		{"Windenergie an Land", "2014", "57000", "38000"},
	})

	b, err := LoadBMWi(path, "4 (EE)")
	require.NoError(t, err)

	f, err := b.Figures("Wasserkraft", 2014)
	require.NoError(t, err)
	assert.Equal(t, 19600.0, f.EnergyGWh)
	assert.Equal(t, 5600.0, f.CapacityMW)

	flh, err := f.FullLoadHours()
	require.NoError(t, err)
	assert.InDelta(t, 3500, flh, 1e-9)

	// Lookup is case-insensitive.
	_, err = b.Figures("wasserkraft", 2015)
	assert.NoError(t, err)

	_, err = b.Figures("Wasserkraft", 1990)
	require.Error(t, err)

	_, err = b.Figures("Photovoltaik", 2014)
	require.Error(t, err)
}

func TestLoadBMWiMissingSheet(t *testing.T) {
	path := writeWorkbook(t, "other", [][]string{{"a", "b", "c", "d"}})
	_, err := LoadBMWi(path, "4 (EE)")
	require.Error(t, err)
}

func TestLoadBMWiRejectsBadNumbers(t *testing.T) {
	path := writeWorkbook(t, "4 (EE)", [][]string{
		{"Technologie", "Jahr", "Strom (GWh)", "Leistung (MW)"},
		{"Wasserkraft", "not-a-year", "19600", "5600"},
	})
	_, err := LoadBMWi(path, "4 (EE)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad year")
}
