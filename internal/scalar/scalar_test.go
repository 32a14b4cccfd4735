package scalar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reegis/coastdat-cli/internal/capacity"
	"github.com/reegis/coastdat-cli/internal/model"
)

func TestUniform(t *testing.T) {
	values, err := Uniform(4380, 2014)
	require.NoError(t, err)
	require.Len(t, values, 8760)
	assert.InDelta(t, 0.5, values[0], 1e-12)
	assert.InDelta(t, 0.5, values[8759], 1e-12)

	// Leap years spread over 8784 hours.
	values, err = Uniform(4392, 2012)
	require.NoError(t, err)
	require.Len(t, values, 8784)
	assert.InDelta(t, 0.5, values[0], 1e-12)
}

func TestUniformRejectsImpossibleHours(t *testing.T) {
	_, err := Uniform(-1, 2014)
	require.Error(t, err)

	_, err = Uniform(9000, 2014)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceed")
}

func TestHydroProfiles(t *testing.T) {
	bmwi := capacity.NewBMWi([]capacity.AnnualFigures{
		{Technology: HydroTechnology, Year: 2014, EnergyGWh: 19.6, CapacityMW: 5600},
	})

	out, err := HydroProfiles(bmwi, []model.RegionID{"DE01", "DE02"}, 2014)
	require.NoError(t, err)
	require.Len(t, out, 2)

	want := 19.6 / 5600 * 1000 / 8760
	assert.InDelta(t, want, out["DE01"][0], 1e-12)
	assert.InDelta(t, want, out["DE02"][100], 1e-12)

	// Copies are independent.
	out["DE01"][0] = 99
	assert.InDelta(t, want, out["DE02"][0], 1e-12)
}

func TestHydroProfilesMissingYear(t *testing.T) {
	bmwi := capacity.NewBMWi(nil)
	_, err := HydroProfiles(bmwi, []model.RegionID{"DE01"}, 2014)
	require.Error(t, err)
}

func TestGeothermalProfiles(t *testing.T) {
	out, err := GeothermalProfiles(3000, []model.RegionID{"DE01"}, 2014)
	require.NoError(t, err)
	assert.InDelta(t, 3000.0/8760.0, out["DE01"][0], 1e-12)
}
