// Package scalar builds uniform feed-in profiles for technologies without
// weather-driven hourly variation. Run-of-river hydro uses the full-load
// hours derived from annual statistics, geothermal uses a configured
// constant.
package scalar

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/capacity"
	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
)

// HydroTechnology is the BMWi workbook label of run-of-river hydro.
const HydroTechnology = "Wasserkraft"

// Uniform spreads annual full-load hours evenly over the year, yielding a
// constant capacity factor per hour. Full-load hours beyond the year
// length would imply a capacity factor above one and are rejected.
func Uniform(fullLoadHours float64, year int) ([]float64, error) {
	hours := series.HoursInYear(year)
	if fullLoadHours < 0 {
		return nil, eris.Errorf("scalar: negative full-load hours %g", fullLoadHours)
	}
	if fullLoadHours > float64(hours) {
		return nil, eris.Errorf("scalar: full-load hours %g exceed the %d hours of %d", fullLoadHours, hours, year)
	}

	factor := fullLoadHours / float64(hours)
	values := make([]float64, hours)
	for i := range values {
		values[i] = factor
	}
	return values, nil
}

// HydroProfiles builds one uniform hydro profile per region from the BMWi
// annual figures. All regions share the national capacity factor, so the
// columns only differ in name.
func HydroProfiles(bmwi *capacity.BMWi, regions []model.RegionID, year int) (map[model.RegionID][]float64, error) {
	figures, err := bmwi.Figures(HydroTechnology, year)
	if err != nil {
		return nil, err
	}
	flh, err := figures.FullLoadHours()
	if err != nil {
		return nil, err
	}
	zap.L().Info("hydro full-load hours",
		zap.Int("year", year),
		zap.Float64("flh", flh),
	)
	return uniformPerRegion(flh, regions, year)
}

// GeothermalProfiles builds one uniform geothermal profile per region
// from configured full-load hours.
func GeothermalProfiles(fullLoadHours float64, regions []model.RegionID, year int) (map[model.RegionID][]float64, error) {
	return uniformPerRegion(fullLoadHours, regions, year)
}

func uniformPerRegion(flh float64, regions []model.RegionID, year int) (map[model.RegionID][]float64, error) {
	profile, err := Uniform(flh, year)
	if err != nil {
		return nil, err
	}
	out := make(map[model.RegionID][]float64, len(regions))
	for _, r := range regions {
		// Each region gets its own copy so downstream mutation stays local.
		out[r] = append([]float64(nil), profile...)
	}
	return out, nil
}
