// Package inhabitants aggregates municipality population counts into the
// target regions. Each municipality polygon is reduced to its
// representative point and run through the same spatial join the weather
// grid uses; the population figures are then summed per region.
package inhabitants

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/geometry"
	"github.com/reegis/coastdat-cli/internal/join"
	"github.com/reegis/coastdat-cli/internal/model"
)

// DefaultPopulationField is the population attribute of the German VG250
// administrative distributions.
const DefaultPopulationField = "EWZ"

// Load reads a municipality shapefile. Every polygon is reduced to its
// representative point and numbered sequentially; the returned counts map
// the point numbers to the population attribute values.
func Load(shpPath, popField string) (*geometry.Geometry, map[model.PointID]float64, error) {
	src, err := geometry.LoadShapefile("municipalities", shpPath, geometry.ShapefileOptions{
		NameField: popField,
	})
	if err != nil {
		return nil, nil, err
	}

	points := geometry.New("municipalities")
	counts := make(map[model.PointID]float64, src.Len())
	for i, f := range src.Features() {
		count, err := parseCount(f.Name)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "inhabitants: %s of record %s", popField, f.ID)
		}
		rep, err := geometry.RepresentativePoint(f.Geom)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "inhabitants: representative point of record %s", f.ID)
		}

		id := model.PointID(i + 1)
		err = points.Add(geometry.Feature{
			ID:   strconv.Itoa(int(id)),
			Geom: geom.NewPointFlat(geom.XY, []float64{rep[0], rep[1]}),
		})
		if err != nil {
			return nil, nil, err
		}
		counts[id] = count
	}

	zap.L().Info("municipalities loaded",
		zap.String("path", shpPath),
		zap.Int("n", points.Len()),
	)
	return points, counts, nil
}

func parseCount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("inhabitants: empty population value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrap(err, "inhabitants: parse population value")
	}
	if v < 0 {
		return 0, eris.Errorf("inhabitants: negative population value %g", v)
	}
	return v, nil
}

// ByRegion joins the municipality points to regions and sums the
// population per region. Municipalities outside every region are dropped,
// matching the joiner's unassigned-point behavior.
func ByRegion(points *geometry.Geometry, counts map[model.PointID]float64, regions *geometry.Geometry, opts join.Options) (map[model.RegionID]float64, error) {
	asg, err := join.Join(points, regions, opts)
	if err != nil {
		return nil, err
	}

	totals := make(map[model.RegionID]float64)
	for _, e := range asg.Entries() {
		totals[e.Region] += counts[e.Point]
	}
	return totals, nil
}

// WriteCSV writes (region, inhabitants) rows sorted by region id. An
// existing file is kept unless overwrite is set.
func WriteCSV(path string, totals map[model.RegionID]float64, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			zap.L().Info("inhabitants file exists, skipping", zap.String("path", path))
			return false, nil
		}
	}

	regions := make([]model.RegionID, 0, len(totals))
	for r := range totals {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	f, err := os.Create(path)
	if err != nil {
		return false, eris.Wrapf(err, "inhabitants: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"region", "inhabitants"}); err != nil {
		return false, eris.Wrap(err, "inhabitants: write header")
	}
	for _, r := range regions {
		row := []string{string(r), strconv.FormatFloat(totals[r], 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			return false, eris.Wrapf(err, "inhabitants: write row %s", r)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, eris.Wrapf(err, "inhabitants: flush %s", path)
	}
	return true, nil
}
