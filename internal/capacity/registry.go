// Package capacity supplies installed-capacity weights from the power
// plant registry and annual energy totals from the BMWi statistics
// workbook.
package capacity

import (
	"context"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/fetcher"
	"github.com/reegis/coastdat-cli/internal/model"
)

// key addresses one installed-capacity value.
type key struct {
	Category string
	Region   model.RegionID
	Point    model.PointID
	Year     int
}

// Provider answers capacity-weight lookups for the aggregation step.
// Weights are non-negative; a missing entry means zero installed capacity.
type Provider struct {
	weights map[key]float64
}

// Entry is one installed-capacity record.
type Entry struct {
	Category string
	Region   model.RegionID
	Point    model.PointID
	Year     int
	MW       float64
}

// NewProvider builds a provider from in-memory entries. Entries sharing a
// key are summed, matching the registry loader.
func NewProvider(entries []Entry) *Provider {
	p := &Provider{weights: make(map[key]float64, len(entries))}
	for _, e := range entries {
		p.weights[key{Category: e.Category, Region: e.Region, Point: e.Point, Year: e.Year}] += e.MW
	}
	return p
}

// Capacity returns the installed capacity in MW for one grid point within
// a region, for a category and year.
func (p *Provider) Capacity(category string, region model.RegionID, point model.PointID, year int) float64 {
	return p.weights[key{Category: category, Region: region, Point: point, Year: year}]
}

// RegionTotal sums the installed capacity over the given points of a
// region. The result is the normalizing divisor of the capacity-weighted
// aggregation.
func (p *Provider) RegionTotal(category string, region model.RegionID, points []model.PointID, year int) float64 {
	var total float64
	for _, pt := range points {
		total += p.Capacity(category, region, pt, year)
	}
	return total
}

// Len returns the number of loaded weight entries.
func (p *Provider) Len() int { return len(p.weights) }

// LoadRegistry reads the power-plant registry CSV. Expected columns:
// category, region, coastdat_id, year, capacity. Negative capacities are
// rejected; multiple rows for the same key are summed (a region can hold
// several plants at one grid point).
func LoadRegistry(ctx context.Context, path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "capacity: open registry %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	header := <-headerCh
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, want := range []string{"category", "region", "coastdat_id", "year", "capacity"} {
		if _, ok := cols[want]; !ok {
			return nil, eris.Errorf("capacity: registry %s has no %s column", path, want)
		}
	}

	p := &Provider{weights: make(map[key]float64)}
	line := 1
	for row := range rowCh {
		line++
		pointID, err := strconv.Atoi(row[cols["coastdat_id"]])
		if err != nil {
			return nil, eris.Wrapf(err, "capacity: bad coastdat_id at line %d", line)
		}
		year, err := strconv.Atoi(row[cols["year"]])
		if err != nil {
			return nil, eris.Wrapf(err, "capacity: bad year at line %d", line)
		}
		mw, err := strconv.ParseFloat(row[cols["capacity"]], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "capacity: bad capacity at line %d", line)
		}
		if mw < 0 {
			return nil, eris.Errorf("capacity: negative capacity %g at line %d", mw, line)
		}

		k := key{
			Category: row[cols["category"]],
			Region:   model.RegionID(row[cols["region"]]),
			Point:    model.PointID(pointID),
			Year:     year,
		}
		p.weights[k] += mw
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	zap.L().Info("capacity registry loaded",
		zap.String("path", path),
		zap.Int("entries", len(p.weights)),
	)
	return p, nil
}
