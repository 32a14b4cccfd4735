// Package aggregate turns per-grid-point hourly series into per-region
// result columns, either as an arithmetic mean (weather variables) or as
// a capacity-weighted normalized sum (feed-in profiles).
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reegis/coastdat-cli/internal/capacity"
	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/progress"
	"github.com/reegis/coastdat-cli/internal/series"
)

// SeriesReader is the slice of the series store the aggregator needs.
type SeriesReader interface {
	GetSeries(ctx context.Context, key model.SeriesKey, field string, year int) (*series.Series, error)
}

// SetSpec names one feed-in set and the stored fields (subsets) it covers.
type SetSpec struct {
	Name   string
	Fields []string
}

// SetsFromFields groups the stored fields of one category into feed-in
// sets. Fields are named "<category>_<set>_<subset>"; fields of other
// categories are ignored. Set order follows first appearance.
func SetsFromFields(category string, fields []string) []SetSpec {
	prefix := category + "_"
	index := make(map[string]int)
	var sets []SetSpec
	for _, field := range fields {
		if !strings.HasPrefix(field, prefix) {
			continue
		}
		name := strings.TrimPrefix(field, prefix)
		if subset := model.SubsetLabel(name); subset != name {
			name = strings.TrimSuffix(name, "_"+subset)
		}
		i, ok := index[name]
		if !ok {
			i = len(sets)
			index[name] = i
			sets = append(sets, SetSpec{Name: name})
		}
		sets[i].Fields = append(sets[i].Fields, field)
	}
	return sets
}

// Options tunes an aggregation run.
type Options struct {
	// Workers bounds column-level concurrency. Zero means GOMAXPROCS.
	Workers int
	// ShortPolicy decides what to do with series shorter than the year.
	ShortPolicy series.ShortPolicy
	// Reporter receives one step per finished region. Nil means no reports.
	Reporter progress.Reporter
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) reporter() progress.Reporter {
	if o.Reporter == nil {
		return progress.Nop{}
	}
	return o.Reporter
}

// ZeroCapacityError reports a region whose installed capacity sums to zero
// for the requested category and year. Its columns are omitted from the
// result instead of being filled with NaN.
type ZeroCapacityError struct {
	Region   model.RegionID
	Category string
	Year     int
}

func (e *ZeroCapacityError) Error() string {
	return fmt.Sprintf("region %s has zero %s capacity in %d", e.Region, e.Category, e.Year)
}

// NoPointsError reports a region with no assigned grid points. The
// empty-region fix normally prevents this; seeing it means the assignment
// table was built without the fix.
type NoPointsError struct {
	Region model.RegionID
}

func (e *NoPointsError) Error() string {
	return fmt.Sprintf("region %s has no assigned grid points", e.Region)
}

// Report collects the per-region problems of a run. Data problems (zero
// capacity, short series under the error policy, missing regions) land
// here and omit the affected columns; I/O and store failures abort the
// run instead.
type Report struct {
	mu      sync.Mutex
	errs    []error
	skipped []model.RegionID
}

func (r *Report) add(region model.RegionID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.skipped = append(r.skipped, region)
}

// Errs returns the collected data problems.
func (r *Report) Errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Skipped returns the regions whose columns were omitted.
func (r *Report) Skipped() []model.RegionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.RegionID(nil), r.skipped...)
}

// Empty reports whether the run finished without data problems.
func (r *Report) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs) == 0
}

// MeanByRegion averages one stored field over each region's grid points.
// Single-point regions pass their series through unchanged.
func MeanByRegion(ctx context.Context, reader SeriesReader, asg *model.Assignment, field string, year int, opts Options) (map[model.RegionID][]float64, *Report, error) {
	regions := asg.Regions()
	report := &Report{}
	out := make(map[model.RegionID][]float64, len(regions))

	var mu sync.Mutex
	var done int

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	rep := opts.reporter()

	for _, region := range regions {
		g.Go(func() error {
			values, err := meanRegion(ctx, reader, asg, region, field, year, opts.ShortPolicy)

			mu.Lock()
			defer mu.Unlock()
			done++
			rep.Step(done, len(regions))
			switch {
			case err == nil:
				out[region] = values
			case isDataError(err):
				zap.L().Warn("region omitted from mean",
					zap.String("region", string(region)),
					zap.String("field", field),
					zap.Error(err),
				)
				report.add(region, err)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrapf(err, "aggregate: mean of %s for %d", field, year)
	}
	return out, report, nil
}

func meanRegion(ctx context.Context, reader SeriesReader, asg *model.Assignment, region model.RegionID, field string, year int, policy series.ShortPolicy) ([]float64, error) {
	points := asg.PointsIn(region)
	if len(points) == 0 {
		return nil, &NoPointsError{Region: region}
	}

	hours := series.HoursInYear(year)
	acc := make([]float64, hours)
	for _, p := range points {
		values, err := readNormalized(ctx, reader, p, field, year, policy)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			acc[i] += v
		}
	}
	if len(points) > 1 {
		n := float64(len(points))
		for i := range acc {
			acc[i] /= n
		}
	}
	return acc, nil
}

// FeedinByRegion builds the capacity-weighted normalized feed-in columns
// for every region in the assignment, one column per (region, set, subset).
// Regions with zero installed capacity are reported and omitted. Columns
// are ordered region-major, matching the order of the region and set lists.
func FeedinByRegion(ctx context.Context, reader SeriesReader, asg *model.Assignment, caps *capacity.Provider, category string, sets []SetSpec, year int, opts Options) ([]series.ResultColumn, *Report, error) {
	regions := asg.Regions()
	report := &Report{}

	// perRegion[i] is nil when region i was skipped.
	perRegion := make([][]series.ResultColumn, len(regions))

	var mu sync.Mutex
	var done int

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	rep := opts.reporter()

	for i, region := range regions {
		g.Go(func() error {
			cols, err := feedinRegion(ctx, reader, asg, caps, category, region, sets, year, opts.ShortPolicy)

			mu.Lock()
			defer mu.Unlock()
			done++
			rep.Step(done, len(regions))
			switch {
			case err == nil:
				perRegion[i] = cols
			case isDataError(err):
				zap.L().Warn("region omitted from feed-in",
					zap.String("region", string(region)),
					zap.String("category", category),
					zap.Error(err),
				)
				report.add(region, err)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrapf(err, "aggregate: %s feed-in for %d", category, year)
	}

	var columns []series.ResultColumn
	for _, cols := range perRegion {
		columns = append(columns, cols...)
	}
	return columns, report, nil
}

func feedinRegion(ctx context.Context, reader SeriesReader, asg *model.Assignment, caps *capacity.Provider, category string, region model.RegionID, sets []SetSpec, year int, policy series.ShortPolicy) ([]series.ResultColumn, error) {
	points := asg.PointsIn(region)
	if len(points) == 0 {
		return nil, &NoPointsError{Region: region}
	}

	total := caps.RegionTotal(category, region, points, year)
	if total == 0 {
		return nil, &ZeroCapacityError{Region: region, Category: category, Year: year}
	}

	hours := series.HoursInYear(year)
	var cols []series.ResultColumn
	for _, set := range sets {
		for _, field := range set.Fields {
			acc := make([]float64, hours)
			for _, p := range points {
				weight := caps.Capacity(category, region, p, year)
				if weight == 0 {
					continue
				}
				values, err := readNormalized(ctx, reader, p, field, year, policy)
				if err != nil {
					return nil, err
				}
				for i, v := range values {
					acc[i] += v * weight
				}
			}
			for i := range acc {
				acc[i] /= total
			}
			cols = append(cols, series.ResultColumn{
				Region: region,
				Set:    set.Name,
				Subset: model.SubsetLabel(field),
				Values: acc,
			})
		}
	}
	return cols, nil
}

func readNormalized(ctx context.Context, reader SeriesReader, p model.PointID, field string, year int, policy series.ShortPolicy) ([]float64, error) {
	key := model.EncodeSeriesKey(p)
	s, err := reader.GetSeries(ctx, key, field, year)
	if err != nil {
		return nil, err
	}
	if err := s.Normalize(string(key), policy); err != nil {
		return nil, err
	}
	return s.Values, nil
}

// isDataError distinguishes reportable per-region data problems from
// failures that must abort the whole run.
func isDataError(err error) bool {
	var zc *ZeroCapacityError
	var np *NoPointsError
	var ss *series.ShortSeriesError
	return errors.As(err, &zc) || errors.As(err, &np) || errors.As(err, &ss)
}
