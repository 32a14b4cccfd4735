// Package join builds the grid-point to region assignment table: exact
// point-in-polygon containment, a stepwise buffer search for points the
// coarse grid leaves marginally outside every region, and a fallback fix
// that guarantees every requested region at least one contributing point.
package join

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/geometry"
	"github.com/reegis/coastdat-cli/internal/model"
)

// Options tunes the containment join. The buffer is a correction for
// float/format de-alignment between polygon boundaries and grid points,
// not a business parameter.
type Options struct {
	// BufferStep is the tolerance increment for unmatched points, in
	// degrees. Default 0.05.
	BufferStep float64
	// BufferLimit caps the tolerance search. Default 1.0. Zero disables
	// buffering entirely (exact containment only).
	BufferLimit float64
}

func (o Options) withDefaults() Options {
	if o.BufferStep == 0 {
		o.BufferStep = 0.05
	}
	if o.BufferLimit == 0 {
		o.BufferLimit = 1.0
	}
	return o
}

// UnmatchedRegionError reports a region for which even the fallback fix
// found no intersecting grid cell. This is fatal for the region.
type UnmatchedRegionError struct {
	Region model.RegionID
}

func (e *UnmatchedRegionError) Error() string {
	return fmt.Sprintf("region %s matches no grid point and no grid cell intersects its representative point", e.Region)
}

// Join assigns every grid point to the region containing it. Points are the
// centroid-reduced grid; regions are the target polygons. Points contained
// by no region are retried with a growing tolerance up to Options.BufferLimit;
// points that still match nothing are left unassigned.
func Join(points, regions *geometry.Geometry, opts Options) (*model.Assignment, error) {
	opts = opts.withDefaults()
	log := zap.L().With(
		zap.String("component", "join"),
		zap.String("points", points.Name),
		zap.String("regions", regions.Name),
	)
	log.Info("joining grid points to regions", zap.Int("n_points", points.Len()))

	asg := model.NewAssignment()
	var unmatched []geometry.Feature

	for _, pf := range points.Features() {
		c, err := geometry.Coord(pf)
		if err != nil {
			return nil, err
		}
		region, ok := containingRegion(regions, c, 0)
		if !ok {
			unmatched = append(unmatched, pf)
			continue
		}
		id, err := pointID(pf)
		if err != nil {
			return nil, err
		}
		asg.Assign(id, region)
	}

	if len(unmatched) == 0 {
		log.Info("joined, buffering not necessary", zap.Int("assigned", asg.Len()))
		return asg, nil
	}

	frac := float64(len(unmatched)) / float64(points.Len())
	log.Info("buffering non-matching points",
		zap.Int("count", len(unmatched)),
		zap.Float64("fraction", frac),
	)
	if frac > 0.2 {
		log.Warn("unusually many points missed the exact join, check the region set covers the grid",
			zap.Float64("fraction", frac),
		)
	}

	for buf := opts.BufferStep; buf <= opts.BufferLimit && len(unmatched) > 0; buf += opts.BufferStep {
		var still []geometry.Feature
		for _, pf := range unmatched {
			c, err := geometry.Coord(pf)
			if err != nil {
				return nil, err
			}
			region, ok := containingRegion(regions, c, buf)
			if !ok {
				still = append(still, pf)
				continue
			}
			id, err := pointID(pf)
			if err != nil {
				return nil, err
			}
			asg.Assign(id, region)
		}
		if len(still) < len(unmatched) {
			log.Debug("buffer pass matched points",
				zap.Float64("buffer", buf),
				zap.Int("remaining", len(still)),
			)
		}
		unmatched = still
	}

	if len(unmatched) > 0 {
		log.Warn("points remain outside every region after buffering, leaving them unassigned",
			zap.Int("count", len(unmatched)),
			zap.Float64("limit", opts.BufferLimit),
		)
	}

	log.Info("join complete", zap.Int("assigned", asg.Len()))
	return asg, nil
}

// containingRegion returns the first region whose polygon contains (or with
// tol > 0, nearly contains) the coordinate. When several regions match a
// buffered point the first one in collection order wins.
func containingRegion(regions *geometry.Geometry, c geom.Coord, tol float64) (model.RegionID, bool) {
	var found model.RegionID
	matches := 0
	for _, rf := range regions.Features() {
		if geometry.WithinTolerance(rf.Geom, c, tol) {
			if matches == 0 {
				found = model.RegionID(rf.ID)
			}
			matches++
			if tol == 0 {
				// Regions do not overlap; exact containment is unique.
				break
			}
		}
	}
	if matches > 1 {
		zap.L().Warn("buffered point matches several regions, first one taken; use a smaller buffer step",
			zap.Int("matches", matches),
			zap.Float64("buffer", tol),
		)
	}
	return found, matches > 0
}

func pointID(f geometry.Feature) (model.PointID, error) {
	id, err := strconv.Atoi(f.ID)
	if err != nil {
		return 0, eris.Wrapf(err, "join: grid id %q is not an integer", f.ID)
	}
	return model.PointID(id), nil
}

// FixEmptyRegions assigns one synthetic grid point to every requested
// region that received no natural assignment. The fix tests each region's
// representative interior point against the unreduced grid-cell polygons
// and picks the first intersecting cell in ascending grid-id order.
// Regions for which no cell intersects are returned as errors, one per
// region; the rest of the fix still runs.
func FixEmptyRegions(asg *model.Assignment, regions, cells *geometry.Geometry) ([]model.RegionID, []error) {
	covered := make(map[model.RegionID]struct{})
	for _, r := range asg.Regions() {
		covered[r] = struct{}{}
	}

	cellFeatures := sortedByNumericID(cells.Features())

	var fixed []model.RegionID
	var errs []error
	for _, rf := range regions.Features() {
		region := model.RegionID(rf.ID)
		if _, ok := covered[region]; ok {
			continue
		}

		rep, err := geometry.RepresentativePoint(rf.Geom)
		if err != nil {
			errs = append(errs, eris.Wrapf(err, "join: representative point of %s", region))
			continue
		}

		cellID, ok := intersectingCell(cellFeatures, rep)
		if !ok {
			errs = append(errs, &UnmatchedRegionError{Region: region})
			continue
		}

		asg.AssignFallback(cellID, region)
		fixed = append(fixed, region)
		zap.L().Warn("region matched no grid point, synthetic fallback assignment used",
			zap.String("region", string(region)),
			zap.Int("grid_id", int(cellID)),
		)
	}

	return fixed, errs
}

func intersectingCell(cells []geometry.Feature, c geom.Coord) (model.PointID, bool) {
	for _, cf := range cells {
		// On-boundary representative points still count as intersecting.
		if geometry.WithinTolerance(cf.Geom, c, 1e-9) {
			id, err := pointID(cf)
			if err != nil {
				continue
			}
			return id, true
		}
	}
	return 0, false
}

func sortedByNumericID(features []geometry.Feature) []geometry.Feature {
	out := make([]geometry.Feature, len(features))
	copy(out, features)
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i].ID)
		b, errB := strconv.Atoi(out[j].ID)
		if errA != nil || errB != nil {
			return out[i].ID < out[j].ID
		}
		return a < b
	})
	return out
}
