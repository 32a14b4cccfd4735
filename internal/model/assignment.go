package model

import "sort"

// AssignmentEntry records the region a grid point was assigned to.
// Fallback marks synthetic assignments made for regions that matched no
// point naturally.
type AssignmentEntry struct {
	Point    PointID  `json:"point"`
	Region   RegionID `json:"region"`
	Fallback bool     `json:"fallback,omitempty"`
}

// Assignment maps grid points to regions. A point maps to at most one
// region by natural containment; a region that matched no point may in
// addition borrow one synthetic fallback point. Fallbacks are kept apart
// from the containment table so a borrowed point still counts for its
// natural region.
type Assignment struct {
	byPoint   map[PointID]RegionID
	fallbacks map[RegionID]PointID
}

// NewAssignment returns an empty assignment table.
func NewAssignment() *Assignment {
	return &Assignment{
		byPoint:   make(map[PointID]RegionID),
		fallbacks: make(map[RegionID]PointID),
	}
}

// Assign records a natural containment assignment. A later Assign for the
// same point overwrites the earlier one.
func (a *Assignment) Assign(p PointID, r RegionID) {
	a.byPoint[p] = r
}

// AssignFallback records the synthetic point of the empty-region fix.
// The point's natural assignment, if any, is left untouched.
func (a *Assignment) AssignFallback(p PointID, r RegionID) {
	a.fallbacks[r] = p
}

// Len returns the number of assignment entries, natural plus fallback.
func (a *Assignment) Len() int { return len(a.byPoint) + len(a.fallbacks) }

// Region returns the region a point is naturally assigned to.
func (a *Assignment) Region(p PointID) (RegionID, bool) {
	r, ok := a.byPoint[p]
	return r, ok
}

// PointsIn returns the points a region draws from in ascending id order:
// its naturally contained points plus its fallback point, if one exists.
func (a *Assignment) PointsIn(r RegionID) []PointID {
	var pts []PointID
	for p, pr := range a.byPoint {
		if pr == r {
			pts = append(pts, p)
		}
	}
	if fb, ok := a.fallbacks[r]; ok && a.byPoint[fb] != r {
		pts = append(pts, fb)
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i] < pts[j] })
	return pts
}

// Regions returns all regions present in the table, sorted.
func (a *Assignment) Regions() []RegionID {
	seen := make(map[RegionID]struct{})
	for _, r := range a.byPoint {
		seen[r] = struct{}{}
	}
	for r := range a.fallbacks {
		seen[r] = struct{}{}
	}
	regions := make([]RegionID, 0, len(seen))
	for r := range seen {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions
}

// Entries returns all entries ordered by point id, natural before
// fallback for the same point.
func (a *Assignment) Entries() []AssignmentEntry {
	entries := make([]AssignmentEntry, 0, len(a.byPoint)+len(a.fallbacks))
	for p, r := range a.byPoint {
		entries = append(entries, AssignmentEntry{Point: p, Region: r})
	}
	for r, p := range a.fallbacks {
		entries = append(entries, AssignmentEntry{Point: p, Region: r, Fallback: true})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Point != entries[j].Point {
			return entries[i].Point < entries[j].Point
		}
		return !entries[i].Fallback && entries[j].Fallback
	})
	return entries
}

// FallbackFor returns the synthetic fallback point for a region, if one exists.
func (a *Assignment) FallbackFor(r RegionID) (PointID, bool) {
	p, ok := a.fallbacks[r]
	return p, ok
}
