// Package geometry loads polygon and point sets from shapefiles and CSV
// grids and exposes the spatial predicates used by the grid-to-region join.
// All inputs are assumed to share EPSG:4326.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Feature is one named geometry keyed by a unique identifier.
type Feature struct {
	ID   string
	Name string
	Geom geom.T
}

// Geometry is a named, ordered collection of features with unique ids.
type Geometry struct {
	Name     string
	features []Feature
	index    map[string]int
}

// New returns an empty geometry collection.
func New(name string) *Geometry {
	return &Geometry{Name: name, index: make(map[string]int)}
}

// Add appends a feature. Duplicate ids are an error.
func (g *Geometry) Add(f Feature) error {
	if _, ok := g.index[f.ID]; ok {
		return eris.Errorf("geometry: duplicate id %q in %s", f.ID, g.Name)
	}
	g.index[f.ID] = len(g.features)
	g.features = append(g.features, f)
	return nil
}

// Len returns the number of features.
func (g *Geometry) Len() int { return len(g.features) }

// IDs returns feature ids in insertion order.
func (g *Geometry) IDs() []string {
	ids := make([]string, len(g.features))
	for i, f := range g.features {
		ids[i] = f.ID
	}
	return ids
}

// Feature returns the feature with the given id.
func (g *Geometry) Feature(id string) (Feature, bool) {
	i, ok := g.index[id]
	if !ok {
		return Feature{}, false
	}
	return g.features[i], true
}

// Features returns all features in insertion order.
func (g *Geometry) Features() []Feature { return g.features }

// Centroids returns a copy of the collection with every polygon feature
// reduced to its centroid point. Point features pass through unchanged.
func (g *Geometry) Centroids() (*Geometry, error) {
	out := New(g.Name)
	for _, f := range g.features {
		switch f.Geom.(type) {
		case *geom.Point:
			if err := out.Add(f); err != nil {
				return nil, err
			}
		default:
			c, err := xy.Centroid(f.Geom)
			if err != nil {
				return nil, eris.Wrapf(err, "geometry: centroid of %s", f.ID)
			}
			pt := geom.NewPointFlat(geom.XY, []float64{c[0], c[1]})
			if err := out.Add(Feature{ID: f.ID, Name: f.Name, Geom: pt}); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Contains reports exact point-in-polygon containment. Points on a ring
// boundary count as outside, matching the strict "within" join.
func Contains(g geom.T, c geom.Coord) bool {
	switch p := g.(type) {
	case *geom.Polygon:
		return polygonContains(p, c)
	case *geom.MultiPolygon:
		for i := range p.NumPolygons() {
			if polygonContains(p.Polygon(i), c) {
				return true
			}
		}
	}
	return false
}

// WithinTolerance reports containment with a distance buffer: a point is
// accepted when it lies inside the polygon or within tol degrees of its
// boundary. tol corrects grid/polygon de-alignment, it is not a business
// parameter.
func WithinTolerance(g geom.T, c geom.Coord, tol float64) bool {
	if Contains(g, c) {
		return true
	}
	if tol <= 0 {
		return false
	}
	return BoundaryDistance(g, c) <= tol
}

// BoundaryDistance returns the minimal distance from a coordinate to any
// ring segment of the geometry. Returns +Inf for non-polygon geometries.
func BoundaryDistance(g geom.T, c geom.Coord) float64 {
	min := math.Inf(1)
	eachPolygon(g, func(p *geom.Polygon) {
		for i := range p.NumLinearRings() {
			flat := p.LinearRing(i).FlatCoords()
			for j := 0; j+3 < len(flat); j += 2 {
				start := geom.Coord{flat[j], flat[j+1]}
				end := geom.Coord{flat[j+2], flat[j+3]}
				if d := xy.DistanceFromPointToLine(c, start, end); d < min {
					min = d
				}
			}
		}
	})
	return min
}

func polygonContains(p *geom.Polygon, c geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !p.Bounds().OverlapsPoint(geom.XY, c) {
		return false
	}
	if !xy.IsPointInRing(geom.XY, c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	// Interior rings are holes.
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(geom.XY, c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

func eachPolygon(g geom.T, fn func(*geom.Polygon)) {
	switch p := g.(type) {
	case *geom.Polygon:
		fn(p)
	case *geom.MultiPolygon:
		for i := range p.NumPolygons() {
			fn(p.Polygon(i))
		}
	}
}

// Coord extracts the coordinate of a point feature.
func Coord(f Feature) (geom.Coord, error) {
	pt, ok := f.Geom.(*geom.Point)
	if !ok {
		return nil, eris.Errorf("geometry: feature %s is not a point", f.ID)
	}
	return geom.Coord{pt.X(), pt.Y()}, nil
}
