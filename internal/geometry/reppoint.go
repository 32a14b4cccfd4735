package geometry

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// RepresentativePoint returns a point guaranteed to lie inside the polygon.
// The centroid is used when it is interior; otherwise the widest interior
// span along the horizontal line through the centroid is bisected.
func RepresentativePoint(g geom.T) (geom.Coord, error) {
	c, err := xy.Centroid(g)
	if err != nil {
		return nil, err
	}
	if Contains(g, c) {
		return c, nil
	}

	best := geom.Coord{c[0], c[1]}
	bestWidth := -1.0
	eachPolygon(g, func(p *geom.Polygon) {
		if p.NumLinearRings() == 0 {
			return
		}
		xs := ringCrossings(p.LinearRing(0).FlatCoords(), c[1])
		for i := 0; i+1 < len(xs); i += 2 {
			mid := geom.Coord{(xs[i] + xs[i+1]) / 2, c[1]}
			width := xs[i+1] - xs[i]
			if width > bestWidth && Contains(g, mid) {
				best = mid
				bestWidth = width
			}
		}
	})
	if bestWidth >= 0 {
		return best, nil
	}

	// Degenerate shape: fall back to the vertex closest to the centroid.
	return nearestVertex(g, c), nil
}

// ringCrossings returns the sorted x coordinates where the ring crosses the
// horizontal line at y.
func ringCrossings(flat []float64, y float64) []float64 {
	var xs []float64
	for j := 0; j+3 < len(flat); j += 2 {
		x1, y1 := flat[j], flat[j+1]
		x2, y2 := flat[j+2], flat[j+3]
		if (y1 <= y) == (y2 <= y) {
			continue
		}
		t := (y - y1) / (y2 - y1)
		xs = append(xs, x1+t*(x2-x1))
	}
	sort.Float64s(xs)
	return xs
}

func nearestVertex(g geom.T, c geom.Coord) geom.Coord {
	best := c
	min := math.Inf(1)
	eachPolygon(g, func(p *geom.Polygon) {
		flat := p.FlatCoords()
		for j := 0; j+1 < len(flat); j += 2 {
			v := geom.Coord{flat[j], flat[j+1]}
			if d := xy.Distance(c, v); d < min {
				min = d
				best = v
			}
		}
	})
	return best
}
