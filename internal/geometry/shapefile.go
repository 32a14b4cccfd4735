package geometry

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// ShapefileOptions selects the attribute columns used for feature identity.
type ShapefileOptions struct {
	IDField   string // attribute holding the unique id; record number if empty
	NameField string // optional human-readable name attribute
}

// LoadShapefile reads a shapefile into a Geometry. Attribute values are
// decoded from Latin-1, which the German administrative distributions use.
func LoadShapefile(name, shpPath string, opts ShapefileOptions) (*Geometry, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name -> index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		fname := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(fname)] = i
	}

	idIdx, hasID := fieldIdx[strings.ToLower(opts.IDField)]
	if opts.IDField != "" && !hasID {
		return nil, eris.Errorf("geometry: id field %q not found in %s", opts.IDField, shpPath)
	}
	nameIdx, hasName := fieldIdx[strings.ToLower(opts.NameField)]

	g := New(name)
	var skipped int
	record := 0
	for reader.Next() {
		_, shape := reader.Shape()

		gg := shapeToGeom(shape)
		if gg == nil {
			skipped++
			record++
			continue
		}

		id := strconv.Itoa(record)
		if hasID && opts.IDField != "" {
			id = attribute(reader, idIdx)
		}
		var featName string
		if hasName && opts.NameField != "" {
			featName = attribute(reader, nameIdx)
		}

		if err := g.Add(Feature{ID: id, Name: featName, Geom: gg}); err != nil {
			return nil, err
		}
		record++
	}

	if skipped > 0 {
		zap.L().Debug("geometry: skipped shapefile records",
			zap.String("name", name),
			zap.Int("skipped", skipped),
		)
	}
	if g.Len() == 0 {
		return nil, eris.Errorf("geometry: no usable features in %s", shpPath)
	}

	return g, nil
}

func attribute(reader *shp.Reader, idx int) string {
	val := strings.TrimRight(reader.Attribute(idx), "\x00")
	val = strings.TrimSpace(val)
	if decoded, err := charmap.ISO8859_1.NewDecoder().String(val); err == nil {
		return decoded
	}
	return val
}

// shapeToGeom converts a go-shp shape to a go-geom geometry.
// Returns nil for unsupported or empty shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	default:
		return nil
	}
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile outer rings wind clockwise; counter-clockwise parts are holes
// and attach as interior rings of the preceding outer ring (the Berlin
// enclave cut out of Brandenburg).
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	var cur *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if signedArea(flat) > 0 && cur != nil {
			if err := cur.Push(ring); err != nil {
				zap.L().Debug("geometry: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geometry: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		cur = poly
		polys = append(polys, poly)
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for _, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geometry: skipping malformed polygon part", zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace sum of an XY ring. Counter-clockwise rings
// come out positive, clockwise rings negative.
func signedArea(flat []float64) float64 {
	var sum float64
	for i := 0; i+3 < len(flat); i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return sum / 2
}
