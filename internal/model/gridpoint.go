// Package model holds the typed records shared across the aggregation
// pipeline: grid points, regions, series keys, and the assignment table.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// PointID identifies a single coastdat2 grid point.
type PointID int

// RegionID identifies a target region polygon (federal state, model zone).
type RegionID string

// GridPoint is one coastdat2 measurement location.
type GridPoint struct {
	ID  PointID `json:"id"`
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// SeriesKey is the storage key of a per-grid-point time series ("A<id>").
type SeriesKey string

// EncodeSeriesKey builds the storage key for a grid point id.
func EncodeSeriesKey(id PointID) SeriesKey {
	return SeriesKey(fmt.Sprintf("A%d", int(id)))
}

// DecodeSeriesKey parses and validates a storage key. Keys must be the
// letter A followed by a positive integer.
func DecodeSeriesKey(key SeriesKey) (PointID, error) {
	s := string(key)
	if len(s) < 2 || s[0] != 'A' {
		return 0, eris.Errorf("model: malformed series key %q", s)
	}
	id, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, eris.Wrapf(err, "model: malformed series key %q", s)
	}
	if id <= 0 {
		return 0, eris.Errorf("model: series key id must be positive, got %d", id)
	}
	return PointID(id), nil
}

// SubsetLabel derives the subset column label from a source column name:
// the last three underscore-separated tokens. Shorter names pass through
// unchanged. Downstream models rely on this naming, keep it stable.
func SubsetLabel(column string) string {
	parts := strings.Split(column, "_")
	if len(parts) <= 3 {
		return column
	}
	return strings.Join(parts[len(parts)-3:], "_")
}
