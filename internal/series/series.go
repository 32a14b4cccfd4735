// Package series provides the hourly time-series type, year-length rules,
// and the CSV result writers.
package series

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// ShortPolicy decides what happens to series shorter than the expected
// year length.
type ShortPolicy string

const (
	// ShortPolicyError rejects short series as a data-integrity failure.
	ShortPolicyError ShortPolicy = "error"
	// ShortPolicyPad zero-pads short series to the expected length.
	ShortPolicyPad ShortPolicy = "pad"
)

// ParseShortPolicy validates a configured short-series policy string.
func ParseShortPolicy(s string) (ShortPolicy, error) {
	switch ShortPolicy(s) {
	case ShortPolicyError, ShortPolicyPad:
		return ShortPolicy(s), nil
	case "":
		return ShortPolicyError, nil
	}
	return "", eris.Errorf("series: unknown short-series policy %q", s)
}

// ShortSeriesError reports a series shorter than the expected year length.
type ShortSeriesError struct {
	Key      string
	Expected int
	Got      int
}

func (e *ShortSeriesError) Error() string {
	return fmt.Sprintf("series %s has %d values, expected %d", e.Key, e.Got, e.Expected)
}

// Series is one hourly-resolution year of scalar values.
type Series struct {
	Year   int
	Values []float64
}

// HoursInYear returns 8784 for leap years, 8760 otherwise.
func HoursInYear(year int) int {
	if isLeap(year) {
		return 8784
	}
	return 8760
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Normalize enforces the year-length rule: values beyond the expected
// length are truncated (prefix-preserving); shorter values are handled
// according to the policy. The key is only used for error reporting.
func (s *Series) Normalize(key string, policy ShortPolicy) error {
	want := HoursInYear(s.Year)
	switch {
	case len(s.Values) > want:
		s.Values = s.Values[:want]
	case len(s.Values) < want:
		if policy != ShortPolicyPad {
			return &ShortSeriesError{Key: key, Expected: want, Got: len(s.Values)}
		}
		padded := make([]float64, want)
		copy(padded, s.Values)
		s.Values = padded
	}
	return nil
}

// HourlyIndex returns the hourly timestamps of a year localized to the
// configured zone. Full-year technology series use Europe/Berlin.
func HourlyIndex(year int, zone string) ([]time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, eris.Wrapf(err, "series: load timezone %s", zone)
	}
	n := HoursInYear(year)
	idx := make([]time.Time, n)
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	for i := range n {
		idx[i] = t
		t = t.Add(time.Hour)
	}
	return idx, nil
}
