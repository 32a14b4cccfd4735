package series

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/model"
)

// ResultColumn is one aggregated output column addressed by the 3-level
// (region, set, subset) key.
type ResultColumn struct {
	Region model.RegionID
	Set    string
	Subset string
	Values []float64
}

const timeLayout = "2006-01-02 15:04:05-07:00"

// WriteSingle writes a single-header result file: one column per region,
// one row per hour. Returns false when the file exists and overwrite is off.
func WriteSingle(path string, regions []model.RegionID, values map[model.RegionID][]float64, year int, zone string, overwrite bool) (bool, error) {
	if skip(path, overwrite) {
		return false, nil
	}

	idx, err := HourlyIndex(year, zone)
	if err != nil {
		return false, err
	}

	header := make([]string, 0, len(regions)+1)
	header = append(header, "")
	for _, r := range regions {
		header = append(header, string(r))
	}

	rows := make([][]string, 0, len(idx)+1)
	rows = append(rows, header)
	for i, ts := range idx {
		row := make([]string, 0, len(regions)+1)
		row = append(row, ts.Format(timeLayout))
		for _, r := range regions {
			row = append(row, formatValue(values[r], i))
		}
		rows = append(rows, row)
	}

	return true, writeCSV(path, rows)
}

// WriteMulti writes a 3-level-header result file: three header rows
// (region, set, subset), one data row per hour.
func WriteMulti(path string, columns []ResultColumn, year int, zone string, overwrite bool) (bool, error) {
	if skip(path, overwrite) {
		return false, nil
	}

	idx, err := HourlyIndex(year, zone)
	if err != nil {
		return false, err
	}

	regionRow := []string{"region"}
	setRow := []string{"set"}
	subsetRow := []string{"subset"}
	for _, c := range columns {
		regionRow = append(regionRow, string(c.Region))
		setRow = append(setRow, c.Set)
		subsetRow = append(subsetRow, c.Subset)
	}

	rows := make([][]string, 0, len(idx)+3)
	rows = append(rows, regionRow, setRow, subsetRow)
	for i, ts := range idx {
		row := make([]string, 0, len(columns)+1)
		row = append(row, ts.Format(timeLayout))
		for _, c := range columns {
			row = append(row, formatValue(c.Values, i))
		}
		rows = append(rows, row)
	}

	return true, writeCSV(path, rows)
}

// ReadMultiHeader reads back the three header rows of a 3-level result file.
func ReadMultiHeader(path string) ([]ResultColumn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "series: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var header [3][]string
	for i := range 3 {
		row, err := r.Read()
		if err != nil {
			return nil, eris.Wrapf(err, "series: read header row %d of %s", i, path)
		}
		header[i] = row
	}

	n := len(header[0])
	if len(header[1]) != n || len(header[2]) != n {
		return nil, eris.Errorf("series: ragged header in %s", path)
	}

	cols := make([]ResultColumn, 0, n-1)
	for i := 1; i < n; i++ {
		cols = append(cols, ResultColumn{
			Region: model.RegionID(header[0][i]),
			Set:    header[1][i],
			Subset: header[2][i],
		})
	}
	return cols, nil
}

func skip(path string, overwrite bool) bool {
	if overwrite {
		return false
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		zap.L().Info("result file exists, skipping",
			zap.String("path", path),
		)
		return true
	}
	return false
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "series: create result dir for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "series: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "series: write %s", path)
	}
	w.Flush()
	return eris.Wrapf(w.Error(), "series: flush %s", path)
}

func formatValue(values []float64, i int) string {
	if i >= len(values) {
		return ""
	}
	return strconv.FormatFloat(values[i], 'g', -1, 64)
}
