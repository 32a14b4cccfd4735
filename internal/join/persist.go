package join

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/fetcher"
	"github.com/reegis/coastdat-cli/internal/model"
)

// SaveAssignment writes the point-to-region table as CSV, one row per
// assigned grid point in ascending id order.
func SaveAssignment(path string, asg *model.Assignment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "join: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "join: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"coastdat_id", "region", "fallback"}); err != nil {
		return eris.Wrapf(err, "join: write %s", path)
	}
	for _, e := range asg.Entries() {
		row := []string{
			strconv.Itoa(int(e.Point)),
			string(e.Region),
			strconv.FormatBool(e.Fallback),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "join: write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "join: flush %s", path)
	}

	zap.L().Info("assignment saved",
		zap.String("path", path),
		zap.Int("points", asg.Len()),
	)
	return nil
}

// LoadAssignment reads an assignment table written by SaveAssignment.
func LoadAssignment(ctx context.Context, path string) (*model.Assignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "join: open %s", path)
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
	for _, want := range []string{"coastdat_id", "region", "fallback"} {
		if _, ok := cols[want]; !ok {
			return nil, eris.Errorf("join: %s has no %s column", path, want)
		}
	}

	asg := model.NewAssignment()
	line := 1
	for row := range rowCh {
		line++
		id, err := strconv.Atoi(row[cols["coastdat_id"]])
		if err != nil {
			return nil, eris.Wrapf(err, "join: bad coastdat_id at line %d of %s", line, path)
		}
		fallback, err := strconv.ParseBool(row[cols["fallback"]])
		if err != nil {
			return nil, eris.Wrapf(err, "join: bad fallback flag at line %d of %s", line, path)
		}
		region := model.RegionID(row[cols["region"]])
		if fallback {
			asg.AssignFallback(model.PointID(id), region)
		} else {
			asg.Assign(model.PointID(id), region)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return asg, nil
}
