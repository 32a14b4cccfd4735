package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/reegis/coastdat-cli/internal/join"
	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
	"github.com/reegis/coastdat-cli/internal/store"
)

// openYearStore opens (and migrates) the series store of one weather year.
func openYearStore(ctx context.Context, year int) (*store.Store, error) {
	st, err := store.Open(cfg.Paths.StorePath(year))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// assignmentPath returns the saved assignment table of a region set.
func assignmentPath(name string) string {
	return filepath.Join(cfg.Paths.DataDir, "assignments", name+".csv")
}

// loadAssignment loads a region set's assignment table by name.
func loadAssignment(ctx context.Context, name string) (*model.Assignment, error) {
	path := assignmentPath(name)
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Errorf("no assignment %q, run 'coastdat join' first (expected %s)", name, path)
	}
	return join.LoadAssignment(ctx, path)
}

// resultPath returns the output file of one result set.
func resultPath(name string) string {
	return filepath.Join(cfg.Paths.ResultDir, name+".csv")
}

// shortPolicy parses the configured short-series policy.
func shortPolicy() (series.ShortPolicy, error) {
	return series.ParseShortPolicy(cfg.Feedin.ShortSeries)
}
