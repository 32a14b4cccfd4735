package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reegis/coastdat-cli/internal/aggregate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local data status: stores, assignments and results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")

		if year != 0 {
			path := cfg.Paths.StorePath(year)
			if _, err := os.Stat(path); err != nil {
				return eris.Errorf("no store for %d (expected %s)", year, path)
			}
			st, err := openYearStore(ctx, year)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			keys, err := st.Keys(ctx, year)
			if err != nil {
				return err
			}
			fields, err := st.Fields(ctx, year)
			if err != nil {
				return err
			}
			fmt.Printf("Store %s\n", path)
			fmt.Printf("  grid points: %d\n", len(keys))
			fmt.Printf("  fields:      %s\n", strings.Join(fields, ", "))
		}

		printDir("Assignments", filepath.Join(cfg.Paths.DataDir, "assignments"), ".csv", nil)
		printDir("Results", cfg.Paths.ResultDir, ".csv", func(path string) string {
			m, err := aggregate.ReadManifest(aggregate.ManifestPath(path))
			if err != nil {
				return ""
			}
			extra := fmt.Sprintf("year %d, %d columns", m.Year, m.Columns)
			if len(m.Skipped) > 0 {
				extra += fmt.Sprintf(", %d regions omitted", len(m.Skipped))
			}
			return extra
		})
		return nil
	},
}

func printDir(title, dir, ext string, describe func(path string) string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("%s: none\n", title)
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		fmt.Printf("%s: none\n", title)
		return
	}

	fmt.Printf("%s:\n", title)
	for _, n := range names {
		line := "  " + strings.TrimSuffix(n, ext)
		if describe != nil {
			if extra := describe(filepath.Join(dir, n)); extra != "" {
				line += " (" + extra + ")"
			}
		}
		fmt.Println(line)
	}
}

func init() {
	statusCmd.Flags().Int("year", 0, "also inspect the series store of this year")
	rootCmd.AddCommand(statusCmd)
}
