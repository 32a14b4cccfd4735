package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reegis/coastdat-cli/internal/coastdatdb"
	"github.com/reegis/coastdat-cli/internal/db"
)

var dbfetchCmd = &cobra.Command{
	Use:   "dbfetch",
	Short: "Fetch coastdat2 data from a PostgreSQL mirror instead of the archives",
}

var dbfetchGridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Export the grid point coordinates from the database to CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		points, err := coastdatdb.FetchGridPoints(ctx, pool)
		if err != nil {
			return err
		}

		dest := filepath.Join(cfg.Paths.GeometryDir, cfg.Coastdat.GridCSV)
		written, err := coastdatdb.ExportGridCSV(points, dest)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("Grid CSV exported: %d points to %s\n", len(points), dest)
		} else {
			fmt.Printf("Grid CSV already present at %s\n", dest)
		}
		return nil
	},
}

var dbfetchWeatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Stream one weather year from the database into the local store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			return eris.New("dbfetch weather: --year is required")
		}

		pool, err := db.Connect(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		st, err := openYearStore(ctx, year)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := coastdatdb.FetchYear(ctx, pool, st, year)
		if err != nil {
			return err
		}
		fmt.Printf("Weather year %d fetched: %d series stored\n", year, n)
		return nil
	},
}

func init() {
	dbfetchWeatherCmd.Flags().Int("year", 0, "weather year to fetch")
	dbfetchCmd.AddCommand(dbfetchGridCmd)
	dbfetchCmd.AddCommand(dbfetchWeatherCmd)
	rootCmd.AddCommand(dbfetchCmd)
}
