package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/geometry"
	"github.com/reegis/coastdat-cli/internal/join"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Assign coastdat2 grid points to a region set",
	Long: `Joins the coastdat2 grid points against a region polygon shapefile and
saves the resulting assignment table under the given name. Regions that
contain no grid point get a synthetic fallback assignment derived from
the grid cell polygons.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		regionsPath, _ := cmd.Flags().GetString("regions")
		if name == "" || regionsPath == "" {
			return eris.New("join: --name and --regions are required")
		}
		idField, _ := cmd.Flags().GetString("id-field")
		nameField, _ := cmd.Flags().GetString("name-field")
		cellsPath, _ := cmd.Flags().GetString("cells")
		if cellsPath == "" {
			cellsPath = filepath.Join(cfg.Paths.GeometryDir, "coastdat_grid_cells.shp")
		}

		log := zap.L().With(zap.String("command", "join"), zap.String("name", name))

		regions, err := geometry.LoadShapefile(name, regionsPath, geometry.ShapefileOptions{
			IDField:   idField,
			NameField: nameField,
		})
		if err != nil {
			return err
		}

		points, cells, err := loadGrid(cmd, cellsPath)
		if err != nil {
			return err
		}

		asg, err := join.Join(points, regions, join.Options{
			BufferStep:  cfg.Join.BufferStep,
			BufferLimit: cfg.Join.BufferLimit,
		})
		if err != nil {
			return err
		}

		if cells != nil {
			fixed, errs := join.FixEmptyRegions(asg, regions, cells)
			for _, e := range errs {
				log.Error("empty-region fix failed", zap.Error(e))
			}
			if len(errs) > 0 {
				return eris.Errorf("join: %d region(s) could not be assigned any grid point", len(errs))
			}
			if len(fixed) > 0 {
				log.Info("empty regions fixed", zap.Int("count", len(fixed)))
			}
		} else if len(asg.Regions()) < regions.Len() {
			return eris.Errorf("join: %d region(s) are empty and no grid cell polygons are available for the fallback fix (expected %s)",
				regions.Len()-len(asg.Regions()), cellsPath)
		}

		if err := join.SaveAssignment(assignmentPath(name), asg); err != nil {
			return err
		}

		fmt.Printf("Assignment %q saved: %d points, %d regions\n", name, asg.Len(), len(asg.Regions()))
		return nil
	},
}

// loadGrid loads the grid centroids and, when present, the grid cell
// polygons. Falls back to deriving centroids from the cell polygons when
// the coordinate CSV is missing.
func loadGrid(cmd *cobra.Command, cellsPath string) (points, cells *geometry.Geometry, err error) {
	if _, statErr := os.Stat(cellsPath); statErr == nil {
		cells, err = geometry.LoadShapefile("coastdat_cells", cellsPath, geometry.ShapefileOptions{
			IDField: "gid",
		})
		if err != nil {
			return nil, nil, err
		}
	}

	gridCSV := filepath.Join(cfg.Paths.GeometryDir, cfg.Coastdat.GridCSV)
	if _, statErr := os.Stat(gridCSV); statErr == nil {
		points, err = geometry.LoadPointsCSV(cmd.Context(), "coastdat_grid", gridCSV)
		if err != nil {
			return nil, nil, err
		}
		return points, cells, nil
	}

	if cells == nil {
		return nil, nil, eris.Errorf("join: neither grid CSV (%s) nor cell polygons (%s) found, run 'coastdat download grid' first",
			gridCSV, cellsPath)
	}

	zap.L().Info("grid csv missing, deriving centroids from cell polygons")
	points, err = cells.Centroids()
	if err != nil {
		return nil, nil, err
	}
	return points, cells, nil
}

func init() {
	joinCmd.Flags().String("name", "", "name to save the assignment under (e.g. federal_states, de21)")
	joinCmd.Flags().String("regions", "", "path to the region polygon shapefile")
	joinCmd.Flags().String("id-field", "region", "shapefile attribute holding the region id")
	joinCmd.Flags().String("name-field", "", "shapefile attribute holding the region name")
	joinCmd.Flags().String("cells", "", "path to the grid cell polygon shapefile (default <geometry_dir>/coastdat_grid_cells.shp)")
	rootCmd.AddCommand(joinCmd)
}
