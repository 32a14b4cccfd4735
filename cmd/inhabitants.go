package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/geometry"
	"github.com/reegis/coastdat-cli/internal/inhabitants"
	"github.com/reegis/coastdat-cli/internal/join"
)

var inhabitantsCmd = &cobra.Command{
	Use:   "inhabitants",
	Short: "Sum municipality populations per region",
	Long: `Reduces every municipality of a VG250 shapefile to its representative
point, joins the points against a region polygon shapefile and sums the
population attribute per region.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sourcePath, _ := cmd.Flags().GetString("source")
		regionsPath, _ := cmd.Flags().GetString("regions")
		if sourcePath == "" || regionsPath == "" {
			return eris.New("inhabitants: --source and --regions are required")
		}
		idField, _ := cmd.Flags().GetString("id-field")
		popField, _ := cmd.Flags().GetString("pop-field")
		outName, _ := cmd.Flags().GetString("out")

		log := zap.L().With(zap.String("command", "inhabitants"))

		regions, err := geometry.LoadShapefile("regions", regionsPath, geometry.ShapefileOptions{
			IDField: idField,
		})
		if err != nil {
			return err
		}

		points, counts, err := inhabitants.Load(sourcePath, popField)
		if err != nil {
			return err
		}

		totals, err := inhabitants.ByRegion(points, counts, regions, join.Options{
			BufferStep:  cfg.Join.BufferStep,
			BufferLimit: cfg.Join.BufferLimit,
		})
		if err != nil {
			return err
		}
		if len(totals) < regions.Len() {
			log.Warn("some regions received no municipality",
				zap.Int("missing", regions.Len()-len(totals)),
			)
		}

		out := resultPath(outName)
		written, err := inhabitants.WriteCSV(out, totals, cfg.Feedin.Overwrite)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("Inhabitants summed over %d regions: %s\n", len(totals), out)
		} else {
			fmt.Printf("Result exists, skipped: %s\n", out)
		}
		return nil
	},
}

func init() {
	inhabitantsCmd.Flags().String("source", "", "municipality shapefile with a population attribute")
	inhabitantsCmd.Flags().String("regions", "", "region polygon shapefile")
	inhabitantsCmd.Flags().String("id-field", "region", "region id attribute")
	inhabitantsCmd.Flags().String("pop-field", inhabitants.DefaultPopulationField, "population attribute")
	inhabitantsCmd.Flags().String("out", "inhabitants", "result file name")
	rootCmd.AddCommand(inhabitantsCmd)
}
