package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/aggregate"
	"github.com/reegis/coastdat-cli/internal/capacity"
	"github.com/reegis/coastdat-cli/internal/coastdatdb"
	"github.com/reegis/coastdat-cli/internal/db"
	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/progress"
	"github.com/reegis/coastdat-cli/internal/scalar"
	"github.com/reegis/coastdat-cli/internal/series"
)

var feedinCmd = &cobra.Command{
	Use:   "feedin",
	Short: "Build regional feed-in profiles",
}

var feedinAggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate per-point feed-in series into capacity-normalized regional profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")
		category, _ := cmd.Flags().GetString("category")
		asgName, _ := cmd.Flags().GetString("assignment")
		registryPath, _ := cmd.Flags().GetString("registry")
		publish, _ := cmd.Flags().GetBool("publish")
		if year == 0 || category == "" || asgName == "" || registryPath == "" {
			return eris.New("feedin aggregate: --year, --category, --assignment and --registry are required")
		}
		category = strings.ToLower(category)

		log := zap.L().With(
			zap.String("command", "feedin"),
			zap.String("category", category),
			zap.Int("year", year),
		)

		policy, err := shortPolicy()
		if err != nil {
			return err
		}
		asg, err := loadAssignment(ctx, asgName)
		if err != nil {
			return err
		}
		caps, err := capacity.LoadRegistry(ctx, registryPath)
		if err != nil {
			return err
		}
		st, err := openYearStore(ctx, year)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		fields, err := st.Fields(ctx, year)
		if err != nil {
			return err
		}
		sets := aggregate.SetsFromFields(category, fields)
		if len(sets) == 0 {
			return eris.Errorf("feedin aggregate: the %d store holds no %s fields", year, category)
		}

		manifest := aggregate.NewManifest(year)
		manifest.Category = category
		for _, s := range sets {
			manifest.Sets = append(manifest.Sets, s.Name)
		}

		columns, report, err := aggregate.FeedinByRegion(ctx, st, asg, caps, category, sets, year, aggregate.Options{
			Workers:     cfg.Feedin.Workers,
			ShortPolicy: policy,
			Reporter:    progress.NewLogReporter("feedin_"+category, 5),
		})
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%s_%s_%d", asgName, category, year)
		out := resultPath(name)
		written, err := series.WriteMulti(out, columns, year, cfg.Feedin.Timezone, cfg.Feedin.Overwrite)
		if err != nil {
			return err
		}

		manifest.Regions = len(asg.Regions())
		manifest.Columns = len(columns)
		manifest.Finish(report)
		if written {
			if err := aggregate.WriteManifest(aggregate.ManifestPath(out), manifest); err != nil {
				return err
			}
		}

		for _, e := range report.Errs() {
			log.Warn("region omitted", zap.Error(e))
		}

		if publish {
			// The local result file is already on disk; a failed publish
			// should not fail the aggregation.
			if err := publishColumns(cmd, name, columns, year); err != nil {
				log.Warn("publish failed, local result kept", zap.Error(err))
			}
		}

		if written {
			fmt.Printf("Feed-in %s aggregated: %d columns, %d regions omitted: %s\n",
				category, len(columns), len(report.Skipped()), out)
		} else {
			fmt.Printf("Result exists, skipped: %s\n", out)
		}
		return nil
	},
}

var feedinHydroCmd = &cobra.Command{
	Use:   "hydro",
	Short: "Build uniform run-of-river hydro profiles from BMWi annual figures",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")
		asgName, _ := cmd.Flags().GetString("assignment")
		workbook, _ := cmd.Flags().GetString("workbook")
		if year == 0 || asgName == "" || workbook == "" {
			return eris.New("feedin hydro: --year, --assignment and --workbook are required")
		}

		asg, err := loadAssignment(ctx, asgName)
		if err != nil {
			return err
		}
		bmwi, err := capacity.LoadBMWi(workbook, cfg.BMWi.Sheet)
		if err != nil {
			return err
		}

		values, err := scalar.HydroProfiles(bmwi, asg.Regions(), year)
		if err != nil {
			return err
		}
		return writeUniformResult(fmt.Sprintf("%s_hydro_%d", asgName, year), asg.Regions(), values, year)
	},
}

var feedinGeothermalCmd = &cobra.Command{
	Use:   "geothermal",
	Short: "Build uniform geothermal profiles from configured full-load hours",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")
		asgName, _ := cmd.Flags().GetString("assignment")
		if year == 0 || asgName == "" {
			return eris.New("feedin geothermal: --year and --assignment are required")
		}
		flh, _ := cmd.Flags().GetFloat64("flh")
		if flh == 0 {
			flh = cfg.Feedin.GeothermalFullLoadHours
		}

		asg, err := loadAssignment(ctx, asgName)
		if err != nil {
			return err
		}
		values, err := scalar.GeothermalProfiles(flh, asg.Regions(), year)
		if err != nil {
			return err
		}
		return writeUniformResult(fmt.Sprintf("%s_geothermal_%d", asgName, year), asg.Regions(), values, year)
	},
}

func writeUniformResult(name string, regions []model.RegionID, values map[model.RegionID][]float64, year int) error {
	out := resultPath(name)
	written, err := series.WriteSingle(out, regions, values, year, cfg.Feedin.Timezone, cfg.Feedin.Overwrite)
	if err != nil {
		return err
	}
	if !written {
		fmt.Printf("Result exists, skipped: %s\n", out)
		return nil
	}

	manifest := aggregate.NewManifest(year)
	manifest.Regions = len(regions)
	manifest.Columns = len(regions)
	manifest.Finish(nil)
	if err := aggregate.WriteManifest(aggregate.ManifestPath(out), manifest); err != nil {
		return err
	}

	fmt.Printf("Profiles written for %d regions: %s\n", len(regions), out)
	return nil
}

func publishColumns(cmd *cobra.Command, name string, columns []series.ResultColumn, year int) error {
	ctx := cmd.Context()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := coastdatdb.PublishResults(ctx, pool, name, columns, year)
	if err != nil {
		return err
	}
	zap.L().Info("results published", zap.String("name", name), zap.Int64("rows", n))
	return nil
}

func init() {
	feedinAggregateCmd.Flags().Int("year", 0, "weather year")
	feedinAggregateCmd.Flags().String("category", "", "feed-in category (wind, solar)")
	feedinAggregateCmd.Flags().String("assignment", "", "assignment name from 'coastdat join'")
	feedinAggregateCmd.Flags().String("registry", "", "power plant registry CSV (category,region,coastdat_id,year,capacity)")
	feedinAggregateCmd.Flags().Bool("publish", false, "also push the result to the configured database")

	feedinHydroCmd.Flags().Int("year", 0, "weather year")
	feedinHydroCmd.Flags().String("assignment", "", "assignment name from 'coastdat join'")
	feedinHydroCmd.Flags().String("workbook", "", "path to the BMWi statistics workbook")

	feedinGeothermalCmd.Flags().Int("year", 0, "weather year")
	feedinGeothermalCmd.Flags().String("assignment", "", "assignment name from 'coastdat join'")
	feedinGeothermalCmd.Flags().Float64("flh", 0, "geothermal full-load hours (default from config)")

	feedinCmd.AddCommand(feedinAggregateCmd)
	feedinCmd.AddCommand(feedinHydroCmd)
	feedinCmd.AddCommand(feedinGeothermalCmd)
	rootCmd.AddCommand(feedinCmd)
}
