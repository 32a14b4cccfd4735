package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/aggregate"
	"github.com/reegis/coastdat-cli/internal/progress"
	"github.com/reegis/coastdat-cli/internal/series"
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Work with raw weather variables",
}

var weatherAverageCmd = &cobra.Command{
	Use:   "average",
	Short: "Average one weather variable over each region",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")
		field, _ := cmd.Flags().GetString("field")
		asgName, _ := cmd.Flags().GetString("assignment")
		if year == 0 || field == "" || asgName == "" {
			return eris.New("weather average: --year, --field and --assignment are required")
		}

		policy, err := shortPolicy()
		if err != nil {
			return err
		}
		asg, err := loadAssignment(ctx, asgName)
		if err != nil {
			return err
		}
		st, err := openYearStore(ctx, year)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		manifest := aggregate.NewManifest(year)
		manifest.Field = field

		values, report, err := aggregate.MeanByRegion(ctx, st, asg, field, year, aggregate.Options{
			Workers:     cfg.Feedin.Workers,
			ShortPolicy: policy,
			Reporter:    progress.NewLogReporter("weather_average", 5),
		})
		if err != nil {
			return err
		}

		regions := asg.Regions()
		kept := regions[:0:0]
		for _, r := range regions {
			if _, ok := values[r]; ok {
				kept = append(kept, r)
			}
		}

		name := fmt.Sprintf("%s_%s_%d", asgName, field, year)
		out := resultPath(name)
		written, err := series.WriteSingle(out, kept, values, year, cfg.Feedin.Timezone, cfg.Feedin.Overwrite)
		if err != nil {
			return err
		}

		manifest.Regions = len(kept)
		manifest.Columns = len(kept)
		manifest.Finish(report)
		if written {
			if err := aggregate.WriteManifest(aggregate.ManifestPath(out), manifest); err != nil {
				return err
			}
		}

		for _, e := range report.Errs() {
			zap.L().Warn("region omitted", zap.Error(e))
		}
		if written {
			fmt.Printf("Averaged %s over %d regions: %s\n", field, len(kept), out)
		} else {
			fmt.Printf("Result exists, skipped: %s\n", out)
		}
		return nil
	},
}

var weatherWindspeedCmd = &cobra.Command{
	Use:   "windspeed",
	Short: "Average wind speed per grid point over several years",
	Long: `Averages the wind speed of every grid point over a range of years.
The result is used to pick strong- or low-wind turbines per region.
Years without a downloaded store are skipped with a warning.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		field, _ := cmd.Flags().GetString("field")
		if from == 0 || to == 0 {
			return eris.New("weather windspeed: --from and --to are required")
		}
		if to < from {
			return eris.Errorf("weather windspeed: year range %d-%d is backwards", from, to)
		}

		log := zap.L().With(zap.String("command", "weather_windspeed"))

		stores := make(map[int]aggregate.KeyedReader)
		for year := from; year <= to; year++ {
			if _, err := os.Stat(cfg.Paths.StorePath(year)); err != nil {
				log.Warn("no store for year, skipping", zap.Int("year", year))
				continue
			}
			st, err := openYearStore(ctx, year)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			stores[year] = st
		}
		if len(stores) == 0 {
			return eris.Errorf("weather windspeed: no stores for %d-%d, run 'coastdat download weather' first", from, to)
		}

		means, err := aggregate.AverageWindSpeed(ctx, stores, field)
		if err != nil {
			return err
		}

		out := resultPath(fmt.Sprintf("average_%s_%d_%d", field, from, to))
		written, err := aggregate.WriteMeanCSV(out, field+"_avg", means, cfg.Feedin.Overwrite)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("Averaged %s over %d years, %d grid points: %s\n", field, len(stores), len(means), out)
		} else {
			fmt.Printf("Result exists, skipped: %s\n", out)
		}
		return nil
	},
}

func init() {
	weatherAverageCmd.Flags().Int("year", 0, "weather year")
	weatherAverageCmd.Flags().String("field", "", "weather variable (e.g. temp_air, v_wind)")
	weatherAverageCmd.Flags().String("assignment", "", "assignment name from 'coastdat join'")
	weatherCmd.AddCommand(weatherAverageCmd)
	weatherWindspeedCmd.Flags().Int("from", 0, "first weather year")
	weatherWindspeedCmd.Flags().Int("to", 0, "last weather year")
	weatherWindspeedCmd.Flags().String("field", "v_wind", "weather variable to average")
	weatherCmd.AddCommand(weatherWindspeedCmd)
	rootCmd.AddCommand(weatherCmd)
}
