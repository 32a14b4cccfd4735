package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coastdat",
	Short: "Regional renewable feed-in profiles from coastdat2 weather data",
	Long: `Builds capacity-normalized hourly feed-in profiles per region from the
coastdat2 weather grid: downloads the packed weather years, joins grid
points to region polygons, and aggregates per-point series into regional
wind, solar, hydro and geothermal profiles.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
