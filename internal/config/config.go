// Package config loads the application configuration from file and
// environment and wires the global logger.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Coastdat CoastdatConfig `yaml:"coastdat" mapstructure:"coastdat"`
	Join     JoinConfig     `yaml:"join" mapstructure:"join"`
	Feedin   FeedinConfig   `yaml:"feedin" mapstructure:"feedin"`
	BMWi     BMWiConfig     `yaml:"bmwi" mapstructure:"bmwi"`
	DB       DBConfig       `yaml:"db" mapstructure:"db"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates the local data directories.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`
	GeometryDir string `yaml:"geometry_dir" mapstructure:"geometry_dir"`
	ResultDir   string `yaml:"result_dir" mapstructure:"result_dir"`
}

// StorePath returns the series store file for one weather year.
func (p PathsConfig) StorePath(year int) string {
	return filepath.Join(p.DataDir, "coastdat", fmt.Sprintf("coastdat_%d.db", year))
}

// CoastdatConfig configures access to the coastdat2 mirror.
type CoastdatConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	FTPURL     string `yaml:"ftp_url" mapstructure:"ftp_url"`
	URLPattern string `yaml:"url_pattern" mapstructure:"url_pattern"`
	GridCSV    string `yaml:"grid_csv" mapstructure:"grid_csv"`
}

// JoinConfig tunes the spatial join.
type JoinConfig struct {
	BufferStep  float64 `yaml:"buffer_step" mapstructure:"buffer_step"`
	BufferLimit float64 `yaml:"buffer_limit" mapstructure:"buffer_limit"`
}

// FeedinConfig tunes the aggregation step.
type FeedinConfig struct {
	Workers                 int     `yaml:"workers" mapstructure:"workers"`
	ShortSeries             string  `yaml:"short_series" mapstructure:"short_series"`
	Timezone                string  `yaml:"timezone" mapstructure:"timezone"`
	GeothermalFullLoadHours float64 `yaml:"geothermal_full_load_hours" mapstructure:"geothermal_full_load_hours"`
	Overwrite               bool    `yaml:"overwrite" mapstructure:"overwrite"`
}

// BMWiConfig locates the annual statistics workbook.
type BMWiConfig struct {
	URL   string `yaml:"url" mapstructure:"url"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

// DBConfig configures the optional weather database source.
type DBConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the result server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.coastdat")

	// Environment
	v.SetEnvPrefix("COASTDAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.geometry_dir", "data/geometries")
	v.SetDefault("paths.result_dir", "data/results")
	v.SetDefault("coastdat.base_url", "https://osf.io/download")
	v.SetDefault("coastdat.url_pattern", "coastDat2_de_%d.h5.csv.zip")
	v.SetDefault("coastdat.grid_csv", "coastdat_grid_points.csv")
	v.SetDefault("join.buffer_step", 0.05)
	v.SetDefault("join.buffer_limit", 1.0)
	v.SetDefault("feedin.workers", 0)
	v.SetDefault("feedin.short_series", "error")
	v.SetDefault("feedin.timezone", "Europe/Berlin")
	v.SetDefault("feedin.geothermal_full_load_hours", 3000)
	v.SetDefault("bmwi.sheet", "4 (EE)")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
