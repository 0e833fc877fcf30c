// Package config loads application configuration from config.yaml and
// SDM_-prefixed environment variables, and initializes the global
// logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Raster    RasterConfig    `yaml:"raster" mapstructure:"raster"`
	LandCover LandCoverConfig `yaml:"landcover" mapstructure:"landcover"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Split     SplitConfig     `yaml:"split" mapstructure:"split"`
	VIF       VIFConfig       `yaml:"vif" mapstructure:"vif"`
	Moran     MoranConfig     `yaml:"moran" mapstructure:"moran"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RasterConfig locates the raster inputs.
type RasterConfig struct {
	// LandCoverDir holds one ASCII grid per year, named
	// landcover_<year>.asc.
	LandCoverDir string `yaml:"landcover_dir" mapstructure:"landcover_dir"`
	// ElevationPath is the single year-independent elevation grid.
	ElevationPath string `yaml:"elevation_path" mapstructure:"elevation_path"`
	// Proj4 is the projection the rasters are delivered in.
	Proj4 string `yaml:"proj4" mapstructure:"proj4"`
}

// LandCoverConfig configures class reconstruction and year
// substitution.
type LandCoverConfig struct {
	ReconstructClass int  `yaml:"reconstruct_class" mapstructure:"reconstruct_class"`
	ExtendLatestYear bool `yaml:"extend_latest_year" mapstructure:"extend_latest_year"`
}

// ExtractConfig tunes the extraction worker pool.
type ExtractConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// SplitConfig lists the held-out test years.
type SplitConfig struct {
	TestYears []int `yaml:"test_years" mapstructure:"test_years"`
}

// VIFConfig configures the multicollinearity resolver.
type VIFConfig struct {
	Threshold float64  `yaml:"threshold" mapstructure:"threshold"`
	Protected []string `yaml:"protected" mapstructure:"protected"`
}

// MoranConfig configures the autocorrelation test.
type MoranConfig struct {
	Alternative string `yaml:"alternative" mapstructure:"alternative"`
}

// FetchConfig configures raster downloads.
type FetchConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sdm.db")
	v.SetDefault("raster.proj4", "+proj=sinu +lon_0=0 +x_0=0 +y_0=0 +R=6371007.181 +units=m +no_defs")
	v.SetDefault("landcover.reconstruct_class", 13)
	v.SetDefault("landcover.extend_latest_year", true)
	v.SetDefault("extract.workers", 4)
	v.SetDefault("vif.threshold", 5.0)
	v.SetDefault("moran.alternative", "greater")
	v.SetDefault("fetch.timeout_secs", 30)
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
