package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	InputPath          string
	StateOutputPath    string
	CountyOutputPath   string
	CountyPivotEnabled bool
	FillMissing        bool

	// Optional geography join and export.
	GeoShapefilePath string
	MapOutputPath    string

	StateWorkbookPath  string
	ParquetCompression string
	DuckDBPath         string

	// Refresh notification; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	PushgatewayURL string
	LogLevel       string
	LogFormat      string
}

var compressions = map[string]bool{
	"gzip":         true,
	"snappy":       true,
	"zstd":         true,
	"uncompressed": true,
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	countyEnabled, err := parseBool("COUNTY_PIVOT_ENABLED", true)
	if err != nil {
		return nil, err
	}
	fillMissing, err := parseBool("FILL_MISSING", true)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		InputPath:          sharedcfg.EnvOrDefault("INPUT_PATH", "../COVID19DataForVoila.parquet.gzip"),
		StateOutputPath:    sharedcfg.EnvOrDefault("STATE_OUTPUT_PATH", "../COVID19StatePivot.parquet.gzip"),
		CountyOutputPath:   sharedcfg.EnvOrDefault("COUNTY_OUTPUT_PATH", "../COVID19CovidDataPivot.parquet.gzip"),
		CountyPivotEnabled: countyEnabled,
		FillMissing:        fillMissing,
		GeoShapefilePath:   os.Getenv("GEO_SHAPEFILE_PATH"),
		MapOutputPath:      os.Getenv("MAP_OUTPUT_PATH"),
		StateWorkbookPath:  os.Getenv("STATE_WORKBOOK_PATH"),
		ParquetCompression: sharedcfg.EnvOrDefault("PARQUET_COMPRESSION", "gzip"),
		DuckDBPath:         os.Getenv("DUCKDB_PATH"),
		KafkaBrokers:       brokers,
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "covid-pivot-refreshed"),
		PushgatewayURL:     os.Getenv("PUSHGATEWAY_URL"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.StateOutputPath == "" {
		return nil, errors.New("STATE_OUTPUT_PATH is required")
	}
	if cfg.CountyPivotEnabled && cfg.CountyOutputPath == "" {
		return nil, errors.New("COUNTY_OUTPUT_PATH is required when COUNTY_PIVOT_ENABLED is true")
	}
	if !compressions[cfg.ParquetCompression] {
		return nil, fmt.Errorf("invalid PARQUET_COMPRESSION %q", cfg.ParquetCompression)
	}
	if cfg.MapOutputPath != "" && cfg.GeoShapefilePath == "" {
		return nil, errors.New("MAP_OUTPUT_PATH is set but GEO_SHAPEFILE_PATH is not")
	}
	if cfg.GeoShapefilePath != "" && !cfg.CountyPivotEnabled {
		return nil, errors.New("GEO_SHAPEFILE_PATH requires COUNTY_PIVOT_ENABLED")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// NotifyEnabled reports whether a refresh notification should be published.
func (c *Config) NotifyEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}
