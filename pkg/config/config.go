// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Source kinds supported for the three raw tables.
const (
	SourceCSV       = "csv"
	SourceXLSX      = "xlsx"
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
)

// Sink kinds supported for cleaned tables and reports.
const (
	SinkCSV    = "csv"
	SinkSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	// Where raw tables come from and where outputs go
	Source string
	Sink   string

	// Directory layout for file-backed source/sinks
	DataDir   string // raw inputs live under DataDir/original
	CleanDir  string // cleaned tables are written here
	ReportDir string // report tables are written here

	// XLSX source: workbook holding one sheet per entity
	WorkbookPath string

	// Database connections (only required for the matching source/sink)
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig
	SQLite    *SQLiteConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Source:       getEnv("SOURCE", SourceCSV),
		Sink:         getEnv("SINK", SinkCSV),
		DataDir:      getEnv("DATA_DIR", "data"),
		CleanDir:     getEnv("CLEAN_DIR", "data/cleaned"),
		ReportDir:    getEnv("REPORT_DIR", "outputs"),
		WorkbookPath: getEnv("WORKBOOK_PATH", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
	}

	// Database configurations are loaded lazily: only the ones the chosen
	// source/sink actually needs may fail the run.
	if cfg.Source == SourcePostgres {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	if cfg.Source == SourceSnowflake {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if cfg.Sink == SinkSQLite {
		cfg.SQLite = LoadSQLiteConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV, SourceXLSX, SourcePostgres, SourceSnowflake:
	default:
		return fmt.Errorf("unknown source kind %q", c.Source)
	}

	switch c.Sink {
	case SinkCSV, SinkSQLite:
	default:
		return fmt.Errorf("unknown sink kind %q", c.Sink)
	}

	if c.Source == SourceXLSX && c.WorkbookPath == "" {
		return errors.New("WORKBOOK_PATH is required for the xlsx source")
	}

	if c.DataDir == "" {
		return errors.New("data directory cannot be empty")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
