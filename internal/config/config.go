package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// GridConfig holds snapping and gesture tuning.
type GridConfig struct {
	Spacing               float64 `json:"spacing" mapstructure:"spacing"`
	SnapEnabled           bool    `json:"snapEnabled" mapstructure:"snapEnabled"`
	PathEpsilon           float64 `json:"pathEpsilon" mapstructure:"pathEpsilon"`
	HitRadius             float64 `json:"hitRadius" mapstructure:"hitRadius"`
	AllowDrawWhilePlaying bool    `json:"allowDrawWhilePlaying" mapstructure:"allowDrawWhilePlaying"`
}

// ThemeConfig holds the board palette.
type ThemeConfig struct {
	HomeColor    string `json:"homeColor" mapstructure:"homeColor"`
	AwayColor    string `json:"awayColor" mapstructure:"awayColor"`
	NeutralColor string `json:"neutralColor" mapstructure:"neutralColor"`
	StrokeColor  string `json:"strokeColor" mapstructure:"strokeColor"`
	ZoneColor    string `json:"zoneColor" mapstructure:"zoneColor"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the embedded database backend.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the session storage backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry export settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./tacticslogs")

	viper.SetDefault("grid.spacing", 0.05)
	viper.SetDefault("grid.snapEnabled", true)
	viper.SetDefault("grid.pathEpsilon", 0.001)
	viper.SetDefault("grid.hitRadius", 0.02)
	viper.SetDefault("grid.allowDrawWhilePlaying", false)

	viper.SetDefault("theme.homeColor", "#d62828")
	viper.SetDefault("theme.awayColor", "#1d4e89")
	viper.SetDefault("theme.neutralColor", "#f4a300")
	viper.SetDefault("theme.strokeColor", "#ffffff")
	viper.SetDefault("theme.zoneColor", "#3fa34d")

	viper.SetDefault("formationsFile", "")
	viper.SetDefault("rosterFile", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./sessions")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./tacticsboard.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "tacticsboard")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "tacticsboard-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tacticsboard")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("tacticsboard.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetGridConfig returns the snapping and gesture settings.
func GetGridConfig() GridConfig {
	return GridConfig{
		Spacing:               viper.GetFloat64("grid.spacing"),
		SnapEnabled:           viper.GetBool("grid.snapEnabled"),
		PathEpsilon:           viper.GetFloat64("grid.pathEpsilon"),
		HitRadius:             viper.GetFloat64("grid.hitRadius"),
		AllowDrawWhilePlaying: viper.GetBool("grid.allowDrawWhilePlaying"),
	}
}

// GetThemeConfig returns the board palette.
func GetThemeConfig() ThemeConfig {
	return ThemeConfig{
		HomeColor:    viper.GetString("theme.homeColor"),
		AwayColor:    viper.GetString("theme.awayColor"),
		NeutralColor: viper.GetString("theme.neutralColor"),
		StrokeColor:  viper.GetString("theme.strokeColor"),
		ZoneColor:    viper.GetString("theme.zoneColor"),
	}
}

// GetStorageConfig returns the storage backend selection and settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns OpenTelemetry export settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
