package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FilterConfig selects and configures the document filter.
type FilterConfig struct {
	// Mode is one of field, expression, configurable, ancestor, parent,
	// term_frequency, tld, tld_field_index or tld_term_frequency.
	Mode string `yaml:"mode"`
	// Fields is the retained field set of the field mode.
	Fields []string `yaml:"fields"`
	// UseExpression makes the configurable mode evaluate the expression
	// instead of retaining Fields.
	UseExpression       bool           `yaml:"use_expression"`
	QueryFields         []string       `yaml:"query_fields"`
	Allowlist           []string       `yaml:"allowlist"`
	Disallowlist        []string       `yaml:"disallowlist"`
	NonEventFields      []string       `yaml:"non_event_fields"`
	FieldLimits         map[string]int `yaml:"field_limits"`
	LimitField          string         `yaml:"limit_field"`
	MaxFieldsBeforeSeek int            `yaml:"max_fields_before_seek"`
	MaxKeysBeforeSeek   int            `yaml:"max_keys_before_seek"`
	MaxNextCount        int            `yaml:"max_next_count"`
	UIDRootSegments     int            `yaml:"uid_root_segments"`
}

// ProjectionConfig lists returned fields. Includes and excludes are mutually exclusive.
type ProjectionConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ScanConfig holds scan driver configurations.
type ScanConfig struct {
	Timeout             string `yaml:"timeout"`
	Partitions          int    `yaml:"partitions"`
	ParserCacheCapacity int    `yaml:"parser_cache_capacity"`
	PublishMetrics      bool   `yaml:"publish_metrics"`
	MetricPrefix        string `yaml:"metric_prefix"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "file", "none"
	Format string `yaml:"format"` // "json" or "text"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
	// AddSource adds the calling file and line to every record.
	AddSource bool `yaml:"add_source"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol    string `yaml:"protocol"` // "grpc" or "http"
	ServiceName string `yaml:"service_name"`
	// SampleRatio is the fraction of scans traced; 1 traces every scan.
	SampleRatio float64           `yaml:"sample_ratio"`
	Attributes  map[string]string `yaml:"attributes"`
}

// Config is the top-level configuration struct.
type Config struct {
	Filter     FilterConfig     `yaml:"filter"`
	Projection ProjectionConfig `yaml:"projection"`
	Scan       ScanConfig       `yaml:"scan"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// ParseDuration parses a duration string. Returns the default duration if the string is empty or invalid.
// Logs a warning if the string is invalid but not empty.
func ParseDuration(durationStr string, defaultDuration time.Duration, logger *slog.Logger) time.Duration {
	if durationStr == "" || durationStr == "0" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid duration format, using default", "input", durationStr, "default", defaultDuration.String(), "error", err)
		}
		return defaultDuration
	}
	return d
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Filter: FilterConfig{
			Mode:                "tld",
			MaxFieldsBeforeSeek: -1,
			MaxKeysBeforeSeek:   -1,
			MaxNextCount:        -1,
			UIDRootSegments:     3,
		},
		Scan: ScanConfig{
			Timeout:             "0",
			Partitions:          1,
			ParserCacheCapacity: 1024,
			PublishMetrics:      false,
			MetricPrefix:        "docseek_",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
			Format: "json",
			File:   "docseek.log",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			ServiceName: "docseek",
			SampleRatio: 1,
		},
	}
}

// Load reads configuration from an io.Reader.
// This is the core logic, separated for testability.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	// Unmarshal YAML into the config struct, overwriting defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	cfg.Filter.Mode = strings.ToLower(strings.TrimSpace(cfg.Filter.Mode))
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// If file doesn't exist, return default config by calling Load with a nil reader.
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
