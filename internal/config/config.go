package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Source backends
const (
	SourceMySQL      = "mysql"
	SourceClickHouse = "clickhouse"
)

// MySQL SSL modes
const (
	SSLModeDisabled       = "disabled"
	SSLModePreferred      = "preferred"
	SSLModeRequired       = "required"
	SSLModeVerifyCA       = "verify_ca"
	SSLModeVerifyIdentity = "verify_identity"
)

type Config struct {
	Source        SourceConfig        `mapstructure:"source"`
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	ClickHouse    ClickHouseConfig    `mapstructure:"clickhouse"`
	Export        ExportConfig        `mapstructure:"export"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type SourceConfig struct {
	Type string `mapstructure:"type"` // mysql, clickhouse
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	SSLCert  string `mapstructure:"ssl_cert"`
	SSLKey   string `mapstructure:"ssl_key"`
	SSLCa    string `mapstructure:"ssl_ca"`
}

type ClickHouseConfig struct {
	Addresses   []string      `mapstructure:"addresses"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	EnableSSL   bool          `mapstructure:"enable_ssl"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type ExportConfig struct {
	Table        string `mapstructure:"table"`
	Column       string `mapstructure:"column"`
	KeyColumn    string `mapstructure:"key_column"`
	KeyValue     string `mapstructure:"key_value"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	OutputPath   string `mapstructure:"output_path"`
	ManifestPath string `mapstructure:"manifest_path"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        int    `mapstructure:"port"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	LocalTime  bool   `mapstructure:"local_time"`
}

type ObservabilityConfig struct {
	ErrorReporting ErrorReportingConfig `mapstructure:"error_reporting"`
	LogExporting   LogExportingConfig   `mapstructure:"log_exporting"`
}

type ErrorReportingConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"` // sentry, noop
	Sentry   SentryConfig `mapstructure:"sentry"`
}

type SentryConfig struct {
	DSN          string        `mapstructure:"dsn"`
	Environment  string        `mapstructure:"environment"`
	Release      string        `mapstructure:"release"`
	SampleRate   float64       `mapstructure:"sample_rate"`
	Debug        bool          `mapstructure:"debug"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

type LogExportingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Provider string         `mapstructure:"provider"` // newrelic, noop
	NewRelic NewRelicConfig `mapstructure:"newrelic"`
}

type NewRelicConfig struct {
	LicenseKey    string        `mapstructure:"license_key"`
	AppName       string        `mapstructure:"app_name"`
	LogForwarding bool          `mapstructure:"log_forwarding"`
	FlushTimeout  time.Duration `mapstructure:"flush_timeout"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	setDefaults(v)

	// Read config file as raw bytes so env references expand before parsing
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData, err := expandEnvWithDefaults(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	if err := v.ReadConfig(bytes.NewReader([]byte(expandedData))); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.type", SourceMySQL)

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.ssl_mode", SSLModePreferred)

	v.SetDefault("clickhouse.database", "default")
	v.SetDefault("clickhouse.enable_ssl", false)
	v.SetDefault("clickhouse.dial_timeout", "10s")

	v.SetDefault("export.chunk_size", 128)
	v.SetDefault("export.manifest_path", "blobstream-manifest.json")

	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.port", 8080)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_path", "/health")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.local_time", true)

	v.SetDefault("observability.error_reporting.enabled", false)
	v.SetDefault("observability.error_reporting.provider", "sentry")
	v.SetDefault("observability.error_reporting.sentry.sample_rate", 1.0)
	v.SetDefault("observability.error_reporting.sentry.flush_timeout", "5s")

	v.SetDefault("observability.log_exporting.enabled", false)
	v.SetDefault("observability.log_exporting.provider", "newrelic")
	v.SetDefault("observability.log_exporting.newrelic.log_forwarding", true)
	v.SetDefault("observability.log_exporting.newrelic.flush_timeout", "5s")
}

func validate(cfg *Config) error {
	switch cfg.Source.Type {
	case SourceMySQL:
		if cfg.MySQL.Host == "" {
			return fmt.Errorf("mysql.host is required")
		}
		if cfg.MySQL.Username == "" {
			return fmt.Errorf("mysql.username is required")
		}
		if cfg.MySQL.Password == "" {
			return fmt.Errorf("mysql.password is required")
		}
		if cfg.MySQL.Database == "" {
			return fmt.Errorf("mysql.database is required")
		}
		if err := validatePort(cfg.MySQL.Port, "mysql.port"); err != nil {
			return err
		}

		validSSLModes := map[string]bool{
			SSLModeDisabled:       true,
			SSLModePreferred:      true,
			SSLModeRequired:       true,
			SSLModeVerifyCA:       true,
			SSLModeVerifyIdentity: true,
		}
		if !validSSLModes[cfg.MySQL.SSLMode] {
			return fmt.Errorf("mysql.ssl_mode must be one of: disabled, preferred, required, verify_ca, verify_identity")
		}
		if cfg.MySQL.SSLCert != "" && cfg.MySQL.SSLKey == "" {
			return fmt.Errorf("mysql.ssl_key is required when mysql.ssl_cert is specified")
		}
		if cfg.MySQL.SSLKey != "" && cfg.MySQL.SSLCert == "" {
			return fmt.Errorf("mysql.ssl_cert is required when mysql.ssl_key is specified")
		}
		if (cfg.MySQL.SSLMode == SSLModeVerifyCA || cfg.MySQL.SSLMode == SSLModeVerifyIdentity) && cfg.MySQL.SSLCa == "" {
			return fmt.Errorf("mysql.ssl_ca is required when ssl_mode is %s", cfg.MySQL.SSLMode)
		}

	case SourceClickHouse:
		if len(cfg.ClickHouse.Addresses) == 0 {
			return fmt.Errorf("clickhouse.addresses is required")
		}
		if cfg.ClickHouse.Username == "" {
			return fmt.Errorf("clickhouse.username is required")
		}
		if err := validatePositiveDuration(cfg.ClickHouse.DialTimeout, "clickhouse.dial_timeout"); err != nil {
			return err
		}

	default:
		return fmt.Errorf("source.type must be one of: mysql, clickhouse")
	}

	if cfg.Export.Table == "" {
		return fmt.Errorf("export.table is required")
	}
	if cfg.Export.Column == "" {
		return fmt.Errorf("export.column is required")
	}
	if cfg.Export.OutputPath == "" {
		return fmt.Errorf("export.output_path is required")
	}
	if cfg.Export.ManifestPath == "" {
		return fmt.Errorf("export.manifest_path is required")
	}
	if err := validateRange(cfg.Export.ChunkSize, 1, 1<<20, "export.chunk_size"); err != nil {
		return err
	}
	if cfg.Export.KeyColumn != "" && cfg.Export.KeyValue == "" {
		return fmt.Errorf("export.key_value is required when export.key_column is specified")
	}
	if cfg.Export.KeyValue != "" && cfg.Export.KeyColumn == "" {
		return fmt.Errorf("export.key_column is required when export.key_value is specified")
	}

	if cfg.Monitoring.Enabled {
		if err := validatePort(cfg.Monitoring.Port, "monitoring.port"); err != nil {
			return err
		}
	}

	if err := validateRange(cfg.Logging.MaxSize, 1, 1000, "logging.max_size"); err != nil {
		return err
	}
	if err := validateRange(cfg.Logging.MaxBackups, 0, 100, "logging.max_backups"); err != nil {
		return err
	}
	if err := validateRange(cfg.Logging.MaxAge, 0, 365, "logging.max_age"); err != nil {
		return err
	}

	return nil
}

// validatePort checks if a port number is in the valid range (1-65535)
func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// validatePositiveDuration checks if a duration is positive
func validatePositiveDuration(d time.Duration, name string) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, d)
	}
	return nil
}

// validateRange checks if an integer is within a specified range
func validateRange(value int, min int, max int, name string) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}
	return nil
}
