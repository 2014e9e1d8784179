package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Security  SecurityConfig  `mapstructure:"security"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	CSVFile string `mapstructure:"csv_file"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `mapstructure:"rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	TrustedProxies  []string `mapstructure:"trusted_proxies"`
}

// DashboardConfig sizes the list panels of the dashboard.
type DashboardConfig struct {
	TopN       int `mapstructure:"top_n"`
	SampleSize int `mapstructure:"sample_size"`
	TableRows  int `mapstructure:"table_rows"`
}

var envBindings = map[string]string{
	"server.host":                 "SERVER_HOST",
	"server.port":                 "SERVER_PORT",
	"server.read_timeout":         "SERVER_READ_TIMEOUT",
	"server.write_timeout":        "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":         "SERVER_IDLE_TIMEOUT",
	"server.shutdown_timeout":     "SERVER_SHUTDOWN_TIMEOUT",
	"data.csv_file":               "CSV_FILE",
	"logger.level":                "LOG_LEVEL",
	"logger.format":               "LOG_FORMAT",
	"security.rate_limit_enabled": "SECURITY_RATE_LIMIT_ENABLED",
	"security.rate_limit_rps":     "SECURITY_RATE_LIMIT_RPS",
	"security.rate_limit_burst":   "SECURITY_RATE_LIMIT_BURST",
	"security.allowed_origins":    "SECURITY_ALLOWED_ORIGINS",
	"security.trusted_proxies":    "SECURITY_TRUSTED_PROXIES",
	"dashboard.top_n":             "DASHBOARD_TOP_N",
	"dashboard.sample_size":       "DASHBOARD_SAMPLE_SIZE",
	"dashboard.table_rows":        "DASHBOARD_TABLE_ROWS",
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Security.AllowedOrigins = trimAll(cfg.Security.AllowedOrigins)
	cfg.Security.TrustedProxies = trimAll(cfg.Security.TrustedProxies)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("data.csv_file", "superstore.csv")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("security.rate_limit_enabled", true)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 10)
	v.SetDefault("security.allowed_origins", []string{"http://localhost:8084"})
	v.SetDefault("security.trusted_proxies", []string{"127.0.0.1"})

	v.SetDefault("dashboard.top_n", 10)
	v.SetDefault("dashboard.sample_size", 1000)
	v.SetDefault("dashboard.table_rows", 1000)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Dashboard.TopN < 1 {
		return fmt.Errorf("dashboard top N must be at least 1, got %d", c.Dashboard.TopN)
	}

	if c.Dashboard.SampleSize < 1 || c.Dashboard.SampleSize > 1000 {
		return fmt.Errorf("dashboard sample size must be between 1 and 1000, got %d", c.Dashboard.SampleSize)
	}

	if c.Dashboard.TableRows < 1 || c.Dashboard.TableRows > 1000 {
		return fmt.Errorf("dashboard table rows must be between 1 and 1000, got %d", c.Dashboard.TableRows)
	}

	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
