package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Indicators  IndicatorConfig `mapstructure:"indicators"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Warmer      WarmerConfig    `mapstructure:"warmer"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Security    SecurityConfig  `mapstructure:"security"`
	Upload      UploadConfig    `mapstructure:"upload"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the computed-series cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
	Prefix  string `mapstructure:"prefix"`
}

// IndicatorConfig holds the default periods used when a request leaves a
// parameter unset.
type IndicatorConfig struct {
	RSIPeriod       int     `mapstructure:"rsi_period"`
	BollingerPeriod int     `mapstructure:"bollinger_period"`
	BollingerStd    float64 `mapstructure:"bollinger_std"`
	StochK          int     `mapstructure:"stoch_k"`
	StochSlowing    int     `mapstructure:"stoch_slowing"`
	StochD          int     `mapstructure:"stoch_d"`
	MACDFast        int     `mapstructure:"macd_fast"`
	MACDSlow        int     `mapstructure:"macd_slow"`
	MACDSignal      int     `mapstructure:"macd_signal"`
	ATRPeriod       int     `mapstructure:"atr_period"`
	SMAPeriod       int     `mapstructure:"sma_period"`
	EMAPeriod       int     `mapstructure:"ema_period"`
}

type AnalysisConfig struct {
	Lookback        int     `mapstructure:"lookback"`
	SignalThreshold float64 `mapstructure:"signal_threshold"`
}

type WarmerConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Schedule  string   `mapstructure:"schedule"`
	Exchange  string   `mapstructure:"exchange"`
	Symbols   []string `mapstructure:"symbols"`
	Timeframe string   `mapstructure:"timeframe"`
}

type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	Insecure       bool    `mapstructure:"insecure"`
	ExportLogs     bool    `mapstructure:"export_logs"`
	Exporter       string  `mapstructure:"exporter"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

type SecurityConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry   string `mapstructure:"jwt_expiry"`
	RequireJWT  bool   `mapstructure:"require_jwt"`
	AdminAPIKey string `mapstructure:"admin_api_key" json:"-" yaml:"-"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// Load reads an optional .env file, then config.yaml from ./configs or the
// working directory, then environment variables, over the built-in defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("security.admin_api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks durations, the warmer schedule and the JWT secret.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required in non-development environments")
	}
	if c.Security.RequireJWT && c.Security.JWTSecret == "" {
		return errors.New("security.require_jwt needs a JWT secret")
	}

	durations := []struct{ key, value string }{
		{"security.jwt_expiry", c.Security.JWTExpiry},
		{"cache.ttl", c.Cache.TTL},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"database.conn_max_lifetime", c.Database.ConnMaxLifetime},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", d.key, err)
		}
	}

	if c.Warmer.Enabled {
		if _, err := cron.ParseStandard(c.Warmer.Schedule); err != nil {
			return fmt.Errorf("invalid warmer schedule %q: %w", c.Warmer.Schedule, err)
		}
	}
	if c.Analysis.SignalThreshold <= 0 || c.Analysis.SignalThreshold > 1 {
		return fmt.Errorf("analysis.signal_threshold must be in (0, 1], got %v", c.Analysis.SignalThreshold)
	}
	return nil
}

// CacheTTL returns the parsed cache TTL, falling back to five minutes.
func (c CacheConfig) CacheTTL() time.Duration {
	return parseDuration(c.TTL, 5*time.Minute)
}

// ShutdownGrace returns the parsed graceful shutdown timeout.
func (c ServerConfig) ShutdownGrace() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

// Expiry returns the parsed JWT lifetime.
func (c SecurityConfig) Expiry() time.Duration {
	return parseDuration(c.JWTExpiry, 24*time.Hour)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "celebrum_ta")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.prefix", "ta:series:")

	// Indicators
	v.SetDefault("indicators.rsi_period", 14)
	v.SetDefault("indicators.bollinger_period", 20)
	v.SetDefault("indicators.bollinger_std", 2.0)
	v.SetDefault("indicators.stoch_k", 14)
	v.SetDefault("indicators.stoch_slowing", 3)
	v.SetDefault("indicators.stoch_d", 3)
	v.SetDefault("indicators.macd_fast", 12)
	v.SetDefault("indicators.macd_slow", 26)
	v.SetDefault("indicators.macd_signal", 9)
	v.SetDefault("indicators.atr_period", 14)
	v.SetDefault("indicators.sma_period", 20)
	v.SetDefault("indicators.ema_period", 20)

	// Analysis
	v.SetDefault("analysis.lookback", 200)
	v.SetDefault("analysis.signal_threshold", 0.6)

	// Warmer
	v.SetDefault("warmer.enabled", false)
	v.SetDefault("warmer.schedule", "*/5 * * * *")
	v.SetDefault("warmer.exchange", "binance")
	v.SetDefault("warmer.symbols", []string{"BTC/USDT", "ETH/USDT"})
	v.SetDefault("warmer.timeframe", "1h")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "celebrum-ta")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.export_logs", false)

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_expiry", "24h")
	v.SetDefault("security.require_jwt", false)
	v.SetDefault("security.admin_api_key", "")

	// Upload
	v.SetDefault("upload.max_bytes", 10<<20)
}
