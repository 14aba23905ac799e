package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

type Config struct {
	Environment    string               `mapstructure:"environment"`
	LogLevel       string               `mapstructure:"log_level"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Data           DataConfig           `mapstructure:"data"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
	Rates          RatesConfig          `mapstructure:"rates"`
	Trend          TrendConfig          `mapstructure:"trend"`
	Scoring        ScoringConfig        `mapstructure:"scoring"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	AdminAPIKey string `mapstructure:"admin_api_key" json:"-" yaml:"-"`
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
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DataConfig selects where the connection and quote tables come from.
// Source is "postgres" or "file".
type DataConfig struct {
	Source          string `mapstructure:"source"`
	ConnectionsFile string `mapstructure:"connections_file"`
	AirportsFile    string `mapstructure:"airports_file"`
	QuotesFile      string `mapstructure:"quotes_file"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	ExportLogs   bool    `mapstructure:"export_logs"`
}

type RatesConfig struct {
	ReferenceCurrency string   `mapstructure:"reference_currency"`
	CacheBackend      string   `mapstructure:"cache_backend"`
	CacheTTL          string   `mapstructure:"cache_ttl"`
	WarmCurrencies    []string `mapstructure:"warm_currencies"`
}

type TrendConfig struct {
	Window        int `mapstructure:"window"`
	AveragePeriod int `mapstructure:"average_period"`
}

type ScoringConfig struct {
	ReferenceFare float64 `mapstructure:"reference_fare"`
}

type RecommendationConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RefreshInterval string `mapstructure:"refresh_interval"`
	QuoteLookback   string `mapstructure:"quote_lookback"`
	MaxCandidates   int    `mapstructure:"max_candidates"`
	Concurrency     int    `mapstructure:"concurrency"`
	DefaultLimit    int    `mapstructure:"default_limit"`

	// Source circuit breaker
	BreakerFailureThreshold int    `mapstructure:"breaker_failure_threshold"`
	BreakerOpenTimeout      string `mapstructure:"breaker_open_timeout"`
}

func Load() (*Config, error) {
	// A missing .env file is fine; real deployments use the environment directly
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("server.admin_api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Rates.ReferenceCurrency = strings.ToUpper(strings.TrimSpace(config.Rates.ReferenceCurrency))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Server.AdminAPIKey == "" {
		return errors.New("ADMIN_API_KEY environment variable is required in non-development environments")
	}

	if _, err := currency.ParseISO(c.Rates.ReferenceCurrency); err != nil {
		return fmt.Errorf("invalid reference currency %q: %w", c.Rates.ReferenceCurrency, err)
	}

	switch c.Rates.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported rate cache backend %q", c.Rates.CacheBackend)
	}
	if c.Rates.CacheBackend == "redis" && !c.Redis.Enabled {
		return errors.New("rate cache backend redis requires redis.enabled")
	}

	switch c.Data.Source {
	case "postgres":
	case "file":
		if c.Data.ConnectionsFile == "" || c.Data.QuotesFile == "" {
			return errors.New("file data source requires connections_file and quotes_file")
		}
	default:
		return fmt.Errorf("unsupported data source %q", c.Data.Source)
	}

	durations := map[string]string{
		"rates.cache_ttl":                     c.Rates.CacheTTL,
		"recommendation.refresh_interval":     c.Recommendation.RefreshInterval,
		"recommendation.quote_lookback":       c.Recommendation.QuoteLookback,
		"recommendation.breaker_open_timeout": c.Recommendation.BreakerOpenTimeout,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", key, err)
		}
	}

	if c.Recommendation.Concurrency < 1 {
		return fmt.Errorf("recommendation concurrency must be at least 1, got %d", c.Recommendation.Concurrency)
	}
	if c.Scoring.ReferenceFare <= 0 {
		return fmt.Errorf("scoring reference fare must be positive, got %v", c.Scoring.ReferenceFare)
	}

	return nil
}

// Duration parses a duration setting, returning fallback when it is empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.admin_api_key", "")

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "wayfare")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Data
	viper.SetDefault("data.source", "postgres")
	viper.SetDefault("data.connections_file", "")
	viper.SetDefault("data.airports_file", "")
	viper.SetDefault("data.quotes_file", "")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.exporter", "otlp")
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.service_name", "wayfare")
	viper.SetDefault("telemetry.sample_ratio", 0.2)
	viper.SetDefault("telemetry.export_logs", false)

	// Rates
	viper.SetDefault("rates.reference_currency", "USD")
	viper.SetDefault("rates.cache_backend", "memory")
	viper.SetDefault("rates.cache_ttl", "0s")
	viper.SetDefault("rates.warm_currencies", []string{})

	// Trend
	viper.SetDefault("trend.window", 7)
	viper.SetDefault("trend.average_period", 7)

	// Scoring
	viper.SetDefault("scoring.reference_fare", 500.0)

	// Recommendation
	viper.SetDefault("recommendation.enabled", true)
	viper.SetDefault("recommendation.refresh_interval", "15m")
	viper.SetDefault("recommendation.quote_lookback", "2160h")
	viper.SetDefault("recommendation.max_candidates", 200)
	viper.SetDefault("recommendation.concurrency", 8)
	viper.SetDefault("recommendation.default_limit", 10)
	viper.SetDefault("recommendation.breaker_failure_threshold", 3)
	viper.SetDefault("recommendation.breaker_open_timeout", "1m")
}
