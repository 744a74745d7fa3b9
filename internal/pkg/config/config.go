package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Insert placement policies
const (
	InsertPolicyAppend  = "append"
	InsertPolicyReapply = "reapply"
)

// Trend series strategies
const (
	TrendStrategyTruncate   = "truncate"
	TrendStrategyDownsample = "downsample"
)

type Config struct {
	// Environment
	Environment string `mapstructure:"ENV"`

	// Dataset sources
	DataDir        string `mapstructure:"DATA_DIR"`
	DefaultDataset string `mapstructure:"DEFAULT_DATASET"`

	// View configuration
	PageSize       int           `mapstructure:"PAGE_SIZE"`
	TrendLimit     int           `mapstructure:"TREND_LIMIT"`
	TrendStrategy  string        `mapstructure:"TREND_STRATEGY"`
	InsertPolicy   string        `mapstructure:"INSERT_POLICY"`
	SearchDebounce time.Duration `mapstructure:"-"`

	// Chart rendering
	ChartOutputDir string `mapstructure:"CHART_OUTPUT_DIR"`
	ChartWidth     int    `mapstructure:"CHART_WIDTH"`
	ChartHeight    int    `mapstructure:"CHART_HEIGHT"`

	// Source cache
	SourceCacheTTL time.Duration `mapstructure:"-"`

	// Redis Configuration
	RedisEnabled  bool   `mapstructure:"REDIS_ENABLED"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     int    `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Database Configuration (load journal)
	DBEnabled  bool   `mapstructure:"DB_ENABLED"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	// S3 Configuration
	S3Region    string `mapstructure:"S3_REGION"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// Worker Configuration
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
	WorkerMaxRetries  int `mapstructure:"WORKER_MAX_RETRIES"`

	// Metrics
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(".env"); err != nil {
		// Try parent directory
		if err := godotenv.Load("../.env"); err != nil {
			slog.Debug("no .env file found, using environment variables only")
		}
	}

	return FromViper(viper.New())
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")

	// Dataset defaults
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DEFAULT_DATASET", "netflix")

	// View defaults
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("TREND_LIMIT", 50)
	v.SetDefault("TREND_STRATEGY", TrendStrategyTruncate)
	v.SetDefault("INSERT_POLICY", InsertPolicyAppend)
	v.SetDefault("SEARCH_DEBOUNCE_MS", 0)

	// Chart defaults
	v.SetDefault("CHART_OUTPUT_DIR", "./charts")
	v.SetDefault("CHART_WIDTH", 800)
	v.SetDefault("CHART_HEIGHT", 500)

	v.SetDefault("SOURCE_CACHE_TTL_SECONDS", 300)

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	// Database defaults
	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "dashboard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_LOG_LEVEL", "silent")

	// S3 defaults
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PATH_STYLE", false)

	// Worker defaults
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("WORKER_MAX_RETRIES", 3)

	v.SetDefault("METRICS_ADDR", "")
}

// FromViper builds a Config from v after registering defaults and binding
// the environment.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Bind environment variables
	v.AutomaticEnv()

	config := &Config{}

	config.Environment = v.GetString("ENV")

	// Datasets
	config.DataDir = v.GetString("DATA_DIR")
	config.DefaultDataset = v.GetString("DEFAULT_DATASET")

	// View
	config.PageSize = v.GetInt("PAGE_SIZE")
	config.TrendLimit = v.GetInt("TREND_LIMIT")
	config.TrendStrategy = v.GetString("TREND_STRATEGY")
	config.InsertPolicy = v.GetString("INSERT_POLICY")
	config.SearchDebounce = time.Duration(v.GetInt("SEARCH_DEBOUNCE_MS")) * time.Millisecond

	// Charts
	config.ChartOutputDir = v.GetString("CHART_OUTPUT_DIR")
	config.ChartWidth = v.GetInt("CHART_WIDTH")
	config.ChartHeight = v.GetInt("CHART_HEIGHT")

	config.SourceCacheTTL = time.Duration(v.GetInt("SOURCE_CACHE_TTL_SECONDS")) * time.Second

	// Redis
	config.RedisEnabled = v.GetBool("REDIS_ENABLED")
	config.RedisHost = v.GetString("REDIS_HOST")
	config.RedisPort = v.GetInt("REDIS_PORT")
	config.RedisPassword = v.GetString("REDIS_PASSWORD")
	config.RedisDB = v.GetInt("REDIS_DB")

	// Database
	config.DBEnabled = v.GetBool("DB_ENABLED")
	config.DBHost = v.GetString("DB_HOST")
	config.DBPort = v.GetInt("DB_PORT")
	config.DBUser = v.GetString("DB_USER")
	config.DBPassword = v.GetString("DB_PASSWORD")
	config.DBName = v.GetString("DB_NAME")
	config.DBSSLMode = v.GetString("DB_SSLMODE")
	config.DBLogLevel = v.GetString("DB_LOG_LEVEL")

	// S3
	config.S3Region = v.GetString("S3_REGION")
	config.S3Endpoint = v.GetString("S3_ENDPOINT")
	config.S3PathStyle = v.GetBool("S3_PATH_STYLE")

	// Worker
	config.WorkerConcurrency = v.GetInt("WORKER_CONCURRENCY")
	config.WorkerMaxRetries = v.GetInt("WORKER_MAX_RETRIES")

	config.MetricsAddr = v.GetString("METRICS_ADDR")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.TrendLimit <= 0 {
		return fmt.Errorf("TREND_LIMIT must be positive, got %d", c.TrendLimit)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE_MS must not be negative")
	}

	switch c.InsertPolicy {
	case InsertPolicyAppend, InsertPolicyReapply:
	default:
		return fmt.Errorf("INSERT_POLICY must be %q or %q, got %q",
			InsertPolicyAppend, InsertPolicyReapply, c.InsertPolicy)
	}

	switch c.TrendStrategy {
	case TrendStrategyTruncate, TrendStrategyDownsample:
	default:
		return fmt.Errorf("TREND_STRATEGY must be %q or %q, got %q",
			TrendStrategyTruncate, TrendStrategyDownsample, c.TrendStrategy)
	}

	if c.DBEnabled && c.DBUser == "" {
		return fmt.Errorf("DB_USER is required when DB_ENABLED is set")
	}

	return nil
}

// GetDatabaseURL constructs the PostgreSQL connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// GetRedisURL constructs the Redis address
func (c *Config) GetRedisURL() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("environment", c.Environment),
		slog.String("data_dir", c.DataDir),
		slog.String("default_dataset", c.DefaultDataset),
		slog.Int("page_size", c.PageSize),
		slog.Int("trend_limit", c.TrendLimit),
		slog.String("trend_strategy", c.TrendStrategy),
		slog.String("insert_policy", c.InsertPolicy),
		slog.Duration("search_debounce", c.SearchDebounce),
		slog.Bool("redis_enabled", c.RedisEnabled),
		slog.Bool("db_enabled", c.DBEnabled),
	)

	// Check credentials without revealing them
	if c.DBPassword != "" {
		logger.Debug("database password configured")
	}
	if c.RedisPassword != "" {
		logger.Debug("redis password configured")
	}
}
