package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Cache    CacheConfig    `yaml:"cache"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	MetricsPort        int    `yaml:"metrics_port"`
	AdminToken         string `yaml:"admin_token"`
	MaxBodyBytes       int64  `yaml:"max_body_bytes"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// DatabaseConfig selects the store. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig enables the Redis result cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr  string `yaml:"redis_addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type AnalysisConfig struct {
	Indicators  IndicatorsConfig  `yaml:"indicators"`
	KMeans      KMeansConfig      `yaml:"kmeans"`
	Recommender RecommenderConfig `yaml:"recommender"`
}

type IndicatorsConfig struct {
	Environmental []string `yaml:"environmental"`
	Policy        []string `yaml:"policy"`
}

type KMeansConfig struct {
	MaxK          int   `yaml:"max_k"`
	MaxIterations int   `yaml:"max_iterations"`
	Seed          int64 `yaml:"seed"`
}

type RecommenderConfig struct {
	TopN    int           `yaml:"top_n"`
	Balance BalanceConfig `yaml:"balance"`
}

type BalanceConfig struct {
	Price          float64 `yaml:"price"`
	Sustainability float64 `yaml:"sustainability"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			MaxBodyBytes:       10 << 20,
			RateLimitPerMinute: 120,
		},
		Cache: CacheConfig{
			TTLSeconds: 600,
		},
		Analysis: AnalysisConfig{
			Indicators: IndicatorsConfig{
				Environmental: []string{"Carbon_Footprint_MT", "Water_Usage_Liters", "Waste_Production_KG"},
				Policy:        []string{"Sustainability_Rating", "Recycling_Programs"},
			},
			KMeans: KMeansConfig{
				MaxK:          6,
				MaxIterations: 40,
				Seed:          42,
			},
			Recommender: RecommenderConfig{
				TopN:    5,
				Balance: BalanceConfig{Price: 0.5, Sustainability: 0.5},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("server.metrics_port %d out of range", c.Server.MetricsPort))
	}
	if c.Server.MetricsPort == c.Server.Port {
		errs = append(errs, errors.New("server.metrics_port must differ from server.port"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Server.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("server.rate_limit_per_minute must be positive"))
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, errors.New("cache.ttl_seconds must not be negative"))
	}

	a := c.Analysis
	if len(a.Indicators.Environmental) == 0 || len(a.Indicators.Policy) == 0 {
		errs = append(errs, errors.New("analysis.indicators needs environmental and policy columns"))
	}
	if a.KMeans.MaxK <= 0 {
		errs = append(errs, fmt.Errorf("analysis.kmeans.max_k must be positive, got %d", a.KMeans.MaxK))
	}
	if a.KMeans.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("analysis.kmeans.max_iterations must be positive, got %d", a.KMeans.MaxIterations))
	}
	if a.Recommender.TopN <= 0 {
		errs = append(errs, fmt.Errorf("analysis.recommender.top_n must be positive, got %d", a.Recommender.TopN))
	}
	b := a.Recommender.Balance
	if b.Price < 0 || b.Sustainability < 0 || math.Abs(b.Price+b.Sustainability-1.0) > 0.001 {
		errs = append(errs, fmt.Errorf("analysis.recommender.balance must be non-negative and sum to 1.0, got %.4f", b.Price+b.Sustainability))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q not one of json, text", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CANOPY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CANOPY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("CANOPY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("CANOPY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CANOPY_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("CANOPY_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("CANOPY_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTLSeconds = n
		}
	}
	if v := os.Getenv("CANOPY_MAX_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.KMeans.MaxK = n
		}
	}
	if v := os.Getenv("CANOPY_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.Recommender.TopN = n
		}
	}
	if v := os.Getenv("CANOPY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
