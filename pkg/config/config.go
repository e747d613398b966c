package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Providers struct {
		Finnhub struct {
			APIKey  string        `yaml:"api_key"`
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
			// Token bucket for outbound calls; the free tier throttles at 60/min.
			RateCapacity  float64 `yaml:"rate_capacity"`
			RatePerSecond float64 `yaml:"rate_per_second"`
		} `yaml:"finnhub"`
		Yahoo struct {
			BaseURL  string        `yaml:"base_url"`
			Timeout  time.Duration `yaml:"timeout"`
			Range    string        `yaml:"range"`
			Interval string        `yaml:"interval"`
		} `yaml:"yahoo"`
	} `yaml:"providers"`
	Cache struct {
		Enabled bool `yaml:"enabled"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		TTL struct {
			Quote        time.Duration `yaml:"quote"`
			Fundamentals time.Duration `yaml:"fundamentals"`
			Chart        time.Duration `yaml:"chart"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	History struct {
		Path  string `yaml:"path"`
		Limit int    `yaml:"limit"`
	} `yaml:"history"`
	Archive struct {
		Enabled    bool `yaml:"enabled"`
		ClickHouse struct {
			Host        string        `yaml:"host"`
			Port        int           `yaml:"port"`
			Database    string        `yaml:"database"`
			User        string        `yaml:"user"`
			Password    string        `yaml:"password"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
			ReadTimeout time.Duration `yaml:"read_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`
	Events struct {
		Enabled bool `yaml:"enabled"`
		Kafka   struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"kafka"`
	} `yaml:"events"`
	Valuation struct {
		DefaultWeight        float64 `yaml:"default_weight"`
		DefaultHistoryGrowth float64 `yaml:"default_history_growth"`
		ReferencePEG         float64 `yaml:"reference_peg"`
		Tolerance            float64 `yaml:"tolerance"`
	} `yaml:"valuation"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Validation runs after the overrides so secrets like the
// Finnhub key can come from the environment alone.
func LoadWithEnv(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v, c.Cache.Redis.Port)
		c.Cache.Redis.Host = host
		c.Cache.Redis.Port = port
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Kafka.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Providers.Finnhub.BaseURL == "" {
		c.Providers.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Providers.Finnhub.Timeout <= 0 {
		c.Providers.Finnhub.Timeout = 10 * time.Second
	}
	if c.Providers.Yahoo.BaseURL == "" {
		c.Providers.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Providers.Yahoo.Timeout <= 0 {
		c.Providers.Yahoo.Timeout = 10 * time.Second
	}
	if c.Providers.Yahoo.Range == "" {
		c.Providers.Yahoo.Range = "5y"
	}
	if c.Providers.Yahoo.Interval == "" {
		c.Providers.Yahoo.Interval = "1wk"
	}
	if c.History.Limit <= 0 {
		c.History.Limit = 10
	}
	if c.Valuation.DefaultWeight == 0 {
		c.Valuation.DefaultWeight = 0.7
	}
	if c.Valuation.DefaultHistoryGrowth == 0 {
		c.Valuation.DefaultHistoryGrowth = 0.10
	}
	if c.Valuation.ReferencePEG == 0 {
		c.Valuation.ReferencePEG = 1.0
	}
	if c.Valuation.Tolerance == 0 {
		c.Valuation.Tolerance = 0.10
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Providers.Finnhub.APIKey == "" {
		return fmt.Errorf("providers.finnhub.api_key is required")
	}
	if c.History.Path == "" {
		return fmt.Errorf("history.path is required")
	}
	if w := c.Valuation.DefaultWeight; w < 0 || w > 1 {
		return fmt.Errorf("valuation.default_weight must be in [0,1], got %v", w)
	}
	if t := c.Valuation.Tolerance; t < 0 || t >= 1 {
		return fmt.Errorf("valuation.tolerance must be in [0,1), got %v", t)
	}
	if c.Events.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers cannot be empty when events are enabled")
	}
	if c.Archive.Enabled && c.Archive.ClickHouse.Host == "" {
		return fmt.Errorf("archive.clickhouse.host is required when archive is enabled")
	}
	return nil
}

func splitHostPort(addr string, defPort int) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, defPort
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil || port <= 0 {
		return host, defPort
	}
	return host, port
}
