package config

import (
	"fmt"
	"os"
	"time"

	"github.com/occutrend/occutrend/internal/trend"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Species  SpeciesConfig  `mapstructure:"species"`
	NBN      NBNConfig      `mapstructure:"nbn"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SpeciesConfig identifies what is fetched and what is modeled.
type SpeciesConfig struct {
	Query string `mapstructure:"query"` // occurrence search query (target group)
	Focal string `mapstructure:"focal"` // focal species the model is fitted for
}

// NBNConfig holds occurrence web service configuration.
type NBNConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PageSize       int           `mapstructure:"page_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// EngineConfig holds external MCMC engine configuration.
type EngineConfig struct {
	Binary     string        `mapstructure:"binary"`
	WorkDir    string        `mapstructure:"work_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Iterations int           `mapstructure:"iterations"`
	Burnin     int           `mapstructure:"burnin"`
	Chains     int           `mapstructure:"chains"`
	Thin       int           `mapstructure:"thin"`
}

// TrendConfig holds change report configuration. Zero years mean "use the
// full fitted range".
type TrendConfig struct {
	FirstYear       int      `mapstructure:"first_year"`
	LastYear        int      `mapstructure:"last_year"`
	Metrics         []string `mapstructure:"metrics"`
	LowerPercentile float64  `mapstructure:"lower_percentile"`
	UpperPercentile float64  `mapstructure:"upper_percentile"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// TelegramConfig holds completion notification configuration.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("OCCUTREND")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: run on defaults and environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Occurrence web service defaults
	v.SetDefault("nbn.api_base_url", "https://records-ws.nbnatlas.org")
	v.SetDefault("nbn.timeout", "30s")
	v.SetDefault("nbn.page_size", 300)
	v.SetDefault("nbn.max_retries", 3)
	v.SetDefault("nbn.retry_delay_base", "1s")

	// Engine defaults
	v.SetDefault("engine.binary", "occfit")
	v.SetDefault("engine.timeout", "30m")
	v.SetDefault("engine.iterations", 10000)
	v.SetDefault("engine.burnin", 5000)
	v.SetDefault("engine.chains", 3)
	v.SetDefault("engine.thin", 3)

	// Trend defaults
	v.SetDefault("trend.metrics", []string{"difference", "percentdif", "growthrate", "lineargrowth"})
	v.SetDefault("trend.lower_percentile", trend.DefaultLowerPercentile)
	v.SetDefault("trend.upper_percentile", trend.DefaultUpperPercentile)

	// Storage defaults
	v.SetDefault("storage.data_dir", "./data")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	// Validate NBN config
	if c.NBN.APIBaseURL == "" {
		return fmt.Errorf("nbn.api_base_url is required")
	}
	if c.NBN.Timeout < 1*time.Second {
		return fmt.Errorf("nbn.timeout must be at least 1 second")
	}
	if c.NBN.PageSize < 1 || c.NBN.PageSize > 1000 {
		return fmt.Errorf("nbn.page_size must be between 1 and 1000")
	}

	// Validate Engine config
	if c.Engine.Binary == "" {
		return fmt.Errorf("engine.binary is required")
	}
	if c.Engine.Iterations < 1 {
		return fmt.Errorf("engine.iterations must be at least 1")
	}
	if c.Engine.Burnin < 0 || c.Engine.Burnin >= c.Engine.Iterations {
		return fmt.Errorf("engine.burnin must be non-negative and below engine.iterations")
	}
	if c.Engine.Chains < 1 {
		return fmt.Errorf("engine.chains must be at least 1")
	}
	if c.Engine.Thin < 1 {
		return fmt.Errorf("engine.thin must be at least 1")
	}

	// Validate Trend config
	if c.Trend.FirstYear != 0 && c.Trend.LastYear != 0 && c.Trend.FirstYear >= c.Trend.LastYear {
		return fmt.Errorf("trend.first_year must precede trend.last_year")
	}
	if len(c.Trend.Metrics) == 0 {
		return fmt.Errorf("trend.metrics must name at least one metric")
	}
	for _, m := range c.Trend.Metrics {
		if _, err := trend.ParseMetricKind(m); err != nil {
			return fmt.Errorf("trend.metrics: %w", err)
		}
	}
	if c.Trend.LowerPercentile < 0 || c.Trend.UpperPercentile > 100 ||
		c.Trend.LowerPercentile >= c.Trend.UpperPercentile {
		return fmt.Errorf("trend percentiles must satisfy 0 <= lower < upper <= 100")
	}

	// Validate Storage config
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// MetricKinds returns the configured metrics as parsed kinds. Call Validate
// first; unknown names are skipped here.
func (c *Config) MetricKinds() []trend.MetricKind {
	kinds := make([]trend.MetricKind, 0, len(c.Trend.Metrics))
	for _, m := range c.Trend.Metrics {
		kind, err := trend.ParseMetricKind(m)
		if err != nil {
			continue
		}
		kinds = append(kinds, kind)
	}
	return kinds
}
