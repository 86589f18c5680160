package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
species:
  query: "Bombus distinguendus"
  focal: "Bombus distinguendus"

nbn:
  api_base_url: "https://records-ws.nbnatlas.org"
  timeout: 30s
  page_size: 300
  max_retries: 3

engine:
  binary: "occfit"
  timeout: 30m
  iterations: 10000
  burnin: 5000
  chains: 3
  thin: 3

trend:
  first_year: 1970
  last_year: 2023
  metrics:
    - difference
    - growthrate
  lower_percentile: 2.5
  upper_percentile: 97.5

storage:
  data_dir: "./data"

telegram:
  enabled: false

logging:
  level: "info"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Species.Focal != "Bombus distinguendus" {
		t.Errorf("species.focal = %q", cfg.Species.Focal)
	}
	if cfg.NBN.Timeout != 30*time.Second {
		t.Errorf("nbn.timeout = %v, want 30s", cfg.NBN.Timeout)
	}
	if cfg.Engine.Iterations != 10000 {
		t.Errorf("engine.iterations = %d, want 10000", cfg.Engine.Iterations)
	}
	if cfg.Trend.FirstYear != 1970 || cfg.Trend.LastYear != 2023 {
		t.Errorf("trend window = %d..%d, want 1970..2023", cfg.Trend.FirstYear, cfg.Trend.LastYear)
	}

	kinds := cfg.MetricKinds()
	if len(kinds) != 2 {
		t.Errorf("MetricKinds() = %v, want 2 kinds", kinds)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/occutrend-config.yaml")
	if err != nil {
		t.Fatalf("Load of missing file should fall back to defaults, got: %v", err)
	}

	if cfg.NBN.APIBaseURL != "https://records-ws.nbnatlas.org" {
		t.Errorf("default nbn.api_base_url = %q", cfg.NBN.APIBaseURL)
	}
	if cfg.Engine.Timeout != 30*time.Minute {
		t.Errorf("default engine.timeout = %v, want 30m", cfg.Engine.Timeout)
	}
	if len(cfg.Trend.Metrics) != 4 {
		t.Errorf("default trend.metrics = %v, want all four", cfg.Trend.Metrics)
	}
	if cfg.Telegram.Enabled {
		t.Error("telegram should be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("/nonexistent/occutrend-config.yaml")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api base url", func(c *Config) { c.NBN.APIBaseURL = "" }},
		{"tiny timeout", func(c *Config) { c.NBN.Timeout = time.Millisecond }},
		{"page size too large", func(c *Config) { c.NBN.PageSize = 5000 }},
		{"empty engine binary", func(c *Config) { c.Engine.Binary = "" }},
		{"burnin above iterations", func(c *Config) { c.Engine.Burnin = c.Engine.Iterations + 1 }},
		{"zero chains", func(c *Config) { c.Engine.Chains = 0 }},
		{"inverted year window", func(c *Config) { c.Trend.FirstYear = 2020; c.Trend.LastYear = 1970 }},
		{"no metrics", func(c *Config) { c.Trend.Metrics = nil }},
		{"unknown metric", func(c *Config) { c.Trend.Metrics = []string{"bogus"} }},
		{"inverted percentiles", func(c *Config) { c.Trend.LowerPercentile = 97.5; c.Trend.UpperPercentile = 2.5 }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"telegram enabled without token", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "123" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
