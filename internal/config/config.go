package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		WebsocketURL string `yaml:"websocket_url"`
	} `yaml:"provider"`
	Surveillance struct {
		PollIntervalMs        int64   `yaml:"poll_interval_ms"`
		WhaleChangeThreshold  float64 `yaml:"whale_change_threshold"`
		TopBinChangeCount     int     `yaml:"top_bin_change_count"`
		HighRiskTotalChange   float64 `yaml:"high_risk_total_change_pct"`
		HighRiskTopBin        float64 `yaml:"high_risk_top_bin_pct"`
		MediumRiskTotalChange float64 `yaml:"medium_risk_total_change_pct"`
		MediumRiskTopBin      float64 `yaml:"medium_risk_top_bin_pct"`
		AnalysisCron          string  `yaml:"analysis_cron"`
		SummaryCron           string  `yaml:"summary_cron"`
		HistoryLimit          int     `yaml:"history_limit"`
		AnalysisWorkers       int     `yaml:"analysis_workers"`
	} `yaml:"surveillance"`
	Pools []string `yaml:"pools"`
	Alert struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"alert"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("PROVIDER_WS_URL"); v != "" {
		cfg.Provider.WebsocketURL = v
	}
	if v := os.Getenv("POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Surveillance.PollIntervalMs = ms
		}
	}
	if v := os.Getenv("WHALE_CHANGE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Surveillance.WhaleChangeThreshold = f
		}
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alert.WebhookURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Surveillance.PollIntervalMs == 0 {
		cfg.Surveillance.PollIntervalMs = 300000
	}
	if cfg.Surveillance.WhaleChangeThreshold == 0 {
		cfg.Surveillance.WhaleChangeThreshold = 0.05
	}
	if cfg.Surveillance.TopBinChangeCount == 0 {
		cfg.Surveillance.TopBinChangeCount = 3
	}
	if cfg.Surveillance.HighRiskTotalChange == 0 {
		cfg.Surveillance.HighRiskTotalChange = 0.15
	}
	if cfg.Surveillance.HighRiskTopBin == 0 {
		cfg.Surveillance.HighRiskTopBin = 0.10
	}
	if cfg.Surveillance.MediumRiskTotalChange == 0 {
		cfg.Surveillance.MediumRiskTotalChange = 0.08
	}
	if cfg.Surveillance.MediumRiskTopBin == 0 {
		cfg.Surveillance.MediumRiskTopBin = 0.05
	}
	if cfg.Surveillance.AnalysisCron == "" {
		cfg.Surveillance.AnalysisCron = "0 */15 * * * *"
	}
	if cfg.Surveillance.SummaryCron == "" {
		cfg.Surveillance.SummaryCron = "0 0 0 * * *"
	}
	if cfg.Surveillance.HistoryLimit == 0 {
		cfg.Surveillance.HistoryLimit = 168
	}
	if cfg.Surveillance.AnalysisWorkers == 0 {
		cfg.Surveillance.AnalysisWorkers = 4
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/liqpro_watch.db"
	}

	return cfg, nil
}

// Validate checks that all configured thresholds are sane. Invalid values
// are fatal at startup; nothing re-validates at runtime.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Surveillance.PollIntervalMs <= 0 {
		return fmt.Errorf("surveillance.poll_interval_ms must be positive")
	}
	if c.Surveillance.WhaleChangeThreshold <= 0 || c.Surveillance.WhaleChangeThreshold >= 1 {
		return fmt.Errorf("surveillance.whale_change_threshold must be in (0,1)")
	}
	if c.Surveillance.TopBinChangeCount <= 0 {
		return fmt.Errorf("surveillance.top_bin_change_count must be positive")
	}
	if c.Surveillance.MediumRiskTotalChange > c.Surveillance.HighRiskTotalChange {
		return fmt.Errorf("medium risk total-change threshold exceeds high risk threshold")
	}
	if c.Surveillance.MediumRiskTopBin > c.Surveillance.HighRiskTopBin {
		return fmt.Errorf("medium risk top-bin threshold exceeds high risk threshold")
	}
	if c.Surveillance.HistoryLimit < 2 {
		return fmt.Errorf("surveillance.history_limit must be at least 2")
	}
	return nil
}
