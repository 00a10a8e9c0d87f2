// Package config loads and validates jobradar configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Collect  CollectConfig  `mapstructure:"collect"`
	Validate ValidateConfig `mapstructure:"validate"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Store    StoreConfig    `mapstructure:"store"`
	Report   ReportConfig   `mapstructure:"report"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// MetricsConfig controls the Prometheus scrape endpoint. An empty Addr
// disables the listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures the shared throttled HTTP client.
type HTTPConfig struct {
	UserAgent          string  `mapstructure:"user_agent"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"`
	MaxRetries         int     `mapstructure:"max_retries"`
	MinIntervalSeconds float64 `mapstructure:"min_interval_seconds"`
	RespectRobots      bool    `mapstructure:"respect_robots"`
}

// CatalogConfig locates the durable input and output lists. MasterFile
// is the primary company list; ExtraFiles and every *.txt under
// ExtraDir are appended to it.
type CatalogConfig struct {
	DataDir    string   `mapstructure:"data_dir"`
	MasterFile string   `mapstructure:"master_file"`
	ExtraFiles []string `mapstructure:"extra_files"`
	ExtraDir   string   `mapstructure:"extra_dir"`
}

// CollectConfig governs the ingestion orchestrator.
type CollectConfig struct {
	Workers         int  `mapstructure:"workers"`
	MaxPerSource    int  `mapstructure:"max_per_source"`
	DaysBack        int  `mapstructure:"days_back"`
	RequirePostedAt bool `mapstructure:"require_posted_at"`
}

// ValidateConfig governs token validation and career-page discovery.
type ValidateConfig struct {
	Workers        int     `mapstructure:"workers"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
}

// FilterConfig controls the normalization and filter engine.
type FilterConfig struct {
	MaxPostingAgeDays int `mapstructure:"max_posting_age_days"`
	MinScore          int `mapstructure:"min_score"`
}

// StoreConfig selects and configures the posting store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

// ReportConfig controls feed exports.
type ReportConfig struct {
	OutDir     string `mapstructure:"out_dir"`
	PageSize   int    `mapstructure:"page_size"`
	ReadmePath string `mapstructure:"readme_path"`
	Days       int    `mapstructure:"days"`
}

// PipelineConfig controls the stateful daily pipeline.
type PipelineConfig struct {
	StatePath       string `mapstructure:"state_path"`
	FirstRunDays    int    `mapstructure:"first_run_days"`
	DailyDays       int    `mapstructure:"daily_days"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Check(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("http.user_agent", "jobradar/1.0 (job feed aggregator)")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.min_interval_seconds", 0.5)
	v.SetDefault("http.respect_robots", true)
	v.SetDefault("catalog.data_dir", "data")
	v.SetDefault("catalog.master_file", "sources/companies.txt")
	v.SetDefault("catalog.extra_files", []string{})
	v.SetDefault("catalog.extra_dir", "sources/company_lists")
	v.SetDefault("collect.workers", 16)
	v.SetDefault("collect.max_per_source", 0)
	v.SetDefault("collect.days_back", 0)
	v.SetDefault("collect.require_posted_at", false)
	v.SetDefault("validate.workers", 25)
	v.SetDefault("validate.timeout_seconds", 20)
	v.SetDefault("validate.requests_per_sec", 8)
	v.SetDefault("filter.max_posting_age_days", 90)
	v.SetDefault("filter.min_score", 0)
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "data/jobs.db")
	v.SetDefault("report.out_dir", "exports")
	v.SetDefault("report.page_size", 50)
	v.SetDefault("report.readme_path", "README.md")
	v.SetDefault("report.days", 7)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("pipeline.state_path", "data/pipeline_state.json")
	v.SetDefault("pipeline.first_run_days", 30)
	v.SetDefault("pipeline.daily_days", 2)
	v.SetDefault("pipeline.interval_minutes", 1440)
}

// Check enforces required values and reasonable limits.
func (c Config) Check() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.MinIntervalSeconds < 0 {
		return fmt.Errorf("http.min_interval_seconds must be >= 0")
	}
	if c.Collect.Workers <= 0 {
		return fmt.Errorf("collect.workers must be > 0")
	}
	if c.Validate.Workers <= 0 {
		return fmt.Errorf("validate.workers must be > 0")
	}
	if c.Filter.MaxPostingAgeDays <= 0 {
		return fmt.Errorf("filter.max_posting_age_days must be > 0")
	}
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must be set for the sqlite backend")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("store.backend must be sqlite or postgres, got %q", c.Store.Backend)
	}
	if c.Report.PageSize <= 0 {
		return fmt.Errorf("report.page_size must be > 0")
	}
	if c.Pipeline.FirstRunDays <= 0 || c.Pipeline.DailyDays <= 0 {
		return fmt.Errorf("pipeline first_run_days and daily_days must be > 0")
	}
	return nil
}

// HTTPTimeout converts the configured client timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// MinInterval converts the per-host pacing floor into a duration.
func (c Config) MinInterval() time.Duration {
	return time.Duration(c.HTTP.MinIntervalSeconds * float64(time.Second))
}

// ValidateTimeout converts the validator request timeout into a duration.
func (c Config) ValidateTimeout() time.Duration {
	return time.Duration(c.Validate.TimeoutSeconds) * time.Second
}
