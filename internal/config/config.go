package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bluenorth/prospect-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Serp       SerpConfig       `yaml:"serp" mapstructure:"serp"`
	Duck       DuckConfig       `yaml:"duck" mapstructure:"duck"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Resolve    ResolveConfig    `yaml:"resolve" mapstructure:"resolve"`
	Crawl      CrawlConfig      `yaml:"crawl" mapstructure:"crawl"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// Rates merges configured pricing over the built-in defaults, so a partial
// pricing section only overrides what it names.
func (c *Config) Rates() cost.Rates {
	rates := cost.DefaultRates()
	if len(c.Pricing.Anthropic) > 0 {
		rates.Anthropic = c.Pricing.Anthropic
	}
	if c.Pricing.Perplexity.PerQuery > 0 {
		rates.Perplexity = c.Pricing.Perplexity
	}
	if c.Pricing.Search.PerSearch > 0 {
		rates.Search = c.Pricing.Search
	}
	return rates
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SerpConfig holds the primary search API settings.
type SerpConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Engine  string `yaml:"engine" mapstructure:"engine"`
}

// DuckConfig holds the fallback HTML search settings.
type DuckConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for narrative output.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PerplexityConfig holds Perplexity API settings for research briefs.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds Notion API credentials and database IDs.
type NotionConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	LeadDB    string `yaml:"lead_db" mapstructure:"lead_db"`
	CompanyDB string `yaml:"company_db" mapstructure:"company_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// GeocodeConfig configures office-address geocoding.
type GeocodeConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Email   string `yaml:"email" mapstructure:"email"`
}

// ResolveConfig configures the website resolution tiers.
type ResolveConfig struct {
	SearchTimeoutSecs int `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
	SearchMaxResults  int `yaml:"search_max_results" mapstructure:"search_max_results"`
	ProbeTimeoutSecs  int `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
}

// CrawlConfig configures the page crawl.
type CrawlConfig struct {
	MaxPages        int     `yaml:"max_pages" mapstructure:"max_pages"`
	PageTimeoutSecs int     `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	MaxConcurrent   int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	HostRateLimit   float64 `yaml:"host_rate_limit" mapstructure:"host_rate_limit"`
	CacheTTLHours   int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	DeadlineSecs int  `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	Narrate      bool `yaml:"narrate" mapstructure:"narrate"`
	Brief        bool `yaml:"brief" mapstructure:"brief"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
	DLQMaxRetries          int `yaml:"dlq_max_retries" mapstructure:"dlq_max_retries"`
}

// ImportConfig configures knowledge dataset imports.
type ImportConfig struct {
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures background health checks and webhook alerts.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	DLQDepthThreshold    int     `yaml:"dlq_depth_threshold" mapstructure:"dlq_depth_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prospect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("serp.base_url", "https://serpapi.com")
	v.SetDefault("serp.engine", "google")
	v.SetDefault("duck.base_url", "https://html.duckduckgo.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("geocode.enabled", false)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("resolve.search_timeout_secs", 15)
	v.SetDefault("resolve.search_max_results", 10)
	v.SetDefault("resolve.probe_timeout_secs", 8)
	v.SetDefault("crawl.max_pages", 10)
	v.SetDefault("crawl.page_timeout_secs", 10)
	v.SetDefault("crawl.max_concurrent", 3)
	v.SetDefault("crawl.host_rate_limit", 2.0)
	v.SetDefault("crawl.cache_ttl_hours", 24)
	v.SetDefault("pipeline.deadline_secs", 120)
	v.SetDefault("pipeline.narrate", false)
	v.SetDefault("pipeline.brief", false)
	v.SetDefault("batch.max_concurrent_companies", 5)
	v.SetDefault("batch.dlq_max_retries", 3)
	v.SetDefault("import.temp_dir", "/tmp/prospect-import")
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("pricing.search.per_search", 0.015)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.cost_threshold_usd", 25.0)
	v.SetDefault("monitoring.dlq_depth_threshold", 50)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
