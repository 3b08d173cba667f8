package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App          App            `mapstructure:"app"`
	Log          Logger         `mapstructure:"logger"`
	DB           Database       `mapstructure:"database"`
	API          API            `mapstructure:"api"`
	Scheduler    Scheduler      `mapstructure:"scheduler"`
	Cache        Cache          `mapstructure:"cache"`
	Redis        Redis          `mapstructure:"redis"`
	YahooFinance YahooFinance   `mapstructure:"yahoo_finance"`
	LLM          LLM            `mapstructure:"llm"`
	Gemini       Gemini         `mapstructure:"gemini"`
	OpenAI       OpenAI         `mapstructure:"openai"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Auth         Auth           `mapstructure:"auth"`
	Analysis     Analysis       `mapstructure:"analysis"`
}

type App struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	DBName             string        `mapstructure:"name"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	TimeZone           string        `mapstructure:"time_zone"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime    string        `mapstructure:"conn_max_lifetime"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
}

type Scheduler struct {
	Enabled         bool          `mapstructure:"enabled"`
	Tick            string        `mapstructure:"tick"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
}

type API struct {
	Port             int      `mapstructure:"port"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	RateLimitPerSec  float64  `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst   int      `mapstructure:"rate_limit_burst"`
	AIQuotaPerMinute int      `mapstructure:"ai_quota_per_minute"`
}

type Cache struct {
	DefaultExpiration   time.Duration `mapstructure:"default_expiration"`
	CleanupInterval     time.Duration `mapstructure:"cleanup_interval"`
	MarketDataTTL       time.Duration `mapstructure:"market_data_ttl"`
	DailyReportTTL      time.Duration `mapstructure:"daily_report_ttl"`
	SysParamExpDuration time.Duration `mapstructure:"sys_param_exp_duration"`
}

type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	RetryCount          int           `mapstructure:"retry_count"`
}

// LLM selects which provider answers analysis prompts.
type LLM struct {
	Provider       string  `mapstructure:"provider"`
	MaxConcurrency int64   `mapstructure:"max_concurrency"`
	Temperature    float64 `mapstructure:"temperature"`
}

type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

type OpenAI struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxTokenPerMinute int           `mapstructure:"max_token_per_minute"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    int64         `mapstructure:"chat_id"`
	WebhookURL                string        `mapstructure:"webhook_url"`
	WebhookSecret             string        `mapstructure:"webhook_secret"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
	RatelimitExpireDuration   time.Duration `mapstructure:"ratelimit_expire_duration"`
}

type Auth struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
	Issuer        string        `mapstructure:"issuer"`
}

type Analysis struct {
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	MaxCompetitors      int           `mapstructure:"max_competitors"`
	FetchConcurrency    int           `mapstructure:"fetch_concurrency"`
	LogRetentionDays    int           `mapstructure:"log_retention_days"`
	DefaultCompetitors  []string      `mapstructure:"default_competitors"`
	ReportTopMoverLimit int           `mapstructure:"report_top_mover_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Market Insight AI API")
	v.SetDefault("app.version", "2.0.0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "marketdb")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.time_zone", "UTC")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", 500*time.Millisecond)

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.rate_limit_per_sec", 10)
	v.SetDefault("api.rate_limit_burst", 30)
	v.SetDefault("api.ai_quota_per_minute", 20)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.tick", "@every 1m")
	v.SetDefault("scheduler.max_concurrency", 4)
	v.SetDefault("scheduler.timeout_duration", 30*time.Minute)

	v.SetDefault("cache.default_expiration", 15*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("cache.market_data_ttl", 15*time.Minute)
	v.SetDefault("cache.daily_report_ttl", 24*time.Hour)
	v.SetDefault("cache.sys_param_exp_duration", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo_finance.timeout", 10*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 60)
	v.SetDefault("yahoo_finance.retry_count", 2)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.max_concurrency", 4)
	v.SetDefault("llm.temperature", 0.3)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", 60*time.Second)
	v.SetDefault("gemini.max_request_per_minute", 15)
	v.SetDefault("gemini.max_token_per_minute", 1000000)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4-turbo-preview")
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("openai.max_token_per_minute", 0)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.timeout_duration", 10*time.Second)
	v.SetDefault("telegram.max_global_request_per_second", 30)
	v.SetDefault("telegram.max_user_request_per_second", 1)
	v.SetDefault("telegram.ratelimit_expire_duration", 10*time.Minute)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", 24*time.Hour)
	v.SetDefault("auth.issuer", "market-insight")

	v.SetDefault("analysis.cache_ttl", time.Hour)
	v.SetDefault("analysis.max_competitors", 10)
	v.SetDefault("analysis.fetch_concurrency", 4)
	v.SetDefault("analysis.log_retention_days", 90)
	v.SetDefault("analysis.report_top_mover_limit", 5)
	v.SetDefault("analysis.default_competitors", []string{})
}

func Load() (*Config, error) {
	// .env is optional; real deployments inject variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.LLM.Provider {
	case LLMProviderGemini, LLMProviderOpenAI:
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	if c.Scheduler.MaxConcurrency <= 0 {
		c.Scheduler.MaxConcurrency = 1
	}
	return nil
}

const (
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
)
