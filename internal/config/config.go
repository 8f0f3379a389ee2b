// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // quota cache TTL
}

type AIConfig struct {
	Provider        string `yaml:"provider"` // openai | gemini | rekognition | noop
	OpenAIKey       string `yaml:"openai_key"`
	VisionModel     string `yaml:"vision_model"`
	RecipeModel     string `yaml:"recipe_model"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	AWSRegion       string `yaml:"aws_region"`
	MinConfidence   float64 `yaml:"min_confidence"` // drop detections below this
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent provider calls
}

// RetryPolicyConfig is one call-site category's backoff shape.
type RetryPolicyConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Exponential  bool          `yaml:"exponential"`
}

type RetryConfig struct {
	Network    RetryPolicyConfig `yaml:"network"`
	Processing RetryPolicyConfig `yaml:"processing"`
	Critical   RetryPolicyConfig `yaml:"critical"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
	MaxHalfOpen      uint32        `yaml:"max_half_open"`
}

type SchedulerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	ResetBatch int           `yaml:"reset_batch"`
}

type RateLimitConfig struct {
	ScansPerMinute int `yaml:"scans_per_minute"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Retry     RetryConfig     `yaml:"retry"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TokenTTL <= 0 {
		cfg.Server.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.VisionModel == "" {
		cfg.AI.VisionModel = "gpt-4o"
	}
	if cfg.AI.RecipeModel == "" {
		cfg.AI.RecipeModel = "gpt-4o-mini"
	}
	if cfg.AI.MinConfidence <= 0 {
		cfg.AI.MinConfidence = 0.55
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	cfg.Retry.Network = normalizeRetry(cfg.Retry.Network, RetryPolicyConfig{
		MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2, Exponential: true,
	})
	cfg.Retry.Processing = normalizeRetry(cfg.Retry.Processing, RetryPolicyConfig{
		MaxAttempts: 2, InitialDelay: 2 * time.Second, MaxDelay: 8 * time.Second, Multiplier: 2, Exponential: true,
	})
	cfg.Retry.Critical = normalizeRetry(cfg.Retry.Critical, RetryPolicyConfig{
		MaxAttempts: 5, InitialDelay: 500 * time.Millisecond, MaxDelay: 15 * time.Second, Multiplier: 2, Exponential: true,
	})
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}
	if cfg.Breaker.MaxHalfOpen == 0 {
		cfg.Breaker.MaxHalfOpen = 1
	}
	if cfg.Scheduler.Interval <= 0 {
		cfg.Scheduler.Interval = time.Minute
	}
	if cfg.Scheduler.ResetBatch <= 0 {
		cfg.Scheduler.ResetBatch = 200
	}
	if cfg.RateLimit.ScansPerMinute <= 0 {
		cfg.RateLimit.ScansPerMinute = 10
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" && !dev {
		return nil, errors.New("server.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

func normalizeRetry(p, def RetryPolicyConfig) RetryPolicyConfig {
	if p.MaxAttempts <= 0 {
		return def
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}
