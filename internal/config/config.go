package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"fanfirst-engagement-service/internal/scoring"
)

type Config struct {
	Server struct {
		Port     string `yaml:"port" toml:"port"`
		LogLevel string `yaml:"logLevel" toml:"logLevel"`
		// CORSOrigins lists allowed browser origins; empty allows any.
		CORSOrigins    []string `yaml:"corsOrigins" toml:"corsOrigins"`
		RequestTimeout string   `yaml:"requestTimeout" toml:"requestTimeout"`
	} `yaml:"server" toml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" toml:"addr"`
		Password string `yaml:"password" toml:"password"`
		DB       int    `yaml:"db" toml:"db"`
		TTL      string `yaml:"ttl" toml:"ttl"`
	} `yaml:"redis" toml:"redis"`
	Postgres struct {
		URL string `yaml:"url" toml:"url"`
	} `yaml:"postgres" toml:"postgres"`
	// Database selects the bun-backed store. With no driver the service keeps
	// everything in memory.
	Database struct {
		Driver string `yaml:"driver" toml:"driver"`
		DSN    string `yaml:"dsn" toml:"dsn"`
	} `yaml:"database" toml:"database"`
	Quiz struct {
		TTL string `yaml:"ttl" toml:"ttl"`
	} `yaml:"quiz" toml:"quiz"`
	Scoring struct {
		scoring.Config   `yaml:",inline" toml:",inline"`
		InstantThreshold string `yaml:"instantThreshold" toml:"instantThreshold"`
		TimeBudget       string `yaml:"timeBudget" toml:"timeBudget"`
	} `yaml:"scoring" toml:"scoring"`
	Bonus   scoring.BonusConfig `yaml:"bonus" toml:"bonus"`
	Comfort struct {
		NativeThreshold  int `yaml:"nativeThreshold" toml:"nativeThreshold"`
		CuriousThreshold int `yaml:"curiousThreshold" toml:"curiousThreshold"`
	} `yaml:"comfort" toml:"comfort"`
	AI struct {
		// BaseURL of the classification and question service; empty disables it.
		BaseURL     string  `yaml:"baseUrl" toml:"baseUrl"`
		Timeout     string  `yaml:"timeout" toml:"timeout"`
		MaxAttempts int     `yaml:"maxAttempts" toml:"maxAttempts"`
		RateLimit   float64 `yaml:"rateLimit" toml:"rateLimit"` // calls per second, 0 = unlimited
		Burst       int     `yaml:"burst" toml:"burst"`
	} `yaml:"ai" toml:"ai"`
}

// Default returns a config that runs fully in memory.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.LogLevel = "info"
	cfg.Server.RequestTimeout = "15s"
	cfg.Redis.TTL = "10m"
	cfg.Quiz.TTL = "10m"
	cfg.Scoring.Config = scoring.DefaultConfig()
	cfg.Scoring.InstantThreshold = "2s"
	cfg.Scoring.TimeBudget = "7s"
	cfg.Bonus = scoring.DefaultBonusConfig()
	cfg.Comfort.NativeThreshold = 55
	cfg.Comfort.CuriousThreshold = 25
	cfg.AI.Timeout = "3s"
	cfg.AI.MaxAttempts = 2
	cfg.AI.RateLimit = 5
	cfg.AI.Burst = 10
	return cfg
}

// Load reads YAML (or TOML, by extension) config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ScoringConfig resolves the duration strings into the engine config.
func (c Config) ScoringConfig() scoring.Config {
	sc := c.Scoring.Config
	sc.InstantThreshold = TTLDuration(c.Scoring.InstantThreshold, 2*time.Second)
	sc.TimeBudget = TTLDuration(c.Scoring.TimeBudget, 7*time.Second)
	return sc
}

func (c Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"server.requestTimeout":    c.Server.RequestTimeout,
		"redis.ttl":                c.Redis.TTL,
		"quiz.ttl":                 c.Quiz.TTL,
		"scoring.instantThreshold": c.Scoring.InstantThreshold,
		"scoring.timeBudget":       c.Scoring.TimeBudget,
		"ai.timeout":               c.AI.Timeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if err := c.ScoringConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required when a driver is set"))
	}
	if c.Comfort.CuriousThreshold <= 0 || c.Comfort.NativeThreshold <= c.Comfort.CuriousThreshold {
		errs = append(errs, errors.New("comfort thresholds must satisfy 0 < curious < native"))
	}
	if c.AI.MaxAttempts < 0 || c.AI.RateLimit < 0 || c.AI.Burst < 0 {
		errs = append(errs, errors.New("ai limits must be non-negative"))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
