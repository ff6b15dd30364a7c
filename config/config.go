// Package config loads the desk configuration from YAML or JSON, applies
// PAPERTRADE_* environment overrides and watches the file for changes.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/papertrade/internal/logger"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/state"
	"gopkg.in/yaml.v3"
)

// Config represents the complete desk configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Market  MarketConfig  `json:"market" yaml:"market"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     logger.Config `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// AccountConfig seeds a fresh desk. It has no effect once a snapshot exists.
type AccountConfig struct {
	Name string  `json:"name" yaml:"name"`
	Cash float64 `json:"cash" yaml:"cash"`
}

type MarketConfig struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	OneShare bool   `json:"one_share" yaml:"one_share"`
	Session  string `json:"session" yaml:"session"`
	UIMode   string `json:"ui_mode" yaml:"ui_mode"`
}

// FeedConfig controls the market data client and poller.
type FeedConfig struct {
	BaseURL        string   `json:"base_url" yaml:"base_url"`
	UserAgent      string   `json:"user_agent" yaml:"user_agent"`
	Timeout        Duration `json:"timeout" yaml:"timeout"`
	PollInterval   Duration `json:"poll_interval" yaml:"poll_interval"`
	CandleInterval string   `json:"candle_interval" yaml:"candle_interval"`
	CandleRange    string   `json:"candle_range" yaml:"candle_range"`
	PriceTTL       Duration `json:"price_ttl" yaml:"price_ttl"`
	OHLCTTL        Duration `json:"ohlc_ttl" yaml:"ohlc_ttl"`
	RespectSession bool     `json:"respect_session" yaml:"respect_session"`
}

type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "file", "pebble" or "memory"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	AccountFile string `json:"account_file,omitempty" yaml:"account_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// Duration is a time.Duration written as "10s" in both YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Name: "default",
			Cash: state.DefaultCash,
		},
		Market: MarketConfig{
			Symbol:  state.DefaultSymbol,
			Session: string(market.SessionRegular),
			UIMode:  string(state.UIModeKids),
		},
		Feed: FeedConfig{
			BaseURL:        "https://query1.finance.yahoo.com",
			UserAgent:      "Mozilla/5.0 (compatible; JP-Demo-Trade/1.0)",
			Timeout:        Duration(10 * time.Second),
			PollInterval:   Duration(10 * time.Second),
			CandleInterval: "5m",
			CandleRange:    "1d",
			PriceTTL:       Duration(10 * time.Second),
			OHLCTTL:        Duration(30 * time.Second),
			RespectSession: true,
		},
		Store: StoreConfig{
			Type: "file",
			Path: "./data/desk.json",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./data/journal.db",
		},
		Server: ServerConfig{
			Addr:           ":8787",
			AllowedOrigins: []string{"*"},
		},
		Log: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadFromFile loads configuration from a file. Fields the file leaves out
// keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load reads path (or the defaults when path is empty), then applies any
// .env file and PAPERTRADE_* variables on top.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// StateOptions maps the account and market sections to the seed of a fresh
// desk.
func (c *Config) StateOptions() state.Options {
	return state.Options{
		Symbol:   c.Market.Symbol,
		Cash:     c.Account.Cash,
		OneShare: c.Market.OneShare,
		Session:  market.Session(c.Market.Session),
		UIMode:   state.UIMode(c.Market.UIMode),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	if s := market.Session(c.Market.Session); s != market.SessionRegular && s != market.SessionPTS {
		return fmt.Errorf("market.session must be 'regular' or 'pts'")
	}
	if !state.UIMode(c.Market.UIMode).Valid() {
		return fmt.Errorf("market.ui_mode must be 'kids' or 'classic'")
	}

	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed.base_url is required")
	}
	if c.Feed.PollInterval <= 0 {
		return fmt.Errorf("feed.poll_interval must be positive")
	}
	if c.Feed.PriceTTL < 0 || c.Feed.OHLCTTL < 0 {
		return fmt.Errorf("feed cache ttls must not be negative")
	}
	if c.Feed.CandleInterval == "" || c.Feed.CandleRange == "" {
		return fmt.Errorf("feed.candle_interval and feed.candle_range are required")
	}

	switch c.Store.Type {
	case "memory":
	case "file", "pebble":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for %s store", c.Store.Type)
		}
	default:
		return fmt.Errorf("store.type must be 'file', 'pebble' or 'memory'")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.AccountFile == "" {
			return fmt.Errorf("journal trades_file and account_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}
	return nil
}
