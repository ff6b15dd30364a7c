package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10_000_000.0, cfg.Account.Cash)
	assert.Equal(t, "7203.T", cfg.Market.Symbol)
	assert.Equal(t, 10*time.Second, cfg.Feed.PollInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Feed.OHLCTTL.Std())

	opts := cfg.StateOptions()
	assert.Equal(t, market.SessionRegular, opts.Session)
	assert.Equal(t, "7203.T", opts.Symbol)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero cash", func(c *Config) { c.Account.Cash = 0 }, "account.cash must be positive"},
		{"no symbol", func(c *Config) { c.Market.Symbol = "" }, "market.symbol is required"},
		{"bad session", func(c *Config) { c.Market.Session = "night" }, "market.session"},
		{"bad ui mode", func(c *Config) { c.Market.UIMode = "pro" }, "market.ui_mode"},
		{"zero poll", func(c *Config) { c.Feed.PollInterval = 0 }, "feed.poll_interval"},
		{"bad store", func(c *Config) { c.Store.Type = "s3" }, "store.type"},
		{"pebble without path", func(c *Config) { c.Store = StoreConfig{Type: "pebble"} }, "store.path required"},
		{"memory store", func(c *Config) { c.Store = StoreConfig{Type: "memory"} }, ""},
		{"csv without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }, "trades_file and account_file"},
		{"sqlite without db", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }, "db_path required"},
		{"no journal", func(c *Config) { c.Journal = JournalConfig{Type: "none"} }, ""},
		{"bad metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "papertrade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account:
  cash: 3000000
market:
  symbol: 6758.T
  one_share: true
feed:
  poll_interval: 5s
journal:
  type: none
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3_000_000.0, cfg.Account.Cash)
	assert.Equal(t, "6758.T", cfg.Market.Symbol)
	assert.True(t, cfg.Market.OneShare)
	assert.Equal(t, 5*time.Second, cfg.Feed.PollInterval.Std())
	assert.Equal(t, "none", cfg.Journal.Type)
	// untouched sections keep defaults
	assert.Equal(t, "regular", cfg.Market.Session)
	assert.Equal(t, ":8787", cfg.Server.Addr)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"papertrade.yaml", "papertrade.json"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			want := Default()
			want.Market.UIMode = "classic"
			want.Feed.PriceTTL = Duration(3 * time.Second)

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, want.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("account: [\n"), 0o644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("account:\n  cash: -1\n"), 0o644))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid config")
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"PAPERTRADE_SYMBOL":          "9984.T",
		"PAPERTRADE_CASH":            "500000",
		"PAPERTRADE_ONE_SHARE":       "true",
		"PAPERTRADE_POLL_INTERVAL":   "30s",
		"PAPERTRADE_ALLOWED_ORIGINS": "http://a,http://b",
		"PAPERTRADE_LOG_LEVEL":       " ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "9984.T", cfg.Market.Symbol)
	assert.Equal(t, 500_000.0, cfg.Account.Cash)
	assert.True(t, cfg.Market.OneShare)
	assert.Equal(t, 30*time.Second, cfg.Feed.PollInterval.Std())
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level, "blank values are ignored")

	env["PAPERTRADE_CASH"] = "lots"
	assert.ErrorContains(t, Default().ApplyEnv(lookup), "PAPERTRADE_CASH")
}

func TestWatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "papertrade.yaml")
	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, nil, func(c *Config) { changes <- c }) }()

	// let the watcher register before writing
	time.Sleep(100 * time.Millisecond)

	cfg.Market.Symbol = "8306.T"
	require.NoError(t, cfg.SaveToFile(path))

	select {
	case got := <-changes:
		assert.Equal(t, "8306.T", got.Market.Symbol)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
