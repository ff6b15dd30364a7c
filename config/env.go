package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAPERTRADE_"

// loadDotEnv reads ./.env if present. Variables already set win.
func loadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	str := map[string]*string{
		"ACCOUNT":       &c.Account.Name,
		"SYMBOL":        &c.Market.Symbol,
		"SESSION":       &c.Market.Session,
		"UI_MODE":       &c.Market.UIMode,
		"FEED_BASE_URL": &c.Feed.BaseURL,
		"STORE_TYPE":    &c.Store.Type,
		"STORE_PATH":    &c.Store.Path,
		"JOURNAL_TYPE":  &c.Journal.Type,
		"JOURNAL_DB":    &c.Journal.DBPath,
		"SERVER_ADDR":   &c.Server.Addr,
		"LOG_LEVEL":     &c.Log.Level,
		"LOG_FORMAT":    &c.Log.Format,
	}
	for name, dst := range str {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	if v, ok := get("CASH"); ok {
		cash, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sCASH: %w", EnvPrefix, err)
		}
		c.Account.Cash = cash
	}
	if v, ok := get("ONE_SHARE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sONE_SHARE: %w", EnvPrefix, err)
		}
		c.Market.OneShare = b
	}
	if v, ok := get("RESPECT_SESSION"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRESPECT_SESSION: %w", EnvPrefix, err)
		}
		c.Feed.RespectSession = b
	}
	if v, ok := get("POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPOLL_INTERVAL: %w", EnvPrefix, err)
		}
		c.Feed.PollInterval = Duration(d)
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}
