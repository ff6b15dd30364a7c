// Package app assembles a desk from configuration: snapshot store, trade
// journal and engine.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/metrics"
	"github.com/rustyeddy/papertrade/sim"
	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/store"
	"github.com/rustyeddy/papertrade/trading"
	"go.uber.org/zap"
)

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// OpenStore opens the snapshot store named by cfg. name keys the snapshot
// in stores that hold more than one.
func OpenStore(cfg config.StoreConfig, name string) (store.Store, error) {
	switch cfg.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.Path)
	case "pebble":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, err
		}
		return store.NewPebbleStore(cfg.Path, name)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

// OpenJournal opens the trade journal named by cfg.
func OpenJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "none", "":
		return journal.Nop{}, nil
	case "csv":
		for _, p := range []string{cfg.TradesFile, cfg.AccountFile} {
			if err := ensureDir(p); err != nil {
				return nil, err
			}
		}
		return journal.NewCSV(cfg.TradesFile, cfg.AccountFile)
	case "sqlite":
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, err
		}
		return journal.NewSQLite(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}

// OpenSQLite opens the SQLite journal for queries, failing when the config
// does not use one.
func OpenSQLite(cfg config.JournalConfig) (*journal.SQLite, error) {
	if cfg.Type != "sqlite" {
		return nil, fmt.Errorf("journal queries need a sqlite journal, config has %q", cfg.Type)
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return journal.NewSQLite(cfg.DBPath)
}

type DeskOptions struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Clock   trading.Clock

	// Source tags journal records; see sim.Options.
	Source string

	// Ephemeral keeps the desk in memory and journals nothing, for dry
	// runs such as a replay that must not touch the live desk.
	Ephemeral bool
}

// OpenDesk restores the persisted desk (or starts fresh from cfg) and
// returns an engine wired to the configured store and journal. Closing the
// engine closes both.
func OpenDesk(ctx context.Context, cfg *config.Config, opts DeskOptions) (*sim.Engine, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	storeCfg, journalCfg := cfg.Store, cfg.Journal
	if opts.Ephemeral {
		storeCfg = config.StoreConfig{Type: "memory"}
		journalCfg = config.JournalConfig{Type: "none"}
	}

	st, err := OpenStore(storeCfg, cfg.Account.Name)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	initial, err := store.LoadOrInit(ctx, st, Fresh(cfg), opts.Log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load desk: %w", err)
	}

	j, err := OpenJournal(journalCfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	opts.Log.Info("desk opened",
		zap.String("account", cfg.Account.Name),
		zap.String("symbol", initial.Symbol),
		zap.String("store", storeCfg.Type),
		zap.String("journal", journalCfg.Type),
		zap.Int("orders", len(initial.Orders)),
		zap.Int("trades", len(initial.Trades)),
	)

	return sim.NewEngine(initial, sim.Options{
		Store:   st,
		Journal: j,
		Log:     opts.Log,
		Metrics: opts.Metrics,
		Clock:   opts.Clock,
		Source:  opts.Source,
	}), nil
}

// Fresh returns the initial desk described by cfg.
func Fresh(cfg *config.Config) state.State {
	return state.New(cfg.StateOptions())
}
