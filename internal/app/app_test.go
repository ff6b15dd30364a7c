package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/store"
	"github.com/rustyeddy/papertrade/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Type: "memory"}, false},
		{"file", config.StoreConfig{Type: "file", Path: filepath.Join(dir, "a", "desk.json")}, false},
		{"pebble", config.StoreConfig{Type: "pebble", Path: filepath.Join(dir, "kv")}, false},
		{"unknown", config.StoreConfig{Type: "redis"}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st, err := OpenStore(tt.cfg, "default")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer st.Close()

			_, err = st.Get(context.Background())
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestOpenJournal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	j, err := OpenJournal(config.JournalConfig{Type: "none"})
	require.NoError(t, err)
	assert.IsType(t, journal.Nop{}, j)

	j, err = OpenJournal(config.JournalConfig{
		Type:        "csv",
		TradesFile:  filepath.Join(dir, "csv", "trades.csv"),
		AccountFile: filepath.Join(dir, "csv", "account.csv"),
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = OpenJournal(config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "db", "j.db")})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = OpenJournal(config.JournalConfig{Type: "parquet"})
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite(config.JournalConfig{Type: "csv"})
	assert.Error(t, err)

	_, err = OpenSQLite(config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(t.TempDir(), "missing.db")})
	assert.Error(t, err)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Market.Symbol = "6758.T"
	cfg.Account.Cash = 5_000_000
	cfg.Store = config.StoreConfig{Type: "file", Path: filepath.Join(dir, "desk.json")}
	cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "journal.db")}
	return cfg
}

func TestOpenDeskRestoresAcrossRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testConfig(t)

	e, err := OpenDesk(ctx, cfg, DeskOptions{})
	require.NoError(t, err)
	assert.Equal(t, "6758.T", e.State().Symbol)
	assert.Equal(t, 5_000_000.0, e.State().Account.Cash)

	_, err = e.PlaceOrder(ctx, trading.OrderRequest{Side: trading.Buy, Qty: 100})
	require.NoError(t, err)
	fills, err := e.ApplyTick(ctx, market.Tick{Symbol: "6758.T", Last: 13000})
	require.NoError(t, err)
	require.Len(t, fills, 1)
	require.NoError(t, e.Close())

	e, err = OpenDesk(ctx, cfg, DeskOptions{})
	require.NoError(t, err)
	defer e.Close()
	st := e.State()
	assert.Equal(t, 5_000_000.0-1_300_000, st.Account.Cash)
	assert.Equal(t, int64(100), st.Account.Positions["6758.T"].Qty)

	j, err := OpenSQLite(cfg.Journal)
	require.NoError(t, err)
	defer j.Close()
	rec, err := j.GetTrade(fills[0].OrderID)
	require.NoError(t, err)
	assert.Equal(t, 13000.0, rec.Price)
}

func TestOpenDeskEphemeral(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testConfig(t)

	e, err := OpenDesk(ctx, cfg, DeskOptions{Ephemeral: true})
	require.NoError(t, err)
	_, err = e.ToggleOneShare(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	assert.NoFileExists(t, cfg.Store.Path)
	assert.NoFileExists(t, cfg.Journal.DBPath)
	assert.Equal(t, cfg.Market.Symbol, Fresh(cfg).Symbol)
}
