package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/papertrade/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func fill(id string, at time.Time, side trading.Side, pl float64) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Symbol:     "7203.T",
		Side:       side,
		Kind:       trading.KindMarket,
		Qty:        100,
		Price:      2500,
		Time:       at,
		RealizedPL: pl,
		Source:     "test",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','account')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["account"])
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	want := fill("T123", time.Date(2024, 4, 10, 1, 0, 0, 0, time.UTC), trading.Sell, 3750)
	want.Kind = trading.KindLimit
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("T123")
	require.NoError(t, err)

	assert.Equal(t, want.TradeID, got.TradeID)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, trading.Sell, got.Side)
	assert.Equal(t, trading.KindLimit, got.Kind)
	assert.Equal(t, want.Qty, got.Qty)
	assert.InDelta(t, want.Price, got.Price, 1e-9)
	assert.True(t, got.Time.Equal(want.Time))
	assert.InDelta(t, want.RealizedPL, got.RealizedPL, 1e-6)
	assert.Equal(t, want.Source, got.Source)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestRecordTradeDuplicateID(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := fill("T1", time.Now(), trading.Buy, 0)
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec))
}

func TestListTradesBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	// inserted out of order
	for _, rec := range []TradeRecord{
		fill("T3", base.Add(10*time.Hour), trading.Sell, 500),
		fill("T1", base.Add(1*time.Hour), trading.Buy, 0),
		fill("T4", base.Add(24*time.Hour), trading.Sell, 75),
		fill("T2", base.Add(5*time.Hour), trading.Buy, 0),
	} {
		require.NoError(t, j.RecordTrade(rec))
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       []string
	}{
		{"window", base.Add(3 * time.Hour), base.Add(12 * time.Hour), []string{"T2", "T3"}},
		{"whole day ordered", base, base.Add(24 * time.Hour), []string{"T1", "T2", "T3"}},
		{"end is exclusive", base.Add(time.Hour), base.Add(5 * time.Hour), []string{"T1"}},
		{"no matches", base.AddDate(0, 1, 0), base.AddDate(0, 2, 0), nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.ListTradesBetween(tt.start, tt.end)
			require.NoError(t, err)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.TradeID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListAccountBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, eq := range []float64{10_000_000, 10_010_000, 9_990_000} {
		require.NoError(t, j.RecordAccount(AccountSnapshot{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Cash:   eq,
			Equity: eq,
		}))
	}

	got, err := j.ListAccountBetween(base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 10_000_000, got[0].Equity, 1e-6)
	assert.InDelta(t, 10_010_000, got[1].Equity, 1e-6)
	assert.True(t, got[1].Time.Equal(base.Add(time.Hour)))
}
