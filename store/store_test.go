package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)

func busyState(t *testing.T) state.State {
	t.Helper()

	s := state.New(state.Options{})
	s = s.SetCandles([]market.Candle{
		{Time: t0, Open: 2500, High: 2510, Low: 2495, Close: 2505, Volume: 12000},
	})

	var err error
	s, _, err = s.PlaceOrder(trading.OrderRequest{Side: trading.Buy, Kind: trading.KindMarket, Qty: 200}, "01A", t0)
	require.NoError(t, err)
	s, _, err = s.PlaceOrder(trading.OrderRequest{Side: trading.Sell, Kind: trading.KindLimit, Qty: 100, LimitPrice: 2600}, "01B", t0)
	require.NoError(t, err)
	s, _, err = s.PlaceOrder(trading.OrderRequest{Side: trading.Buy, Kind: trading.KindLimit, Qty: 100, LimitPrice: 2000}, "01C", t0)
	require.NoError(t, err)
	s, ok := s.Cancel("01C", t0.Add(time.Second))
	require.True(t, ok)

	s = s.SetLast(2500)
	s, fills := s.Match(func() time.Time { return t0.Add(time.Minute) })
	require.Len(t, fills, 1)
	return s.SetUIMode(state.UIModeClassic).ToggleOneShare()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	want := busyState(t)
	blob, err := Encode(want, t0)
	require.NoError(t, err)

	got, err := Decode(blob, state.New(state.Options{}))
	require.NoError(t, err)

	assert.Equal(t, want.Symbol, got.Symbol)
	require.NotNil(t, got.Last)
	assert.Equal(t, 2500.0, *got.Last)
	assert.Equal(t, want.Account, got.Account)
	assert.Equal(t, want.Trades[0].Price, got.Trades[0].Price)
	assert.True(t, want.Trades[0].Time.Equal(got.Trades[0].Time))
	assert.True(t, got.OneShare)
	assert.Equal(t, state.UIModeClassic, got.UIMode)
	assert.Equal(t, market.SessionRegular, got.Session)

	require.Len(t, got.Orders, 3)
	assert.Equal(t, trading.StatusFilled, got.Orders[0].Status())
	assert.Equal(t, trading.StatusWorking, got.Orders[1].Status())
	assert.Equal(t, trading.StatusCanceled, got.Orders[2].Status())
	limit, ok := got.Orders[1].LimitPrice()
	require.True(t, ok)
	assert.Equal(t, 2600.0, limit)
	require.Len(t, got.Candles, 1)
	assert.Equal(t, 2505.0, got.Candles[0].Close)
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	base := state.New(state.Options{})
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{{{`},
		{"wrong version", `{"version":9,"state":{}}`},
		{"null state", `{"version":1,"state":null}`},
		{"bad session", `{"version":1,"state":{"session":"night"}}`},
		{"negative last", `{"version":1,"state":{"last":-5}}`},
		{"bad order", `{"version":1,"state":{"orders":[{"id":"x","symbol":"7203.T","side":"BUY","type":"LIMIT","qty":100,"status":"WORKING"}]}}`},
		{"flat position", `{"version":1,"state":{"account":{"cash":1,"realizedPnL":0,"positions":{"7203.T":{"symbol":"7203.T","qty":0,"avgPrice":1}}}}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.blob), base)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecodeKeepsDefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	base := state.New(state.Options{Cash: 5_000_000})
	got, err := Decode([]byte(`{"version":1,"state":{"symbol":"6758.T"}}`), base)
	require.NoError(t, err)

	assert.Equal(t, "6758.T", got.Symbol)
	assert.Equal(t, 5_000_000.0, got.Account.Cash)
	assert.Equal(t, state.UIModeKids, got.UIMode)
	assert.NotNil(t, got.Account.Positions)
}

func TestLoadOrInit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fresh := state.New(state.Options{})

	t.Run("empty store", func(t *testing.T) {
		got, err := LoadOrInit(ctx, NewMemoryStore(), fresh, nil)
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
	})

	t.Run("saved state", func(t *testing.T) {
		st := NewMemoryStore()
		want := busyState(t)
		require.NoError(t, Save(ctx, st, want, t0))

		got, err := LoadOrInit(ctx, st, fresh, nil)
		require.NoError(t, err)
		assert.Equal(t, want.Account, got.Account)
		assert.Len(t, got.Orders, 3)
	})

	t.Run("corrupt snapshot falls back", func(t *testing.T) {
		st := NewMemoryStore()
		require.NoError(t, st.Put(ctx, []byte(`{"version":1,"state":{"uiMode":"pro"}}`)))

		core, logs := observer.New(zap.WarnLevel)
		got, err := LoadOrInit(ctx, st, fresh, zap.New(core))
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
		assert.Equal(t, 1, logs.FilterMessage("rejecting snapshot, starting fresh").Len())
	})
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "nested", "desk.json")
	st, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = st.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(ctx, []byte("one")))
	require.NoError(t, st.Put(ctx, []byte("two")))

	got, err := st.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
	assert.NoError(t, st.Close())
}

func TestPebbleStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	st, err := NewPebbleStore(dir, "alice")
	require.NoError(t, err)

	_, err = st.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	want := busyState(t)
	require.NoError(t, Save(ctx, st, want, t0))
	require.NoError(t, st.Close())

	st, err = NewPebbleStore(dir, "alice")
	require.NoError(t, err)
	defer st.Close()

	got, err := LoadOrInit(ctx, st, state.New(state.Options{}), nil)
	require.NoError(t, err)
	assert.Equal(t, want.Account, got.Account)

	require.NoError(t, st.Delete(ctx))
	_, err = st.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
