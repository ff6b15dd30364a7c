package quest

import (
	"testing"
	"time"

	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardFreshState(t *testing.T) {
	t.Parallel()

	board := Board(state.New(state.Options{}))
	require.Len(t, board, 5)
	for _, q := range board {
		assert.False(t, q.Done, q.ID)
	}
	assert.Equal(t, "0 / 1", board[0].Progress)
}

func TestBoardProgress(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	s := state.New(state.Options{})
	s, _, err := s.PlaceOrder(trading.OrderRequest{Symbol: "7203.T", Side: trading.Buy, Kind: trading.KindLimit, Qty: 600, LimitPrice: 1000}, "a", now)
	require.NoError(t, err)
	s, _, err = s.PlaceOrder(trading.OrderRequest{Symbol: "7203.T", Side: trading.Sell, Kind: trading.KindLimit, Qty: 600, LimitPrice: 1000}, "b", now)
	require.NoError(t, err)
	s, _ = s.SetLast(1000).Match(func() time.Time { return now })

	board := Board(s)
	assert.True(t, board[0].Done)
	assert.True(t, board[1].Done)
	assert.True(t, board[2].Done)
	assert.Equal(t, "1000 / 1000", board[2].Progress)
	assert.False(t, board[3].Done)
	assert.False(t, board[4].Done)
	assert.Equal(t, "2 / 3", board[4].Progress)
}

func TestScore(t *testing.T) {
	t.Parallel()

	s := state.New(state.Options{})
	lvl := Score(s)
	assert.Equal(t, Level{Score: 0, Level: 1, Progress: 0, NextIn: 20000, Stars: 1}, lvl)

	s.Account.RealizedPnL = 45_000
	s.Account.Positions = map[string]trading.Position{
		"7203.T": {Symbol: "7203.T", Qty: 100, AvgPrice: 1000},
	}
	s = s.SetLast(900) // open loss is ignored
	lvl = Score(s)
	assert.Equal(t, int64(45_000), lvl.Score)
	assert.Equal(t, int64(3), lvl.Level)
	assert.Equal(t, int64(25), lvl.Progress)
	assert.Equal(t, int64(15_000), lvl.NextIn)
	assert.Equal(t, int64(5), lvl.Stars)

	s.Account.RealizedPnL = -1000
	assert.Equal(t, int64(0), Score(s).Score)
}
