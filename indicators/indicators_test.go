package indicators

import (
	"testing"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closes(vals ...float64) []market.Candle {
	t0 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(vals))
	for i, v := range vals {
		out[i] = market.Candle{Time: t0.Add(time.Duration(i) * 5 * time.Minute), Open: v, High: v, Low: v, Close: v}
	}
	return out
}

func TestSimpleMA(t *testing.T) {
	t.Parallel()
	line := Evaluate(NewMA(3), closes(1, 2, 3, 4, 5))

	assert.Equal(t, "SMA(3)", line.Name)
	require.Len(t, line.Points, 3)
	assert.InDelta(t, 2, line.Points[0].Value, 1e-9)
	assert.InDelta(t, 3, line.Points[1].Value, 1e-9)
	assert.InDelta(t, 4, line.Points[2].Value, 1e-9)
	assert.Equal(t, closes(1, 2, 3, 4, 5)[2].Time, line.Points[0].Time)
}

func TestExponentialMA(t *testing.T) {
	t.Parallel()
	ema := NewEMA(3)
	for _, c := range closes(2, 4, 6) {
		assert.False(t, ema.Ready())
		ema.Update(c)
	}
	require.True(t, ema.Ready())
	assert.InDelta(t, 4, ema.Value(), 1e-9)

	// multiplier 2/(3+1)
	ema.Update(closes(8)[0])
	assert.InDelta(t, 6, ema.Value(), 1e-9)

	ema.Reset()
	assert.False(t, ema.Ready())
	assert.Zero(t, ema.Value())
}

func TestATR(t *testing.T) {
	t.Parallel()
	candles := []market.Candle{
		{Open: 10, High: 11, Low: 9, Close: 10},
		{Open: 10, High: 12, Low: 10, Close: 11}, // TR 2
		{Open: 11, High: 11, Low: 8, Close: 9},   // TR 3
		{Open: 9, High: 14, Low: 9, Close: 13},   // TR 5
	}
	atr := NewATR(2)
	assert.Equal(t, 3, atr.Warmup())

	line := Evaluate(atr, candles)
	require.Len(t, line.Points, 2)
	assert.InDelta(t, 2.5, line.Points[0].Value, 1e-9)
	assert.InDelta(t, (2.5*1+5)/2, line.Points[1].Value, 1e-9)
}

func TestEvaluateShortSeries(t *testing.T) {
	t.Parallel()
	line := Evaluate(NewEMA(10), closes(1, 2, 3))
	assert.NotNil(t, line.Points)
	assert.Empty(t, line.Points)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		study   string
		want    string
		wantErr bool
	}{
		{study: "sma:20", want: "SMA(20)"},
		{study: "MA:5", want: "SMA(5)"},
		{study: "ema:9", want: "EMA(9)"},
		{study: " atr:14 ", want: "ATR(14)"},
		{study: "sma", wantErr: true},
		{study: "sma:0", wantErr: true},
		{study: "sma:x", wantErr: true},
		{study: "sma:501", wantErr: true},
		{study: "rsi:14", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.study, func(t *testing.T) {
			t.Parallel()
			ind, err := Parse(tt.study)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ind.Name())
		})
	}
}
