package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "7203.T"},
      "timestamp": [1710464400, 1710464700, 1710465000, 1710465300],
      "indicators": {"quote": [{
        "open":   [2500, 2505, null, 2512],
        "high":   [2510, 2515, 2520, 2518],
        "low":    [2495, 2500, 2505, 2508],
        "close":  [2505, 2511.5, 2515, null],
        "volume": [12000, 8000, 3000, null]
      }]}
    }],
    "error": null
  }
}`

var serverNow = time.Date(2024, 3, 15, 1, 30, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := metrics.New()
	return NewClient(Options{
		BaseURL: srv.URL,
		Metrics: m,
		Now:     func() time.Time { return serverNow },
	}), m
}

func TestGetQuote(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotQuery map[string][]string
	var gotUA string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.Query(), r.UserAgent()
		_, _ = w.Write([]byte(chartFixture))
	})

	q, err := c.GetQuote(context.Background(), "7203", market.SessionRegular)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/7203.T", gotPath)
	assert.Equal(t, []string{"1m"}, gotQuery["interval"])
	assert.Equal(t, []string{"1d"}, gotQuery["range"])
	assert.NotContains(t, gotQuery, "includePrePost")
	assert.Equal(t, DefaultUserAgent, gotUA)

	// trailing null close is skipped
	assert.Equal(t, "7203.T", q.Symbol)
	assert.Equal(t, 2515.0, q.Last)
	require.NotNil(t, q.Volume)
	assert.Equal(t, 3000.0, *q.Volume)
	assert.Equal(t, time.Unix(1710465000, 0).UTC(), q.SourceTime)
	assert.Equal(t, serverNow, q.ServerTime)
	assert.True(t, q.Delayed)
}

func TestGetQuotePTSIncludesPrePost(t *testing.T) {
	t.Parallel()

	var prePost string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		prePost = r.URL.Query().Get("includePrePost")
		_, _ = w.Write([]byte(chartFixture))
	})

	_, err := c.GetQuote(context.Background(), "7203.T", market.SessionPTS)
	require.NoError(t, err)
	assert.Equal(t, "true", prePost)
}

func TestGetQuoteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"http error", http.StatusTooManyRequests, "slow down", ErrUpstream},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, ErrUpstream},
		{"no result", http.StatusOK, `{"chart":{"result":[]}}`, ErrNoPrice},
		{"all null", http.StatusOK, `{"chart":{"result":[{"timestamp":[1],"indicators":{"quote":[{"close":[null]}]}}]}}`, ErrNoPrice},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.GetQuote(context.Background(), "7203.T", market.SessionRegular)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == ErrUpstream {
				assert.Equal(t, 1.0, testutilCount(m, "price"))
			}
		})
	}
}

func TestGetCandles(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(chartFixture))
	})

	s, err := c.GetCandles(context.Background(), CandlesRequest{Symbol: "7203"})
	require.NoError(t, err)

	assert.Equal(t, []string{"5m"}, gotQuery["interval"])
	assert.Equal(t, []string{"1d"}, gotQuery["range"])
	assert.Equal(t, "7203.T", s.Symbol)
	assert.Equal(t, "5m", s.Interval)

	// bars 3 (null open) and 4 (null close) are dropped
	require.Len(t, s.Candles, 2)
	assert.Equal(t, market.Candle{
		Time: time.Unix(1710464400, 0).UTC(), Open: 2500, High: 2510, Low: 2495, Close: 2505, Volume: 12000,
	}, s.Candles[0])
	assert.Equal(t, 2511.5, s.Candles[1].Close)
}

func TestGetCandlesEmptyResult(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[]}}`))
	})
	s, err := c.GetCandles(context.Background(), CandlesRequest{Symbol: "^N225", Interval: "1d", Range: "1mo"})
	require.NoError(t, err)
	assert.Equal(t, "^N225", s.Symbol)
	assert.NotNil(t, s.Candles)
	assert.Empty(t, s.Candles)
}

func TestGetTick(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartFixture))
	})
	var src market.TickSource = c
	tick, err := src.GetTick(context.Background(), "7203.T", market.SessionRegular)
	require.NoError(t, err)
	assert.Equal(t, 2515.0, tick.Last)
	assert.Equal(t, 3000.0, tick.Volume)
	assert.True(t, tick.Delayed)
}

func testutilCount(m *metrics.Metrics, endpoint string) float64 {
	return promtestutil.ToFloat64(m.FeedErrors.WithLabelValues(endpoint))
}
