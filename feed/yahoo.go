// Package feed fetches delayed quotes and candles from the Yahoo Finance
// chart API, caches them briefly and polls them into the desk.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/metrics"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultUserAgent = "Mozilla/5.0 (compatible; JP-Demo-Trade/1.0)"
)

var (
	ErrNoPrice  = errors.New("no price in chart response")
	ErrUpstream = errors.New("upstream error")
)

// Quote is the latest delayed price for a symbol.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Last       float64   `json:"last"`
	Volume     *float64  `json:"volume"`
	SourceTime time.Time `json:"tsSource"`
	ServerTime time.Time `json:"tsServer"`
	Delayed    bool      `json:"delayed"`
}

// Series is a candle history for one symbol.
type Series struct {
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	Range    string          `json:"range"`
	Candles  []market.Candle `json:"candles"`
}

// CandlesRequest selects a candle series. Empty Interval and Range default
// to 5m and 1d.
type CandlesRequest struct {
	Symbol   string
	Interval string
	Range    string
	Session  market.Session
}

func (r CandlesRequest) withDefaults() CandlesRequest {
	r.Symbol = market.NormalizeSymbol(r.Symbol)
	if r.Interval == "" {
		r.Interval = "5m"
	}
	if r.Range == "" {
		r.Range = "1d"
	}
	if r.Session == "" {
		r.Session = market.SessionRegular
	}
	return r
}

// Source is anything that can serve quotes and candles.
type Source interface {
	GetQuote(ctx context.Context, symbol string, session market.Session) (Quote, error)
	GetCandles(ctx context.Context, req CandlesRequest) (Series, error)
}

type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Client talks to the chart API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		metrics:    opts.Metrics,
		now:        opts.Now,
	}
}

// chartResponse is the subset of /v8/finance/chart we read. Quote arrays
// hold nulls for bars without trades.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) chart(ctx context.Context, endpoint, symbol string, params url.Values) (*chartResponse, error) {
	start := time.Now()
	resp, err := c.doChart(ctx, symbol, params)
	c.metrics.ObserveFeed(endpoint, time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedError(endpoint)
	}
	return resp, err
}

func (c *Client) doChart(ctx context.Context, symbol string, params url.Values) (*chartResponse, error) {
	apiURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: chart fetch failed (status %d): %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var out chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if e := out.Chart.Error; e != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstream, e.Code, e.Description)
	}
	return &out, nil
}

func sessionParams(session market.Session, p url.Values) url.Values {
	if session == market.SessionPTS {
		p.Set("includePrePost", "true")
	}
	return p
}

// GetQuote returns the most recent close in today's 1m series.
func (c *Client) GetQuote(ctx context.Context, symbol string, session market.Session) (Quote, error) {
	symbol = market.NormalizeSymbol(symbol)
	params := sessionParams(session, url.Values{"interval": {"1m"}, "range": {"1d"}})

	resp, err := c.chart(ctx, "price", symbol, params)
	if err != nil {
		return Quote{}, err
	}
	return parseQuote(resp, symbol, c.now())
}

func parseQuote(resp *chartResponse, symbol string, now time.Time) (Quote, error) {
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return Quote{}, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}
	r := resp.Chart.Result[0]
	q := r.Indicators.Quote[0]

	if r.Meta.Symbol != "" {
		symbol = r.Meta.Symbol
	}
	out := Quote{Symbol: symbol, ServerTime: now.UTC(), Delayed: true}

	// The trailing bar is often still null while it forms.
	for i := len(q.Close) - 1; i >= 0; i-- {
		if q.Close[i] == nil || *q.Close[i] <= 0 {
			continue
		}
		out.Last = *q.Close[i]
		if i < len(q.Volume) {
			out.Volume = q.Volume[i]
		}
		if i < len(r.Timestamp) && r.Timestamp[i] > 0 {
			out.SourceTime = time.Unix(r.Timestamp[i], 0).UTC()
		}
		return out, nil
	}
	return Quote{}, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
}

// GetCandles returns the OHLC series, dropping bars with any missing price.
func (c *Client) GetCandles(ctx context.Context, req CandlesRequest) (Series, error) {
	req = req.withDefaults()
	params := sessionParams(req.Session, url.Values{"interval": {req.Interval}, "range": {req.Range}})

	resp, err := c.chart(ctx, "ohlc", req.Symbol, params)
	if err != nil {
		return Series{}, err
	}
	return parseSeries(resp, req), nil
}

func parseSeries(resp *chartResponse, req CandlesRequest) Series {
	out := Series{Symbol: req.Symbol, Interval: req.Interval, Range: req.Range, Candles: []market.Candle{}}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return out
	}
	r := resp.Chart.Result[0]
	q := r.Indicators.Quote[0]

	at := func(xs []*float64, i int) *float64 {
		if i < len(xs) {
			return xs[i]
		}
		return nil
	}
	for i, ts := range r.Timestamp {
		o, h, l, cl := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}
		var vol float64
		if v := at(q.Volume, i); v != nil {
			vol = *v
		}
		out.Candles = append(out.Candles, market.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *cl,
			Volume: vol,
		})
	}
	return out
}

// GetTick adapts GetQuote to market.TickSource.
func (c *Client) GetTick(ctx context.Context, symbol string, session market.Session) (market.Tick, error) {
	return tickFrom(ctx, c, symbol, session)
}

func tickFrom(ctx context.Context, src Source, symbol string, session market.Session) (market.Tick, error) {
	q, err := src.GetQuote(ctx, symbol, session)
	if err != nil {
		return market.Tick{}, err
	}
	t := market.Tick{Symbol: q.Symbol, Session: session, Last: q.Last, Time: q.SourceTime, Delayed: q.Delayed}
	if q.Volume != nil {
		t.Volume = *q.Volume
	}
	return t, nil
}
