package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rustyeddy/papertrade/market"
)

const cacheSize = 256

// CachedClient serves repeated requests from a short-lived cache so many
// browser tabs polling the same symbol cost one upstream call per TTL.
// Failures are never cached.
type CachedClient struct {
	src    Source
	quotes *expirable.LRU[string, Quote]
	series *expirable.LRU[string, Series]
}

func NewCachedClient(src Source, quoteTTL, seriesTTL time.Duration) *CachedClient {
	return &CachedClient{
		src:    src,
		quotes: expirable.NewLRU[string, Quote](cacheSize, nil, quoteTTL),
		series: expirable.NewLRU[string, Series](cacheSize, nil, seriesTTL),
	}
}

func (c *CachedClient) GetQuote(ctx context.Context, symbol string, session market.Session) (Quote, error) {
	symbol = market.NormalizeSymbol(symbol)
	key := fmt.Sprintf("price:%s:%s", symbol, session)
	if q, ok := c.quotes.Get(key); ok {
		return q, nil
	}
	q, err := c.src.GetQuote(ctx, symbol, session)
	if err != nil {
		return Quote{}, err
	}
	c.quotes.Add(key, q)
	return q, nil
}

func (c *CachedClient) GetCandles(ctx context.Context, req CandlesRequest) (Series, error) {
	req = req.withDefaults()
	key := fmt.Sprintf("ohlc:%s:%s:%s:%s", req.Symbol, req.Interval, req.Range, req.Session)
	if s, ok := c.series.Get(key); ok {
		return s, nil
	}
	s, err := c.src.GetCandles(ctx, req)
	if err != nil {
		return Series{}, err
	}
	c.series.Add(key, s)
	return s, nil
}

func (c *CachedClient) GetTick(ctx context.Context, symbol string, session market.Session) (market.Tick, error) {
	return tickFrom(ctx, c, symbol, session)
}

// Purge drops every cached entry.
func (c *CachedClient) Purge() {
	c.quotes.Purge()
	c.series.Purge()
}
