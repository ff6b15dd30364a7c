package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/trading"
)

// fakeSource returns canned data and counts calls.
type fakeSource struct {
	mu          sync.Mutex
	last        float64
	quoteErr    error
	candleErr   error
	quoteCalls  int
	candleCalls int
}

func (f *fakeSource) GetQuote(ctx context.Context, symbol string, session market.Session) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quoteErr != nil {
		return Quote{}, f.quoteErr
	}
	vol := 100.0
	return Quote{Symbol: symbol, Last: f.last, Volume: &vol, Delayed: true}, nil
}

func (f *fakeSource) GetCandles(ctx context.Context, req CandlesRequest) (Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candleCalls++
	if f.candleErr != nil {
		return Series{}, f.candleErr
	}
	return Series{Symbol: req.Symbol, Interval: req.Interval, Range: req.Range, Candles: []market.Candle{{Close: f.last}}}, nil
}

func (f *fakeSource) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteCalls, f.candleCalls
}

var errBoom = errors.New("boom")

type fakeSink struct {
	mu      sync.Mutex
	symbol  string
	session market.Session
	ticks   []market.Tick
	candles [][]market.Candle
	tickErr error
}

func (s *fakeSink) Watch() (string, market.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol, s.session
}

func (s *fakeSink) ApplyTick(ctx context.Context, tick market.Tick) ([]trading.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tickErr != nil {
		return nil, s.tickErr
	}
	s.ticks = append(s.ticks, tick)
	return nil, nil
}

func (s *fakeSink) ApplyCandles(ctx context.Context, symbol string, session market.Session, candles []market.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append(s.candles, candles)
	return nil
}

func (s *fakeSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks), len(s.candles)
}
