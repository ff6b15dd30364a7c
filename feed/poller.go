package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/sim"
	"github.com/rustyeddy/papertrade/trading"
	"go.uber.org/zap"
)

// Sink receives polled market data. sim.Engine is the production sink.
type Sink interface {
	// Watch reports the symbol and session to poll.
	Watch() (string, market.Session)
	ApplyTick(ctx context.Context, tick market.Tick) ([]trading.Trade, error)
	ApplyCandles(ctx context.Context, symbol string, session market.Session, candles []market.Candle) error
}

type PollerOptions struct {
	Interval       time.Duration
	CandleInterval string
	CandleRange    string

	// RespectSession skips price ticks outside TSE trading hours. Candles
	// are refreshed regardless.
	RespectSession bool

	Now func() time.Time
	Log *zap.Logger
}

// Poller pulls the watched symbol's quote and candles on a fixed interval.
// A failed fetch skips that round's update and never touches the ledger.
type Poller struct {
	src  Source
	sink Sink
	opts PollerOptions
	log  *zap.Logger
	kick chan struct{}
}

func NewPoller(src Source, sink Sink, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Poller{
		src:  src,
		sink: sink,
		opts: opts,
		log:  opts.Log.Named("poller"),
		kick: make(chan struct{}, 1),
	}
}

// Kick requests an immediate poll, e.g. after the symbol changed.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run polls once immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.log.Info("poller started", zap.Duration("interval", p.opts.Interval), zap.Bool("respect_session", p.opts.RespectSession))
	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		case <-p.kick:
			p.Poll(ctx)
			ticker.Reset(p.opts.Interval)
		}
	}
}

// Poll runs a single round. It reports whether a price tick was applied.
func (p *Poller) Poll(ctx context.Context) bool {
	symbol, session := p.sink.Watch()
	applied := false

	if !p.opts.RespectSession || market.InSession(p.opts.Now()) {
		applied = p.pollPrice(ctx, symbol, session)
	}
	p.pollCandles(ctx, symbol, session)
	return applied
}

func (p *Poller) pollPrice(ctx context.Context, symbol string, session market.Session) bool {
	q, err := p.src.GetQuote(ctx, symbol, session)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warn("price fetch failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return false
	}

	tick := market.Tick{Symbol: symbol, Session: session, Last: q.Last, Time: q.SourceTime, Delayed: q.Delayed}
	if q.Volume != nil {
		tick.Volume = *q.Volume
	}
	fills, err := p.sink.ApplyTick(ctx, tick)
	switch {
	case errors.Is(err, sim.ErrPersist):
		p.log.Warn("tick applied but state not persisted", zap.String("symbol", symbol), zap.Error(err))
	case err != nil:
		p.log.Warn("tick not applied", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	if len(fills) > 0 {
		p.log.Info("orders filled", zap.String("symbol", symbol), zap.Float64("last", q.Last), zap.Int("fills", len(fills)))
	}
	return true
}

func (p *Poller) pollCandles(ctx context.Context, symbol string, session market.Session) {
	s, err := p.src.GetCandles(ctx, CandlesRequest{
		Symbol:   symbol,
		Interval: p.opts.CandleInterval,
		Range:    p.opts.CandleRange,
		Session:  session,
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warn("candle fetch failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return
	}
	if err := p.sink.ApplyCandles(ctx, symbol, session, s.Candles); err != nil {
		p.log.Warn("candles not applied", zap.String("symbol", symbol), zap.Error(err))
	}
}
