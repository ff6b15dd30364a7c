// Package sim hosts one desk: it serializes every transition of the desk
// state behind a mutex, persists the result and fans changes out to
// listeners.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/metrics"
	"github.com/rustyeddy/papertrade/pkg/id"
	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/store"
	"github.com/rustyeddy/papertrade/trading"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNotWorking    = errors.New("order is not working")
	ErrStale         = errors.New("data for a symbol or session no longer watched")
	ErrInvalidPrice  = errors.New("invalid price")
	ErrInvalidMode   = errors.New("invalid ui mode")
	ErrPersist       = errors.New("persist state")
)

type EventKind string

const (
	EventOrder    EventKind = "order"
	EventCancel   EventKind = "cancel"
	EventTick     EventKind = "tick"
	EventCandles  EventKind = "candles"
	EventSymbol   EventKind = "symbol"
	EventSession  EventKind = "session"
	EventUIMode   EventKind = "ui_mode"
	EventOneShare EventKind = "one_share"
	EventReset    EventKind = "reset"
)

// Event describes one committed transition.
type Event struct {
	Kind  EventKind       `json:"kind"`
	Order *trading.Order  `json:"order,omitempty"`
	Fills []trading.Trade `json:"fills,omitempty"`
}

// Listener is called after each committed transition, outside the engine
// lock. The state must be treated as read-only.
type Listener func(state.State, Event)

type Options struct {
	Store   store.Store
	Journal journal.Journal
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Clock   trading.Clock
	IDs     *id.Generator

	// Source tags journal records, e.g. "live" or "replay".
	Source string
}

type Engine struct {
	mu        sync.Mutex
	st        state.State
	store     store.Store
	journal   journal.Journal
	log       *zap.Logger
	metrics   *metrics.Metrics
	clock     trading.Clock
	ids       *id.Generator
	source    string
	listeners []Listener
}

func NewEngine(initial state.State, opts Options) *Engine {
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = trading.SystemClock
	}
	if opts.IDs == nil {
		opts.IDs = id.NewGenerator(opts.Clock)
	}
	if opts.Source == "" {
		opts.Source = "live"
	}
	e := &Engine{
		st:      initial,
		store:   opts.Store,
		journal: opts.Journal,
		log:     opts.Log.Named("engine"),
		metrics: opts.Metrics,
		clock:   opts.Clock,
		ids:     opts.IDs,
		source:  opts.Source,
	}
	e.publishAccount(initial)
	return e
}

// Subscribe registers fn for every later transition.
func (e *Engine) Subscribe(fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// State returns the current state. Transitions never mutate a State in
// place, so the value stays consistent after the engine moves on.
func (e *Engine) State() state.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st
}

// Watch reports the symbol and session the feed should poll.
func (e *Engine) Watch() (string, market.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Symbol, e.st.Session
}

// transition computes the next state from the current one under the lock.
// Returning an error leaves the state untouched.
type transition func(cur state.State) (state.State, Event, error)

// update commits fn, persists the result and notifies listeners. A persist
// failure does not roll back the transition; it is returned wrapped in
// ErrPersist.
func (e *Engine) update(ctx context.Context, fn transition) (state.State, Event, error) {
	e.mu.Lock()
	prev := e.st
	next, ev, err := fn(prev)
	if err != nil {
		e.mu.Unlock()
		return prev, ev, err
	}
	e.st = next
	e.recordLocked(prev, next, ev)
	perr := e.persistLocked(ctx, next)
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l(next, ev)
	}
	return next, ev, perr
}

func (e *Engine) persistLocked(ctx context.Context, s state.State) error {
	if e.store == nil {
		return nil
	}
	if err := store.Save(ctx, e.store, s, e.clock()); err != nil {
		e.log.Error("persist failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// recordLocked journals fills and publishes metrics for a committed event.
// Journal failures are logged; the ledger is authoritative.
func (e *Engine) recordLocked(prev, next state.State, ev Event) {
	switch ev.Kind {
	case EventOrder:
		e.metrics.OrderPlaced(string(ev.Order.Side), string(ev.Order.Kind()))
	case EventCancel:
		e.metrics.OrderCanceled()
	case EventTick:
		if last, ok := next.LastPrice(); ok {
			e.metrics.Tick(next.Symbol, last)
		}
	}

	if len(ev.Fills) > 0 {
		kinds := make(map[string]trading.Kind, len(ev.Fills))
		for _, o := range next.Orders {
			kinds[o.ID] = o.Kind()
		}

		acct := prev.Account
		for _, f := range ev.Fills {
			rec := journal.NewTradeRecord(f, kinds[f.OrderID], acct.Position(f.Symbol), e.source)
			if err := e.journal.RecordTrade(rec); err != nil {
				e.log.Warn("journal trade failed", zap.String("order", f.OrderID), zap.Error(err))
			}
			acct = trading.Apply(acct, f)
			e.metrics.Fill(f.Symbol, string(f.Side))
			e.log.Info("order filled",
				zap.String("order", f.OrderID),
				zap.String("symbol", f.Symbol),
				zap.String("side", string(f.Side)),
				zap.Int64("qty", f.Qty),
				zap.Float64("price", f.Price),
			)
		}

		v := next.Valuation()
		snap := journal.AccountSnapshot{
			Time:        ev.Fills[len(ev.Fills)-1].Time,
			Cash:        v.Cash,
			RealizedPnL: v.RealizedPnL,
			MarketValue: v.MarketValue,
			Equity:      v.Equity,
		}
		if err := e.journal.RecordAccount(snap); err != nil {
			e.log.Warn("journal account failed", zap.Error(err))
		}
	}

	if ev.Kind != EventCandles {
		e.publishAccount(next)
	}
}

func (e *Engine) publishAccount(s state.State) {
	working := 0
	for _, o := range s.Orders {
		if o.Working() {
			working++
		}
	}
	v := s.Valuation()
	e.metrics.Account(v.Cash, v.RealizedPnL, v.Equity, working)
}

// PlaceOrder validates req and adds it as a WORKING order. It does not
// match; the next tick (or Match) does.
func (e *Engine) PlaceOrder(ctx context.Context, req trading.OrderRequest) (trading.Order, error) {
	var placed trading.Order
	_, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		if req.Symbol == "" {
			req.Symbol = cur.Symbol
		}
		next, o, err := cur.PlaceOrder(req, e.ids.New(), e.clock())
		if err != nil {
			e.metrics.OrderRejected()
			return cur, Event{}, err
		}
		placed = o
		e.log.Info("order placed",
			zap.String("order", o.ID),
			zap.String("symbol", o.Symbol),
			zap.String("side", string(o.Side)),
			zap.String("type", string(o.Kind())),
			zap.Int64("qty", o.Qty),
		)
		return next, Event{Kind: EventOrder, Order: &o}, nil
	})
	if err != nil && !errors.Is(err, ErrPersist) {
		return trading.Order{}, err
	}
	return placed, err
}

// Cancel cancels a WORKING order.
func (e *Engine) Cancel(ctx context.Context, orderID string) (trading.Order, error) {
	var canceled trading.Order
	_, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		idx := slices.IndexFunc(cur.Orders, func(o trading.Order) bool { return o.ID == orderID })
		if idx < 0 {
			return cur, Event{}, fmt.Errorf("%w: %q", ErrOrderNotFound, orderID)
		}
		next, ok := cur.Cancel(orderID, e.clock())
		if !ok {
			return cur, Event{}, fmt.Errorf("%w: %q is %s", ErrNotWorking, orderID, cur.Orders[idx].Status())
		}
		canceled = next.Orders[idx]
		e.log.Info("order canceled", zap.String("order", orderID))
		return next, Event{Kind: EventCancel, Order: &canceled}, nil
	})
	if err != nil && !errors.Is(err, ErrPersist) {
		return trading.Order{}, err
	}
	return canceled, err
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// ApplyTick records tick as the last price of the watched symbol and runs
// the matcher. Ticks for another symbol or session are rejected with
// ErrStale.
func (e *Engine) ApplyTick(ctx context.Context, tick market.Tick) ([]trading.Trade, error) {
	if !validPrice(tick.Last) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, tick.Last)
	}
	_, ev, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		if market.NormalizeSymbol(tick.Symbol) != cur.Symbol {
			return cur, Event{}, fmt.Errorf("%w: tick for %s, watching %s", ErrStale, tick.Symbol, cur.Symbol)
		}
		if tick.Session != "" && tick.Session != cur.Session {
			return cur, Event{}, fmt.Errorf("%w: %s tick, watching %s", ErrStale, tick.Session, cur.Session)
		}
		next, fills := cur.SetLast(tick.Last).Match(e.clock)
		return next, Event{Kind: EventTick, Fills: fills}, nil
	})
	if err != nil && !errors.Is(err, ErrPersist) {
		return nil, err
	}
	return ev.Fills, err
}

// Match runs the matcher against the current last price without a new tick.
func (e *Engine) Match(ctx context.Context) ([]trading.Trade, error) {
	_, ev, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		next, fills := cur.Match(e.clock)
		return next, Event{Kind: EventTick, Fills: fills}, nil
	})
	return ev.Fills, err
}

// ApplyCandles replaces the candle history if it belongs to the watched
// symbol and session.
func (e *Engine) ApplyCandles(ctx context.Context, symbol string, session market.Session, candles []market.Candle) error {
	_, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		if market.NormalizeSymbol(symbol) != cur.Symbol || session != cur.Session {
			return cur, Event{}, fmt.Errorf("%w: candles for %s/%s", ErrStale, symbol, session)
		}
		valid := slices.DeleteFunc(slices.Clone(candles), func(c market.Candle) bool { return !c.Valid() })
		return cur.SetCandles(valid), Event{Kind: EventCandles}, nil
	})
	return err
}

// SetSymbol switches the watched symbol. Open orders and positions in other
// symbols are kept.
func (e *Engine) SetSymbol(ctx context.Context, symbol string) (state.State, error) {
	next, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		if market.NormalizeSymbol(symbol) == "" {
			return cur, Event{}, trading.ErrInvalidSymbol
		}
		return cur.SetSymbol(symbol), Event{Kind: EventSymbol}, nil
	})
	return next, err
}

func (e *Engine) SetSession(ctx context.Context, session market.Session) (state.State, error) {
	next, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		return cur.SetSession(session), Event{Kind: EventSession}, nil
	})
	return next, err
}

func (e *Engine) SetUIMode(ctx context.Context, mode state.UIMode) (state.State, error) {
	next, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		if !mode.Valid() {
			return cur, Event{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
		}
		return cur.SetUIMode(mode), Event{Kind: EventUIMode}, nil
	})
	return next, err
}

func (e *Engine) ToggleOneShare(ctx context.Context) (state.State, error) {
	next, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		return cur.ToggleOneShare(), Event{Kind: EventOneShare}, nil
	})
	return next, err
}

// Reset replaces the whole desk with fresh.
func (e *Engine) Reset(ctx context.Context, fresh state.State) error {
	_, _, err := e.update(ctx, func(cur state.State) (state.State, Event, error) {
		if err := fresh.Validate(); err != nil {
			return cur, Event{}, err
		}
		e.log.Info("desk reset", zap.Float64("cash", fresh.Account.Cash))
		return fresh, Event{Kind: EventReset}, nil
	})
	return err
}

// Close flushes the journal and releases the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if err := e.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
