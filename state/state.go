// Package state holds the complete desk state (selected symbol, last price,
// candle history, ledger, orders, trades and mode flags) as a plain value.
// Every transition returns a new State; callers own serialization and
// locking.
package state

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/trading"
)

type UIMode string

const (
	UIModeKids    UIMode = "kids"
	UIModeClassic UIMode = "classic"
)

func (m UIMode) Valid() bool { return m == UIModeKids || m == UIModeClassic }

const (
	DefaultSymbol = "7203.T"
	DefaultCash   = 10_000_000
)

var ErrInvalidState = errors.New("invalid state")

type State struct {
	Symbol   string          `json:"symbol"`
	Last     *float64        `json:"last"`
	Candles  []market.Candle `json:"candles"`
	Account  trading.Account `json:"account"`
	Orders   []trading.Order `json:"orders"`
	Trades   []trading.Trade `json:"trades"`
	OneShare bool            `json:"oneShare"`
	Session  market.Session  `json:"session"`
	UIMode   UIMode          `json:"uiMode"`
}

// Options seeds a fresh State.
type Options struct {
	Symbol   string
	Cash     float64
	OneShare bool
	Session  market.Session
	UIMode   UIMode
}

// New returns the initial state. Zero options fall back to Toyota, ¥10M cash,
// the regular session and the kids UI.
func New(opts Options) State {
	if opts.Symbol == "" {
		opts.Symbol = DefaultSymbol
	}
	if opts.Cash == 0 {
		opts.Cash = DefaultCash
	}
	if opts.Session == "" {
		opts.Session = market.SessionRegular
	}
	if !opts.UIMode.Valid() {
		opts.UIMode = UIModeKids
	}
	return State{
		Symbol:   market.NormalizeSymbol(opts.Symbol),
		Candles:  []market.Candle{},
		Account:  trading.NewAccount(opts.Cash),
		Orders:   []trading.Order{},
		Trades:   []trading.Trade{},
		OneShare: opts.OneShare,
		Session:  opts.Session,
		UIMode:   opts.UIMode,
	}
}

// LastPrice returns the last traded price, if one has been seen.
func (s State) LastPrice() (float64, bool) {
	if s.Last == nil {
		return 0, false
	}
	return *s.Last, true
}

// SetSymbol switches the watched symbol and forgets the previous price data.
func (s State) SetSymbol(symbol string) State {
	s.Symbol = market.NormalizeSymbol(symbol)
	s.Last = nil
	s.Candles = []market.Candle{}
	return s
}

func (s State) SetLast(price float64) State {
	s.Last = &price
	return s
}

func (s State) ClearLast() State {
	s.Last = nil
	return s
}

func (s State) SetCandles(candles []market.Candle) State {
	s.Candles = slices.Clone(candles)
	if s.Candles == nil {
		s.Candles = []market.Candle{}
	}
	return s
}

// SetSession changes the feed session; cached prices belong to the old one.
func (s State) SetSession(session market.Session) State {
	s.Session = session
	s.Last = nil
	s.Candles = []market.Candle{}
	return s
}

func (s State) SetUIMode(mode UIMode) State {
	s.UIMode = mode
	return s
}

func (s State) ToggleOneShare() State {
	s.OneShare = !s.OneShare
	return s
}

// PlaceOrder appends a new WORKING order built from req under the current
// lot mode.
func (s State) PlaceOrder(req trading.OrderRequest, id string, now time.Time) (State, trading.Order, error) {
	o, err := trading.NewOrder(req, s.OneShare, id, now)
	if err != nil {
		return s, trading.Order{}, err
	}
	s.Orders = append(slices.Clip(s.Orders), o)
	return s, o, nil
}

// Cancel cancels a WORKING order. It reports false if id is unknown or the
// order already left WORKING.
func (s State) Cancel(id string, now time.Time) (State, bool) {
	orders, ok := trading.Cancel(s.Orders, id, now)
	if !ok {
		return s, false
	}
	s.Orders = orders
	return s, true
}

func (s State) Book() trading.Book {
	return trading.Book{Account: s.Account, Orders: s.Orders, Trades: s.Trades}
}

func (s State) withBook(b trading.Book) State {
	s.Account, s.Orders, s.Trades = b.Account, b.Orders, b.Trades
	return s
}

// Match runs the matcher against the last price. Only orders in the watched
// symbol are eligible; orders in other symbols keep their place and status.
// Without a price it does nothing.
func (s State) Match(clock trading.Clock) (State, []trading.Trade) {
	last, ok := s.LastPrice()
	if !ok {
		return s, nil
	}

	watched := make([]trading.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		if o.Symbol == s.Symbol {
			watched = append(watched, o)
		}
	}
	b, fills := trading.Step(trading.Book{Account: s.Account, Orders: watched, Trades: s.Trades}, last, clock)
	if len(fills) == 0 {
		return s, nil
	}

	orders := make([]trading.Order, 0, len(s.Orders))
	next := 0
	for _, o := range s.Orders {
		if o.Symbol == s.Symbol {
			o = b.Orders[next]
			next++
		}
		orders = append(orders, o)
	}
	b.Orders = orders
	return s.withBook(b), fills
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Validate checks the invariants a restored snapshot must satisfy before it
// may replace live state.
func (s State) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidState)
	}
	if s.Session != market.SessionRegular && s.Session != market.SessionPTS {
		return fmt.Errorf("%w: unknown session %q", ErrInvalidState, s.Session)
	}
	if !s.UIMode.Valid() {
		return fmt.Errorf("%w: unknown ui mode %q", ErrInvalidState, s.UIMode)
	}
	if s.Last != nil && (!finite(*s.Last) || *s.Last <= 0) {
		return fmt.Errorf("%w: last price %v", ErrInvalidState, *s.Last)
	}
	for i, c := range s.Candles {
		if !c.Valid() {
			return fmt.Errorf("%w: candle %d", ErrInvalidState, i)
		}
	}

	if !finite(s.Account.Cash) || !finite(s.Account.RealizedPnL) {
		return fmt.Errorf("%w: non-finite cash or realized pnl", ErrInvalidState)
	}
	for sym, p := range s.Account.Positions {
		if p.Symbol != sym {
			return fmt.Errorf("%w: position keyed %q holds %q", ErrInvalidState, sym, p.Symbol)
		}
		if p.Qty == 0 {
			return fmt.Errorf("%w: flat position stored for %q", ErrInvalidState, sym)
		}
		if !finite(p.AvgPrice) || p.AvgPrice < 0 {
			return fmt.Errorf("%w: position %q avg price %v", ErrInvalidState, sym, p.AvgPrice)
		}
	}

	ids := make(map[string]struct{}, len(s.Orders))
	for _, o := range s.Orders {
		if _, dup := ids[o.ID]; dup {
			return fmt.Errorf("%w: duplicate order id %q", ErrInvalidState, o.ID)
		}
		ids[o.ID] = struct{}{}
	}
	for i, t := range s.Trades {
		if t.Qty <= 0 || !t.Side.Valid() || !finite(t.Price) || t.Symbol == "" {
			return fmt.Errorf("%w: trade %d", ErrInvalidState, i)
		}
	}
	return nil
}
