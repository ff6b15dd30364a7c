// Package journal keeps an append-only record of fills and account
// snapshots, separate from the state snapshot, for later review.
package journal

import (
	"time"

	"github.com/rustyeddy/papertrade/trading"
)

// TradeRecord is one fill. Each order fills at most once, so the order id
// identifies the record.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Side       trading.Side
	Kind       trading.Kind
	Qty        int64
	Price      float64
	Time       time.Time
	RealizedPL float64 // realized by this fill alone
	Source     string
}

// NewTradeRecord builds the record for t filled against the position pos
// held before the fill.
func NewTradeRecord(t trading.Trade, kind trading.Kind, pos trading.Position, source string) TradeRecord {
	return TradeRecord{
		TradeID:    t.OrderID,
		Symbol:     t.Symbol,
		Side:       t.Side,
		Kind:       kind,
		Qty:        t.Qty,
		Price:      t.Price,
		Time:       t.Time,
		RealizedPL: trading.ClosingPnL(pos, t),
		Source:     source,
	}
}

type AccountSnapshot struct {
	Time        time.Time
	Cash        float64
	RealizedPnL float64
	MarketValue float64
	Equity      float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordAccount(AccountSnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error       { return nil }
func (Nop) RecordAccount(AccountSnapshot) error { return nil }
func (Nop) Close() error                        { return nil }
