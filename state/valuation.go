package state

import (
	"sort"

	"github.com/rustyeddy/papertrade/trading"
)

// PositionValue is one open position marked to market. Only the watched
// symbol has a live price; other symbols are carried at their average price
// and Marked is false.
type PositionValue struct {
	trading.Position
	Mark        float64 `json:"mark"`
	Marked      bool    `json:"marked"`
	MarketValue float64 `json:"marketValue"`
	Unrealized  float64 `json:"unrealized"`
}

type Valuation struct {
	Cash        float64         `json:"cash"`
	RealizedPnL float64         `json:"realizedPnL"`
	Unrealized  float64         `json:"unrealized"`
	MarketValue float64         `json:"marketValue"`
	Equity      float64         `json:"equity"`
	Positions   []PositionValue `json:"positions"`
}

// Valuation marks the ledger to the last price. Equity is cash plus the
// market value of every open position.
func (s State) Valuation() Valuation {
	v := Valuation{
		Cash:        s.Account.Cash,
		RealizedPnL: s.Account.RealizedPnL,
		Positions:   make([]PositionValue, 0, len(s.Account.Positions)),
	}

	last, haveLast := s.LastPrice()
	for sym, p := range s.Account.Positions {
		pv := PositionValue{Position: p, Mark: p.AvgPrice}
		if sym == s.Symbol && haveLast {
			pv.Mark, pv.Marked = last, true
		}
		pv.MarketValue = pv.Mark * float64(p.Qty)
		pv.Unrealized = p.Unrealized(pv.Mark)

		v.Unrealized += pv.Unrealized
		v.MarketValue += pv.MarketValue
		v.Positions = append(v.Positions, pv)
	}
	sort.Slice(v.Positions, func(i, j int) bool {
		return v.Positions[i].Symbol < v.Positions[j].Symbol
	})

	v.Equity = v.Cash + v.MarketValue
	return v
}
