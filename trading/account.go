package trading

import "maps"

// Position is the open exposure in one symbol. Qty is signed: positive is
// long, negative is short. AvgPrice is only meaningful while Qty != 0.
type Position struct {
	Symbol   string  `json:"symbol"`
	Qty      int64   `json:"qty"`
	AvgPrice float64 `json:"avgPrice"`
}

func (p Position) Long() bool  { return p.Qty > 0 }
func (p Position) Short() bool { return p.Qty < 0 }

// Unrealized marks the position to last.
func (p Position) Unrealized(last float64) float64 {
	return (last - p.AvgPrice) * float64(p.Qty)
}

// Account is the cash ledger. Flat symbols have no entry in Positions.
type Account struct {
	Cash        float64             `json:"cash"`
	RealizedPnL float64             `json:"realizedPnL"`
	Positions   map[string]Position `json:"positions"`
}

func NewAccount(cash float64) Account {
	return Account{Cash: cash, Positions: map[string]Position{}}
}

// Position returns the open position for symbol, or a flat one.
func (a Account) Position(symbol string) Position {
	if p, ok := a.Positions[symbol]; ok {
		return p
	}
	return Position{Symbol: symbol}
}

// Clone returns a copy that shares nothing with a.
func (a Account) Clone() Account {
	out := a
	out.Positions = maps.Clone(a.Positions)
	if out.Positions == nil {
		out.Positions = map[string]Position{}
	}
	return out
}
