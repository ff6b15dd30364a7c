package trading

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/market"
)

// OrderRequest is what a user asks for before lot and tick rules are applied.
type OrderRequest struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Kind       Kind    `json:"type"`
	Qty        int64   `json:"qty"`
	LimitPrice float64 `json:"limitPrice,omitempty"`
}

// NewOrder validates req and returns a WORKING order. Quantity is floored to
// whole lots (1 share in oneShare mode, otherwise 100) and limit prices are
// snapped to the TSE tick table.
func NewOrder(req OrderRequest, oneShare bool, id string, now time.Time) (Order, error) {
	symbol := market.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return Order{}, ErrInvalidSymbol
	}
	if !req.Side.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidSide, req.Side)
	}

	qty := market.EnforceLot(req.Qty, oneShare)
	if qty <= 0 {
		return Order{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, req.Qty)
	}

	var pricing Pricing
	switch req.Kind {
	case KindMarket, "":
		pricing = Market{}
	case KindLimit:
		if req.LimitPrice <= 0 {
			return Order{}, fmt.Errorf("%w: %v", ErrInvalidLimitPrice, req.LimitPrice)
		}
		limit := market.SnapToTick(req.LimitPrice)
		if limit <= 0 {
			return Order{}, fmt.Errorf("%w: %v snaps to zero", ErrInvalidLimitPrice, req.LimitPrice)
		}
		pricing = Limit{Price: limit}
	default:
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}

	return Order{
		ID:        id,
		Symbol:    symbol,
		Side:      req.Side,
		Qty:       qty,
		Pricing:   pricing,
		CreatedAt: now,
		State:     Working{},
	}, nil
}

// Cancel moves the WORKING order with the given id to CANCELED. Orders in any
// other state are left alone and false is returned. The input is not mutated.
func Cancel(orders []Order, id string, now time.Time) ([]Order, bool) {
	for i, o := range orders {
		if o.ID != id {
			continue
		}
		if !o.Working() {
			return orders, false
		}
		out := make([]Order, len(orders))
		copy(out, orders)
		o.State = Canceled{At: now}
		out[i] = o
		return out, true
	}
	return orders, false
}
