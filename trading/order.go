package trading

import (
	"encoding/json"
	"fmt"
	"time"
)

// Pricing is the order-kind variant: Market or Limit.
type Pricing interface {
	Kind() Kind
	isPricing()
}

// Market orders fill at whatever the next tick prints.
type Market struct{}

// Limit orders fill only at Price or better.
type Limit struct {
	Price float64
}

func (Market) Kind() Kind { return KindMarket }
func (Limit) Kind() Kind  { return KindLimit }
func (Market) isPricing() {}
func (Limit) isPricing()  {}

// Lifecycle is the order-state variant: Working, Filled or Canceled.
// Only Working orders ever change.
type Lifecycle interface {
	Status() Status
	isLifecycle()
}

type Working struct{}

// Filled carries the execution time and price of the single fill.
type Filled struct {
	At    time.Time
	Price float64
}

type Canceled struct {
	At time.Time
}

func (Working) Status() Status  { return StatusWorking }
func (Filled) Status() Status   { return StatusFilled }
func (Canceled) Status() Status { return StatusCanceled }
func (Working) isLifecycle()    {}
func (Filled) isLifecycle()     {}
func (Canceled) isLifecycle()   {}

// Order is a request to trade Qty shares of Symbol. A nil Pricing is a
// market order and a nil State is working.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Qty       int64
	Pricing   Pricing
	CreatedAt time.Time
	State     Lifecycle
}

func (o Order) Kind() Kind {
	if o.Pricing == nil {
		return KindMarket
	}
	return o.Pricing.Kind()
}

func (o Order) Status() Status {
	if o.State == nil {
		return StatusWorking
	}
	return o.State.Status()
}

// LimitPrice returns the limit for LIMIT orders.
func (o Order) LimitPrice() (float64, bool) {
	l, ok := o.Pricing.(Limit)
	return l.Price, ok
}

// Fill returns the execution details once the order is FILLED.
func (o Order) Fill() (Filled, bool) {
	f, ok := o.State.(Filled)
	return f, ok
}

func (o Order) Working() bool { return o.Status() == StatusWorking }

// orderJSON is the flat wire form. Optional fields are present only for the
// kind or status that owns them.
type orderJSON struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Side         Side       `json:"side"`
	Type         Kind       `json:"type"`
	Qty          int64      `json:"qty"`
	LimitPrice   *float64   `json:"limitPrice,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	FilledAt     *time.Time `json:"filledAt,omitempty"`
	AvgFillPrice *float64   `json:"avgFillPrice,omitempty"`
	CanceledAt   *time.Time `json:"canceledAt,omitempty"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	w := orderJSON{
		ID:        o.ID,
		Symbol:    o.Symbol,
		Side:      o.Side,
		Type:      o.Kind(),
		Qty:       o.Qty,
		Status:    o.Status(),
		CreatedAt: o.CreatedAt,
	}
	if p, ok := o.LimitPrice(); ok {
		w.LimitPrice = &p
	}
	switch s := o.State.(type) {
	case Filled:
		w.FilledAt, w.AvgFillPrice = &s.At, &s.Price
	case Canceled:
		if !s.At.IsZero() {
			w.CanceledAt = &s.At
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON rejects orders whose optional fields disagree with their
// type or status, so a decoded Order always satisfies the variant rules.
func (o *Order) UnmarshalJSON(data []byte) error {
	var w orderJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	}
	if w.Symbol == "" {
		return fmt.Errorf("%w: order %s: %v", ErrInvalidOrder, w.ID, ErrInvalidSymbol)
	}
	if !w.Side.Valid() {
		return fmt.Errorf("%w: order %s: %v", ErrInvalidOrder, w.ID, ErrInvalidSide)
	}
	if w.Qty <= 0 {
		return fmt.Errorf("%w: order %s: %v", ErrInvalidOrder, w.ID, ErrInvalidQuantity)
	}

	out := Order{ID: w.ID, Symbol: w.Symbol, Side: w.Side, Qty: w.Qty, CreatedAt: w.CreatedAt}

	switch w.Type {
	case KindMarket:
		if w.LimitPrice != nil {
			return fmt.Errorf("%w: order %s: market order with limit price", ErrInvalidOrder, w.ID)
		}
		out.Pricing = Market{}
	case KindLimit:
		if w.LimitPrice == nil || *w.LimitPrice <= 0 {
			return fmt.Errorf("%w: order %s: %v", ErrInvalidOrder, w.ID, ErrInvalidLimitPrice)
		}
		out.Pricing = Limit{Price: *w.LimitPrice}
	default:
		return fmt.Errorf("%w: order %s: %v", ErrInvalidOrder, w.ID, ErrInvalidKind)
	}

	filled := w.FilledAt != nil || w.AvgFillPrice != nil
	switch w.Status {
	case StatusWorking:
		if filled || w.CanceledAt != nil {
			return fmt.Errorf("%w: order %s: working order with terminal fields", ErrInvalidOrder, w.ID)
		}
		out.State = Working{}
	case StatusFilled:
		if w.FilledAt == nil || w.AvgFillPrice == nil {
			return fmt.Errorf("%w: order %s: filled order missing fill fields", ErrInvalidOrder, w.ID)
		}
		out.State = Filled{At: *w.FilledAt, Price: *w.AvgFillPrice}
	case StatusCanceled:
		if filled {
			return fmt.Errorf("%w: order %s: canceled order with fill fields", ErrInvalidOrder, w.ID)
		}
		c := Canceled{}
		if w.CanceledAt != nil {
			c.At = *w.CanceledAt
		}
		out.State = c
	default:
		return fmt.Errorf("%w: order %s: unknown status %q", ErrInvalidOrder, w.ID, w.Status)
	}

	*o = out
	return nil
}
