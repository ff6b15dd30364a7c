// Package trading is the order-matching and position-accounting core of the
// paper trading desk. Everything here is a pure function over explicit state:
// nothing blocks, nothing is shared, and inputs are never mutated.
package trading

import (
	"fmt"
	"strings"
	"time"
)

// Clock supplies fill and cancel timestamps.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Sign is +1 for buys and -1 for sells.
func (s Side) Sign() int64 {
	if s == Sell {
		return -1
	}
	return 1
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

func ParseSide(s string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
	return side, nil
}

// Kind is the order type.
type Kind string

const (
	KindMarket Kind = "MARKET"
	KindLimit  Kind = "LIMIT"
)

func (k Kind) Valid() bool { return k == KindMarket || k == KindLimit }

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

type Status string

const (
	StatusWorking  Status = "WORKING"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
)

func (s Status) Valid() bool {
	return s == StatusWorking || s == StatusFilled || s == StatusCanceled
}

// Trade is the immutable record of one order transitioning to FILLED.
type Trade struct {
	OrderID string    `json:"orderId"`
	Symbol  string    `json:"symbol"`
	Side    Side      `json:"side"`
	Qty     int64     `json:"qty"`
	Price   float64   `json:"price"`
	Time    time.Time `json:"ts"`
}

// Notional is price times quantity.
func (t Trade) Notional() float64 {
	return t.Price * float64(t.Qty)
}
