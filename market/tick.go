package market

import (
	"context"
	"time"
)

// TickSource supplies the latest delayed quote for a symbol.
type TickSource interface {
	GetTick(ctx context.Context, symbol string, session Session) (Tick, error)
}

// Tick is one price update: a single scalar last price for a symbol in a
// session. An empty Session means the session currently watched.
type Tick struct {
	Symbol  string
	Session Session
	Last    float64
	Volume  float64

	// Time is the provider's timestamp for Last, zero when unknown.
	Time    time.Time
	Delayed bool
}
