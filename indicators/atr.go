package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/papertrade/market"
)

// ATR is a streaming Average True Range with Wilder's smoothing.
type ATR struct {
	period    int
	atr       float64
	count     int
	warmupSum float64
	prev      market.Candle
	hasPrev   bool
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

// Warmup is period+1: the first candle only seeds the previous close.
func (a *ATR) Warmup() int { return a.period + 1 }

func (a *ATR) Reset() {
	a.atr, a.count, a.warmupSum, a.hasPrev = 0, 0, 0, false
}

func (a *ATR) Update(c market.Candle) {
	if !a.hasPrev {
		a.prev, a.hasPrev = c, true
		return
	}

	tr := trueRange(c, a.prev)
	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
	} else {
		a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	}
	a.prev = c
}

func (a *ATR) Ready() bool { return a.count >= a.period }

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

func trueRange(cur, prev market.Candle) float64 {
	return math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
}
