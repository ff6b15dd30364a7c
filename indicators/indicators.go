// Package indicators computes chart overlays from candle history.
package indicators

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/papertrade/market"
)

// Indicator computes a single streaming value from candles.
// It is deterministic: the same candles always give the same values.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed candle.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	Value() float64
}

// Point is one indicator value aligned to a candle time.
type Point struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"value"`
}

// Line is an indicator evaluated over a candle series.
type Line struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Evaluate resets ind, feeds it every candle and collects a point for each
// candle once the indicator is ready.
func Evaluate(ind Indicator, candles []market.Candle) Line {
	ind.Reset()
	line := Line{Name: ind.Name(), Points: make([]Point, 0, max(0, len(candles)-ind.Warmup()+1))}
	for _, c := range candles {
		ind.Update(c)
		if ind.Ready() {
			line.Points = append(line.Points, Point{Time: c.Time, Value: ind.Value()})
		}
	}
	return line
}

// MaxPeriod bounds the period Parse accepts.
const MaxPeriod = 500

// Parse builds an indicator from a spec such as "sma:20", "ema:9" or
// "atr:14". The name is case-insensitive.
func Parse(spec string) (Indicator, error) {
	name, arg, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok {
		return nil, fmt.Errorf("indicator %q: want name:period", spec)
	}
	period, err := strconv.Atoi(arg)
	if err != nil || period <= 0 || period > MaxPeriod {
		return nil, fmt.Errorf("indicator %q: period must be 1..%d", spec, MaxPeriod)
	}

	switch strings.ToLower(name) {
	case "sma", "ma":
		return NewMA(period), nil
	case "ema":
		return NewEMA(period), nil
	case "atr":
		return NewATR(period), nil
	default:
		return nil, fmt.Errorf("indicator %q: unknown name %q", spec, name)
	}
}
