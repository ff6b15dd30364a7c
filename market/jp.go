package market

import "math"

const (
	// LotSize is the standard TSE trading unit.
	LotSize int64 = 100

	// OddLotSize applies in one-share mode.
	OddLotSize int64 = 1
)

// TickSize returns the TSE price increment for a price level.
func TickSize(price float64) float64 {
	abs := math.Abs(price)
	switch {
	case abs >= 30000:
		return 10
	case abs >= 5000:
		return 5
	case abs >= 1000:
		return 1
	default:
		return 0.1
	}
}

// SnapToTick rounds price to the nearest valid tick for its level.
func SnapToTick(price float64) float64 {
	tick := TickSize(price)
	snapped := math.Round(price/tick) * tick
	if tick >= 1 {
		return math.Round(snapped)
	}
	// 0.1 ticks: strip float noise like 999.9000000000001
	return math.Round(snapped*10) / 10
}

// EnforceLot floors qty to a whole number of lots. Results are never negative.
func EnforceLot(qty int64, oneShare bool) int64 {
	lot := LotSize
	if oneShare {
		lot = OddLotSize
	}
	if qty <= 0 {
		return 0
	}
	return (qty / lot) * lot
}
