package trading

// crosses reports whether a working order is executable at last.
func (o Order) crosses(last float64) bool {
	if !o.Working() {
		return false
	}
	limit, ok := o.LimitPrice()
	if !ok {
		return true
	}
	if o.Side == Buy {
		return last <= limit
	}
	return last >= limit
}

// Match fills every WORKING order that is executable at last and returns the
// updated orders with one Trade per fill, in input order. Orders that are not
// WORKING pass through untouched, so re-matching FILLED orders never emits a
// second trade or rewrites their fill.
//
// When nothing fills, the input slice is returned as-is. Otherwise a new slice
// is built and orders is left unmodified.
func Match(orders []Order, last float64, clock Clock) ([]Order, []Trade) {
	var (
		out    []Order
		trades []Trade
	)

	for i, o := range orders {
		if !o.crosses(last) {
			if out != nil {
				out = append(out, o)
			}
			continue
		}

		if out == nil {
			out = make([]Order, i, len(orders))
			copy(out, orders[:i])
		}

		at := clock()
		o.State = Filled{At: at, Price: last}
		out = append(out, o)

		trades = append(trades, Trade{
			OrderID: o.ID,
			Symbol:  o.Symbol,
			Side:    o.Side,
			Qty:     o.Qty,
			Price:   last,
			Time:    at,
		})
	}

	if out == nil {
		return orders, nil
	}
	return out, trades
}
