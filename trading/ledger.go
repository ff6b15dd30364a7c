package trading

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int64) int64 {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// ClosingPnL is the P&L that trade t realizes against the open position pos.
// It is zero unless t is on the opposite side of a non-flat position, in which
// case min(|pos.Qty|, t.Qty) shares are closed at t.Price.
func ClosingPnL(pos Position, t Trade) float64 {
	if pos.Qty == 0 || sign(pos.Qty) == t.Side.Sign() {
		return 0
	}
	closing := min(abs(pos.Qty), t.Qty)
	perShare := t.Price - pos.AvgPrice
	if t.Side == Buy {
		perShare = pos.AvgPrice - t.Price
	}
	return perShare * float64(closing)
}

// Apply books trade t against acct and returns the new account. acct is not
// modified.
//
// Buys cost price*qty and sells credit it. Opening from flat sets the average
// price to the trade price, adding in the same direction blends it by
// quantity, reducing keeps it, and reversing through flat resets it to the
// trade price for the leftover shares. Closing shares realize P&L against the
// average. A position that ends flat is removed.
func Apply(acct Account, t Trade) Account {
	delta := t.Side.Sign() * t.Qty

	next := acct.Clone()
	next.Cash -= float64(t.Side.Sign()) * t.Notional()

	cur := acct.Position(t.Symbol)
	newQty := cur.Qty + delta
	avg := cur.AvgPrice

	switch {
	case cur.Qty == 0:
		avg = t.Price
	case sign(cur.Qty) == sign(delta):
		gross := cur.AvgPrice*float64(abs(cur.Qty)) + t.Notional()
		avg = gross / float64(abs(newQty))
	default:
		next.RealizedPnL += ClosingPnL(cur, t)
		if t.Qty > abs(cur.Qty) {
			avg = t.Price
		}
	}

	if newQty == 0 {
		delete(next.Positions, t.Symbol)
		return next
	}
	next.Positions[t.Symbol] = Position{Symbol: t.Symbol, Qty: newQty, AvgPrice: avg}
	return next
}

// ApplyAll threads trades through Apply in order. Average-price blending is
// order dependent, so trades must arrive in emission order.
func ApplyAll(acct Account, trades []Trade) Account {
	for _, t := range trades {
		acct = Apply(acct, t)
	}
	return acct
}
