package trading

import "slices"

// Book is one account's orders, trade history and ledger. It must be advanced
// by a single writer at a time.
type Book struct {
	Account Account `json:"account"`
	Orders  []Order `json:"orders"`
	Trades  []Trade `json:"trades"`
}

// Step matches b's orders against last and books every resulting trade in
// emission order. Trades are appended to the history oldest first. The
// returned fills are the trades produced by this tick.
func Step(b Book, last float64, clock Clock) (Book, []Trade) {
	orders, fills := Match(b.Orders, last, clock)
	if len(fills) == 0 {
		return b, nil
	}

	return Book{
		Account: ApplyAll(b.Account, fills),
		Orders:  orders,
		Trades:  append(slices.Clip(b.Trades), fills...),
	}, fills
}
