package trading

import "errors"

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least one lot")
	ErrInvalidLimitPrice = errors.New("limit order requires a positive limit price")
	ErrInvalidSide       = errors.New("side must be BUY or SELL")
	ErrInvalidKind       = errors.New("order type must be MARKET or LIMIT")
	ErrInvalidSymbol     = errors.New("symbol is required")
	ErrInvalidOrder      = errors.New("malformed order")
)
