package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/trading"
)

var ErrTradeNotFound = errors.New("trade not found")

const tradeColumns = `trade_id, symbol, side, kind, qty, price, time, realized_pl, source`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec        TradeRecord
		side, kind string
	)
	err := s.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&side,
		&kind,
		&rec.Qty,
		&rec.Price,
		&rec.Time,
		&rec.RealizedPL,
		&rec.Source,
	)
	rec.Side, rec.Kind = trading.Side(side), trading.Kind(kind)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("%w: %q", ErrTradeNotFound, tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBetween returns fills whose time is within [start, end).
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, trade_id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAccountBetween returns account snapshots within [start, end).
func (j *SQLite) ListAccountBetween(start, end time.Time) ([]AccountSnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, cash, realized_pnl, market_value, equity
		FROM account
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountSnapshot
	for rows.Next() {
		var a AccountSnapshot
		if err := rows.Scan(&a.Time, &a.Cash, &a.RealizedPnL, &a.MarketValue, &a.Equity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
