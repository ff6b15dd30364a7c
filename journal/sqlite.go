package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, kind, qty, price, time, realized_pl, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, string(t.Side), string(t.Kind), t.Qty,
		t.Price, t.Time.UTC(), t.RealizedPL, t.Source,
	)
	return err
}

func (j *SQLite) RecordAccount(a AccountSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO account
		(time, cash, realized_pnl, market_value, equity)
		VALUES (?, ?, ?, ?, ?)`,
		a.Time.UTC(), a.Cash, a.RealizedPnL, a.MarketValue, a.Equity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
