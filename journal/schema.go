package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	kind TEXT NOT NULL,
	qty INTEGER NOT NULL,
	price REAL NOT NULL,
	time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	source TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);

CREATE TABLE IF NOT EXISTS account (
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	market_value REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_account_time ON account(time);
`
