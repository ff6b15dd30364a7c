package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	tradesHeader  = []string{"trade_id", "symbol", "side", "kind", "qty", "price", "time", "realized_pl", "source"}
	accountHeader = []string{"time", "cash", "realized_pnl", "market_value", "equity"}
)

type CSVJournal struct {
	trades  *csv.Writer
	account *csv.Writer
	tf, af  *os.File
}

func NewCSV(tradesPath, accountPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	af, err := os.Create(accountPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	aw := csv.NewWriter(af)

	if err := tw.Write(tradesHeader); err != nil {
		return nil, err
	}
	if err := aw.Write(accountHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	aw.Flush()
	if err := aw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, aw, tf, af}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		string(t.Side),
		string(t.Kind),
		strconv.FormatInt(t.Qty, 10),
		f(t.Price),
		t.Time.UTC().Format(time.RFC3339),
		f(t.RealizedPL),
		t.Source,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordAccount(a AccountSnapshot) error {
	err := j.account.Write([]string{
		a.Time.UTC().Format(time.RFC3339),
		f(a.Cash),
		f(a.RealizedPnL),
		f(a.MarketValue),
		f(a.Equity),
	})
	if err != nil {
		return err
	}

	j.account.Flush()
	return j.account.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.account.Flush()
	if err := j.account.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.af.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
