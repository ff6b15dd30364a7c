package journal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/trading"
)

// FormatTradeOrg renders a fill as an Org-mode block. Structured facts go in
// the PROPERTIES drawer; the Thesis and Review headings are left for notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** %s %s %d @ %s (%s)", t.Side, t.Symbol, t.Qty, fmtPrice(t.Price), shortID(t.TradeID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":KIND: %s\n", t.Kind)
	fmt.Fprintf(&b, ":QTY: %d\n", t.Qty)
	fmt.Fprintf(&b, ":PRICE: %s\n", fmtPrice(t.Price))
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.In(market.Tokyo).Format(time.RFC3339))
	fmt.Fprintf(&b, ":REALIZED_PL: %.0f\n", t.RealizedPL)
	if t.Source != "" {
		fmt.Fprintf(&b, ":SOURCE: %s\n", t.Source)
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple fills separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

// fmtPrice prints whole yen without decimals and sub-yen ticks with one.
func fmtPrice(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%.0f", p)
	}
	return fmt.Sprintf("%.1f", p)
}

// DayReport summarizes one trading day in Tokyo time.
type DayReport struct {
	Day      time.Time
	Trades   []TradeRecord
	Buys     int
	Sells    int
	Volume   int64
	Turnover float64
	Realized float64
	Open     *AccountSnapshot
	Close    *AccountSnapshot
}

// NewDayReport folds the fills and snapshots of one day into a report.
// Snapshots are expected in time order.
func NewDayReport(day time.Time, trades []TradeRecord, snaps []AccountSnapshot) DayReport {
	r := DayReport{Day: day, Trades: trades}
	for _, t := range trades {
		if t.Side == trading.Buy {
			r.Buys++
		} else {
			r.Sells++
		}
		r.Volume += t.Qty
		r.Turnover += t.Price * float64(t.Qty)
		r.Realized += t.RealizedPL
	}
	if len(snaps) > 0 {
		r.Open, r.Close = &snaps[0], &snaps[len(snaps)-1]
	}
	return r
}

var dayOrgFuncs = template.FuncMap{
	"price": fmtPrice,
	"trade": FormatTradeOrg,
	"jst":   func(t time.Time) time.Time { return t.In(market.Tokyo) },
}

var dayOrg = template.Must(template.New("day").Funcs(dayOrgFuncs).Parse(DayOrgTemplate))

// FormatDayOrg renders r with DayOrgTemplate.
func FormatDayOrg(r DayReport) (string, error) {
	var buf bytes.Buffer
	if err := dayOrg.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render day report: %w", err)
	}
	return buf.String(), nil
}

const DayOrgTemplate = `* TRADING DAY {{(jst .Day).Format "2006-01-02 Mon"}}
:PROPERTIES:
:FILLS:       {{len .Trades}}
:BUYS:        {{.Buys}}
:SELLS:       {{.Sells}}
:VOLUME:      {{.Volume}}
:TURNOVER:    {{printf "%.0f" .Turnover}}
:REALIZED_PL: {{printf "%.0f" .Realized}}
{{- if .Open}}
:OPEN_EQUITY:  {{printf "%.0f" .Open.Equity}}
{{- end}}
{{- if .Close}}
:CLOSE_EQUITY: {{printf "%.0f" .Close.Equity}}
:CLOSE_CASH:   {{printf "%.0f" .Close.Cash}}
{{- end}}
:END:
{{range .Trades}}
{{trade .}}
{{- end}}
`
