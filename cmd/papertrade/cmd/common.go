package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/state"
)

var jst = market.Tokyo

func printValuation(w io.Writer, st state.State) {
	v := st.Valuation()
	fmt.Fprintf(w, "Cash:        %15.2f\n", v.Cash)
	fmt.Fprintf(w, "Realized:    %15.2f\n", v.RealizedPnL)
	fmt.Fprintf(w, "Unrealized:  %15.2f\n", v.Unrealized)
	fmt.Fprintf(w, "Equity:      %15.2f\n", v.Equity)
	for _, p := range v.Positions {
		mark := "avg"
		if p.Marked {
			mark = "last"
		}
		fmt.Fprintf(w, "  %-8s %8d @ %.1f  mark %.1f (%s)  upl %.2f\n",
			p.Symbol, p.Qty, p.AvgPrice, p.Mark, mark, p.Unrealized)
	}
}

func printState(w io.Writer, st state.State) {
	last := "-"
	if p, ok := st.LastPrice(); ok {
		last = fmt.Sprintf("%.1f", p)
	}
	fmt.Fprintf(w, "Symbol: %s  Last: %s  Session: %s  Mode: %s  One-share: %v\n",
		st.Symbol, last, st.Session, st.UIMode, st.OneShare)
	printValuation(w, st)

	orders := slices.Clone(st.Orders)
	if len(orders) > 0 {
		fmt.Fprintln(w, "Orders:")
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	for _, o := range orders {
		limit := ""
		if p, ok := o.LimitPrice(); ok {
			limit = fmt.Sprintf(" @ %.1f", p)
		}
		fmt.Fprintf(w, "  %s %-8s %-4s %-6s %6d%s %s\n", o.ID, o.Status(), o.Side, o.Kind(), o.Qty, limit, o.Symbol)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
