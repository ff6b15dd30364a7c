package cmd

import (
	"fmt"

	"github.com/rustyeddy/papertrade/server"
	"github.com/rustyeddy/papertrade/trading"
	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place or cancel orders on a running desk",
	Long: `Send orders to a running desk through its REST API.

Subcommands:
  place  - Place a market or limit order
  cancel - Cancel a working order

Examples:
  papertrade order place buy 100
  papertrade order place sell 200 --limit 2510 --symbol 7203
  papertrade order cancel 01HZX...`,
}

var orderPlaceCmd = &cobra.Command{
	Use:   "place <buy|sell> <qty>",
	Short: "Place an order",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrderPlace,
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel a working order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderCancel,
}

var (
	orderServer string
	orderSymbol string
	orderLimit  float64
)

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderPlaceCmd)
	orderCmd.AddCommand(orderCancelCmd)

	orderCmd.PersistentFlags().StringVar(&orderServer, "server", "", "desk URL (default from server.addr)")
	orderPlaceCmd.Flags().StringVarP(&orderSymbol, "symbol", "s", "", "symbol (default: the watched one)")
	orderPlaceCmd.Flags().Float64VarP(&orderLimit, "limit", "l", 0, "limit price; omit for a market order")
}

// apiClient returns a client for --server, or for the configured listen
// address.
func apiClient(url string) (*server.Client, error) {
	if url != "" {
		return server.NewClient(url), nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return server.NewClient(server.BaseURLFor(cfg.Server.Addr)), nil
}

func parseOrderArgs(args []string, symbol string, limit float64) (trading.OrderRequest, error) {
	side, err := trading.ParseSide(args[0])
	if err != nil {
		return trading.OrderRequest{}, err
	}
	var qty int64
	if _, err := fmt.Sscan(args[1], &qty); err != nil {
		return trading.OrderRequest{}, fmt.Errorf("bad qty %q: %w", args[1], err)
	}
	req := trading.OrderRequest{Symbol: symbol, Side: side, Kind: trading.KindMarket, Qty: qty}
	if limit != 0 {
		req.Kind, req.LimitPrice = trading.KindLimit, limit
	}
	return req, nil
}

func runOrderPlace(cmd *cobra.Command, args []string) error {
	req, err := parseOrderArgs(args, orderSymbol, orderLimit)
	if err != nil {
		return err
	}
	c, err := apiClient(orderServer)
	if err != nil {
		return err
	}
	o, err := c.PlaceOrder(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s %s %d %s (%s)\n", o.ID, o.Side, o.Kind(), o.Qty, o.Symbol, o.Status())
	return nil
}

func runOrderCancel(cmd *cobra.Command, args []string) error {
	c, err := apiClient(orderServer)
	if err != nil {
		return err
	}
	o, err := c.CancelOrder(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s\n", o.ID, o.Status())
	return nil
}
