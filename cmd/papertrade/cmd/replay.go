package cmd

import (
	"fmt"

	"github.com/rustyeddy/papertrade/internal/app"
	"github.com/rustyeddy/papertrade/replay"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <ticks.csv>",
	Short: "Replay recorded prices and scripted orders through the matcher",
	Long: `Replay a CSV of last prices, with optional order events, through a desk.

CSV format:
  time,symbol,last[,event,arg1,arg2,arg3]

Events:
  BUY|SELL,MARKET|LIMIT,qty[,limit]
  CANCEL,<order id or #n>

By default the replay runs on a throwaway in-memory desk seeded from the
config. With --persist it runs on the configured store and journal.

Examples:
  papertrade replay ticks.csv
  papertrade replay ticks.csv --tick-then-event --persist`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayTickThenEvent bool
	replayPersist       bool
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayTickThenEvent, "tick-then-event", false, "apply each row's price before its event")
	replayCmd.Flags().BoolVar(&replayPersist, "persist", false, "run against the configured store and journal")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, _, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	clock := &replay.Clock{}
	engine, err := app.OpenDesk(cmd.Context(), cfg, app.DeskOptions{
		Log:       log,
		Clock:     clock.Now,
		Source:    "replay",
		Ephemeral: !replayPersist,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := replay.File(cmd.Context(), args[0], engine, replay.Options{
		TickThenEvent: replayTickThenEvent,
		Clock:         clock,
		Log:           log,
	})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows: %d  Orders: %d  Cancels: %d  Fills: %d\n",
		res.Rows, len(res.Orders), res.Cancels, len(res.Fills))
	for _, f := range res.Fills {
		fmt.Fprintf(out, "  %s %-4s %-7s %6d @ %.1f\n",
			f.Time.In(jst).Format("2006-01-02 15:04:05"), f.Side, f.Symbol, f.Qty, f.Price)
	}
	printValuation(out, engine.State())
	return nil
}
