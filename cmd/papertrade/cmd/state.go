package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/internal/app"
	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/store"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show or reset the desk",
	Long: `Inspect or reset the desk.

By default these commands talk to a running desk. With --local they read
or write the configured snapshot store directly; do not use --local while
a server owns the store.

Examples:
  papertrade state show
  papertrade state show --local --json
  papertrade state reset`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print cash, positions and orders",
	Args:  cobra.NoArgs,
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start over with a fresh desk",
	Args:  cobra.NoArgs,
	RunE:  runStateReset,
}

var (
	stateServer string
	stateLocal  bool
	stateJSON   bool
)

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)

	stateCmd.PersistentFlags().StringVar(&stateServer, "server", "", "desk URL (default from server.addr)")
	stateCmd.PersistentFlags().BoolVar(&stateLocal, "local", false, "use the snapshot store instead of a running desk")
	stateShowCmd.Flags().BoolVar(&stateJSON, "json", false, "print the raw state as JSON")
}

func loadLocalState(cmd *cobra.Command) (state.State, error) {
	cfg, err := loadConfig()
	if err != nil {
		return state.State{}, err
	}
	st, err := app.OpenStore(cfg.Store, cfg.Account.Name)
	if err != nil {
		return state.State{}, err
	}
	defer st.Close()
	return store.LoadOrInit(cmd.Context(), st, app.Fresh(cfg), nil)
}

func runStateShow(cmd *cobra.Command, args []string) error {
	var (
		st  state.State
		err error
	)
	if stateLocal {
		st, err = loadLocalState(cmd)
	} else {
		client, cerr := apiClient(stateServer)
		if cerr != nil {
			return cerr
		}
		st, err = client.State(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	if stateJSON {
		return printJSON(cmd.OutOrStdout(), st)
	}
	printState(cmd.OutOrStdout(), st)
	return nil
}

func runStateReset(cmd *cobra.Command, args []string) error {
	if !stateLocal {
		c, err := apiClient(stateServer)
		if err != nil {
			return err
		}
		st, err := c.Reset(cmd.Context())
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Desk reset: %s, cash %.0f\n", st.Symbol, st.Account.Cash)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := app.OpenStore(cfg.Store, cfg.Account.Name)
	if err != nil {
		return err
	}
	defer st.Close()

	fresh := app.Fresh(cfg)
	if err := store.Save(cmd.Context(), st, fresh, time.Now()); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Desk reset in %s store: %s, cash %.0f\n", cfg.Store.Type, fresh.Symbol, fresh.Account.Cash)
	return nil
}
