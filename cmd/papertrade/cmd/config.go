package cmd

import (
	"fmt"

	"github.com/rustyeddy/papertrade/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage desk configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  papertrade config init -o papertrade.yaml
  papertrade config validate -f papertrade.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  papertrade config init -o papertrade.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  papertrade config validate -f papertrade.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "papertrade.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  papertrade serve -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Account: %s (¥%.0f)\n", cfg.Account.Name, cfg.Account.Cash)
	fmt.Fprintf(out, "  Market: %s (%s session, %s mode, one-share %v)\n",
		cfg.Market.Symbol, cfg.Market.Session, cfg.Market.UIMode, cfg.Market.OneShare)
	fmt.Fprintf(out, "  Feed: %s every %s\n", cfg.Feed.BaseURL, cfg.Feed.PollInterval.Std())
	fmt.Fprintf(out, "  Store: %s %s\n", cfg.Store.Type, cfg.Store.Path)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	fmt.Fprintf(out, "  Server: %s\n", cfg.Server.Addr)
	return nil
}
