package cmd

import (
	"fmt"

	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A paper trading desk for Tokyo Stock Exchange equities",
	Long: `Papertrade simulates retail equity trading against a delayed market feed.

It provides tools for:
  - Serving the desk (REST API, websocket push, Prometheus metrics)
  - Placing and canceling market and limit orders
  - Replaying recorded prices through the matcher
  - Querying the trade journal as Org-mode reports
  - Looking up TSE symbols by code or name

Configuration is read from a YAML or JSON file, a .env file and
PAPERTRADE_* environment variables, in that order.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// loadConfig reads the config named by --config plus the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	log, level, err := logger.New(cfg.Log)
	if err != nil {
		return nil, level, fmt.Errorf("logger: %w", err)
	}
	return log, level, nil
}
