package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/feed"
	"github.com/rustyeddy/papertrade/internal/app"
	"github.com/rustyeddy/papertrade/metrics"
	"github.com/rustyeddy/papertrade/server"
	"github.com/rustyeddy/papertrade/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the desk: feed poller, REST API and websocket push",
	Long: `Start the desk server.

The desk is restored from the configured store, the watched symbol is
polled from the market feed and every change is persisted, journaled and
pushed to websocket clients.

When a config file is given it is watched; log level changes apply
without a restart.

Examples:
  papertrade serve
  papertrade serve -c papertrade.yaml --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr   string
	serveNoPoll bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNoPoll, "no-poll", false, "do not poll the market feed")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log, level, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	engine, err := app.OpenDesk(ctx, cfg, app.DeskOptions{Log: log, Metrics: m, Source: "live"})
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Error("close desk", zap.Error(err))
		}
	}()

	src := feed.NewCachedClient(feed.NewClient(feed.Options{
		BaseURL:   cfg.Feed.BaseURL,
		UserAgent: cfg.Feed.UserAgent,
		Timeout:   cfg.Feed.Timeout.Std(),
		Metrics:   m,
	}), cfg.Feed.PriceTTL.Std(), cfg.Feed.OHLCTTL.Std())

	poller := feed.NewPoller(src, engine, feed.PollerOptions{
		Interval:       cfg.Feed.PollInterval.Std(),
		CandleInterval: cfg.Feed.CandleInterval,
		CandleRange:    cfg.Feed.CandleRange,
		RespectSession: cfg.Feed.RespectSession,
		Log:            log,
	})

	srv := server.New(server.Options{
		Engine:         engine,
		Feed:           src,
		Kicker:         poller,
		Fresh:          func() state.State { return app.Fresh(cfg) },
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		Log:            log,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, cfg.Server.Addr, func() {
			if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
				log.Warn("sd_notify ready failed", zap.Error(err))
			} else if ok {
				log.Debug("notified systemd")
			}
		})
	})
	if !serveNoPoll {
		g.Go(func() error {
			if err := poller.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if configPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, configPath, log, func(next *config.Config) {
				lvl, err := zapcore.ParseLevel(next.Log.Level)
				if err != nil {
					log.Warn("ignoring log level", zap.String("level", next.Log.Level))
					return
				}
				if lvl != level.Level() {
					level.SetLevel(lvl)
					log.Info("log level changed", zap.Stringer("level", lvl))
				}
			})
		})
	}

	err = g.Wait()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("desk stopped")
	return nil
}
