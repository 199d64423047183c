package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TickSentinel/internal/collector"
	"TickSentinel/internal/config"
	"TickSentinel/internal/logger"
	"TickSentinel/internal/metrics"
	"TickSentinel/internal/notifier"
	"TickSentinel/internal/session"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "ticksentinel",
		Short:         "Stream live ticks into per-instrument OHLC records",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = defaultConfigPath
				if v := os.Getenv("CONFIG_PATH"); v != "" {
					cfgPath = v
				}
			}
			return run(cmd.Context(), cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to the YAML config (default $CONFIG_PATH or "+defaultConfigPath+")")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("[FATAL] %v", err)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath, ".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	lg := logger.New(cfg.Log.Level)
	defer lg.Sync()
	lg.Info("TickSentinel starting",
		zap.String("config", cfgPath),
		zap.Int("symbols", len(cfg.Feed.Symbols)))

	rec := buildRecorder(cfg, lg)
	defer func() {
		if err := rec.Close(); err != nil {
			lg.Warn("close recorder", zap.Error(err))
		}
	}()

	dialer := &collector.WebsocketDialer{
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		PingPeriod:       cfg.Feed.PingPeriod,
		ReadLimit:        cfg.Feed.ReadLimit,
		Proxy:            cfg.Proxy,
	}
	client := collector.NewClient(collector.Options{
		Endpoint:   cfg.Endpoint(),
		Token:      cfg.Feed.Token,
		Symbols:    cfg.Feed.Symbols,
		RetryDelay: cfg.Feed.RetryDelay,
	}, dialer, lg)

	ctrl := session.NewController(client, rec, cfg.Feed.Symbols, session.Options{
		Dedupe:     cfg.DedupeEnabled(),
		ErrorPause: cfg.Sink.ErrorPause,
	}, lg)

	if cfg.Candle.ResetCron != "" {
		if err := ctrl.ScheduleReset(cfg.Candle.ResetCron); err != nil {
			return err
		}
	}

	if cfg.AlertsEnabled() {
		ctrl.SetAlerter(notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, lg))
		lg.Info("telegram alerts enabled")
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, lg); err != nil {
				lg.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	err = ctrl.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("session: %w", err)
	}
	lg.Info("TickSentinel stopped")
	return nil
}
