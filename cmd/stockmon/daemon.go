package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fengyix/stockmon/internal/config"
	"github.com/fengyix/stockmon/internal/daemon"
	"github.com/fengyix/stockmon/internal/logger"
	"github.com/fengyix/stockmon/internal/metrics"
	"github.com/fengyix/stockmon/internal/quote"
	"github.com/fengyix/stockmon/internal/quote/eastmoney"
	"github.com/fengyix/stockmon/internal/quote/sina"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the stdio monitoring daemon",
	Long: `Runs the monitoring daemon. Commands arrive as JSON lines on stdin,
result and status frames leave as JSON lines on stdout. Logs go to
stderr so the protocol stream stays clean.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	if cfg.Logging.File != "" {
		log = logger.NewWithFile(debug, logger.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
	}
	defer log.Sync()

	log.Info("starting stockmon daemon",
		zap.String("version", cfg.Version),
		zap.Int("positions", len(cfg.EnabledStocks())),
		zap.String("priority", string(cfg.Priority())),
	)

	reg := metrics.NewRegistry()
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, reg, log)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	fetcher := quote.NewFetcher(sina.New(), eastmoney.New(), log)
	d := daemon.New(cfg, fetcher, os.Stdout, log, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("shutting down stockmon daemon")
		cancel()
	}()

	err = d.Run(ctx, os.Stdin)

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
			log.Error("metrics shutdown error", zap.Error(serr))
		}
	}
	return err
}
