package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dalemusser/taskboard/internal/app/bootstrap"
	eventstore "github.com/dalemusser/taskboard/internal/app/store/events"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/worker"
)

// taskboardworker runs the queue consumers and scheduled jobs. It
// shares configuration and backend wiring with the HTTP server but is
// deployed as its own process.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		logger.Fatal("config validation failed", zap.Error(err))
	}
	timeouts.ConfigureFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.ConnectDB(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Fatal("backend connect failed", zap.Error(err))
	}
	defer func() {
		if err := bootstrap.Shutdown(context.Background(), coreCfg, appCfg, deps, logger); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	events := eventstore.New(deps.MongoDatabase)

	mailer := worker.NewMailer(worker.LogSender{Log: logger}, logger)
	notifier := worker.NewNotifier(logger)
	analytics := worker.NewAnalytics(events, logger)

	summary := worker.NewSummary(events, logger)
	if err := summary.Start(); err != nil {
		logger.Fatal("summary scheduler failed", zap.Error(err))
	}
	defer summary.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.NewConsumer(deps.RabbitConn, worker.MailerQueue, mailer.Topics(), mailer.Handle, logger).Run(ctx)
	})
	g.Go(func() error {
		return worker.NewConsumer(deps.RabbitConn, worker.NotifierQueue, notifier.Topics(), notifier.Handle, logger).Run(ctx)
	})
	g.Go(func() error {
		return worker.NewConsumer(deps.RabbitConn, worker.AnalyticsQueue, analytics.Topics(), analytics.Handle, logger).Run(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("worker stopped", zap.Error(err))
	}
}
