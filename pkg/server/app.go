package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ChainPull/internal/usecase"
	pkgch "ChainPull/pkg/clickhouse"
	"ChainPull/pkg/config"
	xhttp "ChainPull/pkg/http"
	pkgkafka "ChainPull/pkg/kafka"
	applogger "ChainPull/pkg/logger"
	"ChainPull/pkg/queue"
	"ChainPull/pkg/sched"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.ChainCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	queues      []*queue.RedisQueue
	runners     []*sched.Runner
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	ChainProc   *usecase.ChainProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	collector *usecase.ChainCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		chClient:    chClient,
		httpHandler: handler,
	}
}

// AddQueue registers a Redis queue for lifecycle management.
func (a *App) AddQueue(q *queue.RedisQueue) {
	if q != nil {
		a.queues = append(a.queues, q)
	}
}

// AddRunner registers a scheduled analyzer runner.
func (a *App) AddRunner(r *sched.Runner) {
	if r != nil {
		a.runners = append(a.runners, r)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("underlyings", a.cfg.ChainFeed.Underlyings))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start queue workers
	for _, q := range a.queues {
		if err := q.Start(); err != nil {
			l.Warn("queue start error", applogger.Error(err))
		}
	}

	// Start analyzer runners
	for _, r := range a.runners {
		r.Start(ctx)
		l.Info("runner started", applogger.String("runner", r.Name()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	l.Info("shutting down...")

	// Stop analyzer runners first so no cycle starts mid-teardown
	stopCtx, stopCancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer stopCancel()
	for _, r := range a.runners {
		if err := r.Stop(stopCtx); err != nil {
			l.Warn("runner stop error", applogger.Error(err))
		}
	}

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers
	for _, q := range a.queues {
		if err := q.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/storage)
	if a.ChainProc != nil {
		a.ChainProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
