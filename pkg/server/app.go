package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/hub"
	"QuantPulse/internal/usecase"
	pkgch "QuantPulse/pkg/clickhouse"
	"QuantPulse/pkg/config"
	xhttp "QuantPulse/pkg/http"
	applogger "QuantPulse/pkg/logger"
	"QuantPulse/pkg/postgres"
	"QuantPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	hub       *hub.Hub
	generator *usecase.SignalGenerator
	monitor   *usecase.RiskMonitor

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	cron        *cron.Cron
	consumer    *queue.RedisQueue
	publisher   domrepo.SignalPublisher

	chClient *pkgch.Client
	pgClient *postgres.Client
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	h *hub.Hub,
	generator *usecase.SignalGenerator,
	monitor *usecase.RiskMonitor,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	pgClient *postgres.Client,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		hub:         h,
		generator:   generator,
		monitor:     monitor,
		httpHandler: handler,
		chClient:    chClient,
		pgClient:    pgClient,
	}
}

// SetQueueConsumer attaches the notification delivery consumer.
func (a *App) SetQueueConsumer(q *queue.RedisQueue) { a.consumer = q }

// SetPublisher hands the signal publisher to the app so it is closed
// on shutdown.
func (a *App) SetPublisher(p domrepo.SignalPublisher) { a.publisher = p }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.hub.Start()

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("queue consumer start", applogger.Error(err))
			return err
		}
	}

	if err := a.startScheduler(ctx); err != nil {
		return err
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start", applogger.Error(err))
		return err
	}
	a.log.Info("engine started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment),
		applogger.Bool("redis", a.cfg.Redis.Enabled))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startScheduler registers the recurring jobs: signal generation,
// stale-signal expiry, and the portfolio risk sweep.
func (a *App) startScheduler(ctx context.Context) error {
	schedule := a.cfg.Generator.Schedule
	if schedule == "" {
		schedule = "@every 5m"
	}

	a.cron = cron.New()
	if _, err := a.cron.AddFunc(schedule, func() {
		a.generator.RunCycle(ctx)
	}); err != nil {
		return err
	}
	if _, err := a.cron.AddFunc("@every 1h", func() {
		a.generator.ExpireStale(ctx)
	}); err != nil {
		return err
	}
	if _, err := a.cron.AddFunc("@every 15m", func() {
		a.monitor.SweepAll(ctx)
	}); err != nil {
		return err
	}
	a.cron.Start()
	a.log.Info("scheduler started", applogger.String("generation_schedule", schedule))

	// first cycle without waiting for the schedule
	go a.generator.RunCycle(ctx)

	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	stopCtx := a.cron.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown", applogger.Error(err))
	}

	a.hub.Stop()

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("queue consumer stop", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close", applogger.Error(err))
		}
	}
	if a.pgClient != nil {
		a.pgClient.Close()
	}

	a.log.Info("shutdown complete")
	return nil
}
