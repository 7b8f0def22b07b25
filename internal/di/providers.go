package di

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"time"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/domain/repository"
	domsvc "QuantPulse/internal/domain/service"
	"QuantPulse/internal/handler/api"
	"QuantPulse/internal/hub"
	internalrepo "QuantPulse/internal/repository"
	"QuantPulse/internal/services/notify"
	"QuantPulse/internal/services/portfolio"
	"QuantPulse/internal/services/prediction"
	"QuantPulse/internal/services/structure"
	"QuantPulse/internal/usecase"
	"QuantPulse/pkg/cache"
	pkgch "QuantPulse/pkg/clickhouse"
	"QuantPulse/pkg/config"
	xhttp "QuantPulse/pkg/http"
	pkgkafka "QuantPulse/pkg/kafka"
	applogger "QuantPulse/pkg/logger"
	"QuantPulse/pkg/metrics"
	"QuantPulse/pkg/postgres"
	"QuantPulse/pkg/queue"
	"QuantPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

var barSchema = []string{
	"CREATE DATABASE IF NOT EXISTS quantpulse",
	"CREATE TABLE IF NOT EXISTS quantpulse.bars_15m (symbol String, bucket DateTime, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS quantpulse.bars_1h (symbol String, bucket DateTime, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS quantpulse.bars_4h (symbol String, bucket DateTime, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
	"CREATE TABLE IF NOT EXISTS quantpulse.bars_1d (symbol String, bucket DateTime, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// bar tables exist.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, barSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvidePostgresClient creates the Postgres connection pool.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := postgres.NewClient(ctx,
		postgres.WithHost(cfg.Postgres.Host),
		postgres.WithPort(cfg.Postgres.Port),
		postgres.WithDatabase(cfg.Postgres.Database),
		postgres.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		postgres.WithSSLMode(cfg.Postgres.SSLMode),
		postgres.WithPoolSize(2, int32(cfg.Postgres.MaxConns)),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects redis or in-memory caching from config.
func ProvideCache(cfg *config.Config, log *applogger.Logger) cache.Service {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}
	host, port := splitAddr(cfg.Redis.Addr)
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("quantpulse"),
	)
	if err != nil {
		log.Warn("redis cache unavailable, using memory cache", applogger.Error(err))
		return cache.NewMemoryCache()
	}
	// memory front, redis behind
	return cache.NewLayeredCache(c)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideBarStore creates the ClickHouse bar repository.
func ProvideBarStore(chClient *pkgch.Client, log *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(log)
	return store
}

// ProvideSignalStore creates the Postgres signal repository.
func ProvideSignalStore(pg *postgres.Client) repository.SignalStore {
	return internalrepo.NewPGSignalStore(pg.Pool())
}

// ProvidePortfolioStore creates the Postgres portfolio repository.
func ProvidePortfolioStore(pg *postgres.Client) repository.PortfolioStore {
	return internalrepo.NewPGPortfolioStore(pg.Pool())
}

// ProvideAlertStore creates the Postgres alert repository.
func ProvideAlertStore(pg *postgres.Client) repository.AlertStore {
	return internalrepo.NewPGAlertStore(pg.Pool())
}

// ProvideSignalPublisher creates the Kafka export publisher, or a noop
// when Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config) (repository.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NewNoopSignalPublisher(), nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvidePredictor creates the prediction service client.
func ProvidePredictor(cfg *config.Config) domsvc.Predictor {
	return prediction.NewClient(cfg.Prediction.ServiceURL, cfg.Prediction.Timeout)
}

// ProvideNotifier creates the direct notification fan-out service.
func ProvideNotifier(cfg *config.Config, log *applogger.Logger) (*notify.Service, error) {
	targets := make([]models.NotificationTarget, 0, len(cfg.Notify.Targets))
	for _, t := range cfg.Notify.Targets {
		targets = append(targets, models.NotificationTarget{
			TargetType: t.Type,
			TargetID:   t.ID,
			Symbols:    t.Symbols,
			IsActive:   true,
		})
	}
	if cfg.Notify.TelegramToken != "" {
		return notify.NewWithTelegram(cfg.Notify.TelegramToken, targets, log)
	}
	return notify.New(nil, targets, log), nil
}

// ProvideRedisClient creates a shared redis connection, nil when
// redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideQueueConsumer builds the notification delivery queue, nil
// when redis is disabled.
func ProvideQueueConsumer(rc *redis.Client, svc *notify.Service, log *applogger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	return queue.NewRedisConsumer(log,
		&queue.QueueConfig{Workers: 2, RetryLimit: 3, RetryDelay: 30 * time.Second},
		rc,
		[]queue.Job{notify.NewDeliveryJob(svc)},
		queue.WithKeyPrefix("quantpulse:notify"),
	)
}

// ProvideDomainNotifier routes notifications through the redis queue
// when available so delivery failures retry off the generation path.
func ProvideDomainNotifier(consumer *queue.RedisQueue, svc *notify.Service) domsvc.Notifier {
	if consumer != nil {
		return notify.NewQueueNotifier(consumer)
	}
	return svc
}

// ProvideWatchlist seeds the shared watch-list from config.
func ProvideWatchlist(cfg *config.Config) *usecase.Watchlist {
	return usecase.NewWatchlist(cfg.Generator.Symbols...)
}

// ProvideSessionClock returns the market clock, or an always-open
// clock for development against historical data.
func ProvideSessionClock(cfg *config.Config) usecase.SessionClock {
	if cfg.Generator.IgnoreSession {
		return alwaysOpenClock{}
	}
	return usecase.NewMarketClock()
}

type alwaysOpenClock struct{}

func (alwaysOpenClock) Session() string { return usecase.SessionOpen }

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(
	cfg *config.Config,
	signals repository.SignalStore,
	watchlist *usecase.Watchlist,
	m repository.Metrics,
	log *applogger.Logger,
) *hub.Hub {
	return hub.New(signals, watchlist, m, log, cfg.Hub.HeartbeatInterval)
}

// ProvideSignalGenerator wires the generation pipeline and binds it to
// the hub for on-demand requests.
func ProvideSignalGenerator(
	cfg *config.Config,
	clock usecase.SessionClock,
	watchlist *usecase.Watchlist,
	predictor domsvc.Predictor,
	notifier domsvc.Notifier,
	bars repository.BarStore,
	signals repository.SignalStore,
	publisher repository.SignalPublisher,
	h *hub.Hub,
	c cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.SignalGenerator {
	g := usecase.NewSignalGenerator(usecase.SignalGeneratorDeps{
		Clock:       clock,
		Watchlist:   watchlist,
		Predictor:   predictor,
		Notifier:    notifier,
		Bars:        bars,
		Signals:     signals,
		Publisher:   publisher,
		Broadcaster: h,
		Cache:       c,
		Metrics:     m,
		Logger:      log,
		HorizonDays: cfg.Generator.HorizonDays,
		Throttle:    cfg.Generator.Throttle,
		SignalTTL:   cfg.Generator.SignalTTL,
	})
	h.BindGenerator(g)
	return g
}

// ProvideOptimizer creates the portfolio optimizer.
func ProvideOptimizer() *portfolio.Optimizer {
	return portfolio.New(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// ProvideRebalancer creates the rebalance use case.
func ProvideRebalancer(
	portfolios repository.PortfolioStore,
	bars repository.BarStore,
	opt *portfolio.Optimizer,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Rebalancer {
	return usecase.NewRebalancer(portfolios, bars, opt, m, log)
}

// ProvideRiskMonitor creates the risk sweep use case.
func ProvideRiskMonitor(
	portfolios repository.PortfolioStore,
	bars repository.BarStore,
	alerts repository.AlertStore,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.RiskMonitor {
	return usecase.NewRiskMonitor(portfolios, bars, alerts, m, log)
}

type redisHealth struct {
	client *redis.Client
}

func (r redisHealth) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ProvideRouter aggregates the HTTP handlers.
func ProvideRouter(
	log *applogger.Logger,
	portfolios repository.PortfolioStore,
	rebalancer *usecase.Rebalancer,
	alerts repository.AlertStore,
	monitor *usecase.RiskMonitor,
	signals repository.SignalStore,
	bars repository.BarStore,
	h *hub.Hub,
	c cache.Service,
	chClient *pkgch.Client,
	pgClient *postgres.Client,
	redisClient *redis.Client,
) xhttp.Handler {
	clock := usecase.NewMarketClock()
	router := api.NewRouter(
		api.NewPortfoliosHandler(log, portfolios, rebalancer),
		api.NewRiskHandler(log, alerts, monitor),
		api.NewSignalsHandler(log, signals, bars, structure.New(), clock, h, c),
	).WithHealthCheck("clickhouse", chClient).
		WithHealthCheck("postgres", pgClient)
	if redisClient != nil {
		router = router.WithHealthCheck("redis", redisHealth{client: redisClient})
	}
	return router
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	h *hub.Hub,
	generator *usecase.SignalGenerator,
	monitor *usecase.RiskMonitor,
	handler xhttp.Handler,
	publisher repository.SignalPublisher,
	consumer *queue.RedisQueue,
	chClient *pkgch.Client,
	pgClient *postgres.Client,
) *server.App {
	app := server.New(cfg, log, h, generator, monitor, handler, chClient, pgClient)
	app.SetPublisher(publisher)
	if consumer != nil {
		app.SetQueueConsumer(consumer)
	}
	return app
}
