package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/internal/handler/api"
	"BrentCast/internal/handler/ws"
	internalrepo "BrentCast/internal/repository"
	"BrentCast/internal/service/ratelimit"
	"BrentCast/internal/services/boost"
	"BrentCast/internal/services/trend"
	"BrentCast/internal/usecase"
	"BrentCast/pkg/cache"
	pkgch "BrentCast/pkg/clickhouse"
	"BrentCast/pkg/config"
	xhttp "BrentCast/pkg/http"
	pkgkafka "BrentCast/pkg/kafka"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/metrics"
	"BrentCast/pkg/queue"
	"BrentCast/pkg/server"
)

// Toolkit is the dependency set used by the command line client.
type Toolkit struct {
	Config   *config.Config
	Logger   *applogger.Logger
	History  *usecase.HistoryService
	Trainer  *usecase.Trainer
	Composer *usecase.Composer
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisClient dials Redis when enabled. The client is nil otherwise.
func ProvideRedisClient(cfg *config.Config, l *applogger.Logger) (*redis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	l.Info("redis connected", applogger.String("addr", cfg.Redis.Addr))
	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}, nil
}

// ProvideCache builds the forecast cache for the configured backend.
func ProvideCache(cfg *config.Config, rdb *redis.Client) (cache.Service, error) {
	mem, err := cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
		cache.WithMemoryTTL(cfg.Cache.TTL),
	)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(rdb, cfg.Redis.Prefix), nil
	case "layered":
		l1 := cfg.Cache.TTL / 4
		if l1 <= 0 || l1 > time.Minute {
			l1 = time.Minute
		}
		return cache.NewLayeredCache(mem, cache.NewRedisCache(rdb, cfg.Redis.Prefix), l1), nil
	}
	return mem, nil
}

// ProvideClickHouseClient connects to ClickHouse and creates the price schema when enabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.PriceSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse connected and schema ready", applogger.String("db", cfg.ClickHouse.Database))
	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}, nil
}

// ProvidePriceStore returns the ClickHouse copy of the series, or nil without ClickHouse.
func ProvidePriceStore(ch *pkgch.Client, l *applogger.Logger) domrepo.PriceStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHPriceStore(ch, l)
}

// ProvideKafkaProducer creates a Kafka producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher announces trained models on Kafka, or drops them without it.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) (domrepo.EventPublisher, func()) {
	if producer == nil {
		return internalrepo.NoopPublisher{}, func() {}
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic, l)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
}

// ProvideHTTPClient creates the client used to scrape the upstream page.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Source.Timeout),
		xhttp.WithUserAgent(cfg.Source.UserAgent),
	)
}

// ProvidePriceSource chains upstream, the ClickHouse copy and the bundled CSV.
func ProvidePriceSource(cfg *config.Config, client *xhttp.Client, store domrepo.PriceStore,
	m domrepo.Metrics, l *applogger.Logger) domrepo.PriceSource {
	from, to := cfg.SourceWindow()
	sources := []domrepo.PriceSource{internalrepo.NewIpeaSource(client, cfg.Source.IpeaURL, from, to, l)}
	if store != nil {
		sources = append(sources, store)
	}
	sources = append(sources, internalrepo.NewCSVSource(cfg.Source.CSVPath, l))
	return internalrepo.NewFallbackSource(sources, store, m, l)
}

// ProvideHistoryService memoizes the loaded series.
func ProvideHistoryService(source domrepo.PriceSource, l *applogger.Logger) *usecase.HistoryService {
	return usecase.NewHistoryService(source, l)
}

// ProvideModelStore persists model pairs under the configured directory.
func ProvideModelStore(cfg *config.Config, l *applogger.Logger) domrepo.ModelStore {
	return internalrepo.NewFileModelStore(cfg.Model.Dir, l)
}

// ProvideTrainerConfig maps configuration onto trainer knobs.
func ProvideTrainerConfig(cfg *config.Config) usecase.TrainerConfig {
	t, r := cfg.Model.Trend, cfg.Model.Residual
	return usecase.TrainerConfig{
		MinHistory: cfg.Model.MinHistory,
		HorizonEnd: cfg.HorizonEnd(),
		TrainRatio: r.TrainRatio,
		Trend: trend.Options{
			Changepoints:          t.Changepoints,
			ChangepointRange:      t.ChangepointRange,
			ChangepointPriorScale: t.ChangepointPriorScale,
			SeasonalityPriorScale: t.SeasonalityPriorScale,
			YearlyOrder:           t.YearlyOrder,
			WeeklyOrder:           t.WeeklyOrder,
			IntervalWidth:         t.IntervalWidth,
		},
		Boost: boost.Params{
			Estimators:     r.Estimators,
			LearningRate:   r.LearningRate,
			MaxDepth:       r.MaxDepth,
			MinChildWeight: r.MinChildWeight,
			Lambda:         r.Lambda,
			Subsample:      r.Subsample,
			Seed:           r.Seed,
		},
	}
}

// ProvideEventsHub creates the training progress websocket hub, or nil when disabled.
func ProvideEventsHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	if !cfg.Events.Enabled {
		return nil
	}
	return ws.NewHub(cfg.Events.Path, cfg.Events.PingInterval, cfg.Events.Buffer, l)
}

// ProvideTrainer creates the training use case and subscribes the hub to it.
func ProvideTrainer(tc usecase.TrainerConfig, history *usecase.HistoryService, store domrepo.ModelStore,
	prices domrepo.PriceStore, pub domrepo.EventPublisher, c cache.Service, m domrepo.Metrics,
	hub *ws.Hub, l *applogger.Logger) *usecase.Trainer {
	t := usecase.NewTrainer(tc, history, store, prices, pub, c, m, l)
	if hub != nil {
		t.Subscribe(hub)
	}
	return t
}

// ProvideQueue creates the training queue when enabled.
func ProvideQueue(cfg *config.Config, rdb *redis.Client, trainer *usecase.Trainer, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rdb == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rdb, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
	q.RegisterJob(usecase.NewTrainJob(trainer))
	return q
}

// ProvideTrainDispatcher routes training through the queue when one exists.
func ProvideTrainDispatcher(trainer *usecase.Trainer, q *queue.RedisQueue) *usecase.TrainDispatcher {
	if q == nil {
		return usecase.NewTrainDispatcher(trainer, nil)
	}
	return usecase.NewTrainDispatcher(trainer, q)
}

// ProvideComposer creates the forecast use case.
func ProvideComposer(cfg *config.Config, store domrepo.ModelStore, history *usecase.HistoryService,
	c cache.Service, m domrepo.Metrics, l *applogger.Logger) *usecase.Composer {
	return usecase.NewComposer(store, history, c, cfg.Cache.TTL, cfg.Model.MaxForecastDays, m, l)
}

// ProvideHandlers collects every route group served over HTTP.
func ProvideHandlers(cfg *config.Config, composer *usecase.Composer, history *usecase.HistoryService,
	dispatcher *usecase.TrainDispatcher, hub *ws.Hub, l *applogger.Logger) []xhttp.Handler {
	limiter := ratelimit.New(cfg.Server.TrainRateLimit.PerMinute, cfg.Server.TrainRateLimit.Burst)
	handlers := []xhttp.Handler{
		api.NewForecastEchoHandler(l, composer, history, dispatcher, limiter.Middleware()),
	}
	if hub != nil {
		handlers = append(handlers, hub)
	}
	return handlers
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, cfg.Server.SlowRequest),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, store domrepo.ModelStore, dispatcher *usecase.TrainDispatcher,
	q *queue.RedisQueue, hub *ws.Hub, l *applogger.Logger) *server.App {
	app := server.New(cfg, srv, store, dispatcher, l)
	if q != nil {
		app.WithQueue(q)
	}
	if hub != nil {
		app.WithHub(hub)
	}
	return app
}

// ProvideToolkit bundles the use cases for the command line client.
func ProvideToolkit(cfg *config.Config, l *applogger.Logger, history *usecase.HistoryService,
	trainer *usecase.Trainer, composer *usecase.Composer) *Toolkit {
	return &Toolkit{Config: cfg, Logger: l, History: history, Trainer: trainer, Composer: composer}
}

// ProvideNoEventsHub disables progress streaming for one-shot commands.
func ProvideNoEventsHub() *ws.Hub { return nil }
