package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-backend/internal/cfg"
	v1Http "github.com/DRSN-tech/catalog-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-backend/internal/infrastructure/kafka"
	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/catalog-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/clients"
	"github.com/DRSN-tech/catalog-backend/pkg/closer"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/DRSN-tech/catalog-backend/pkg/postgres"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// App владеет всеми ресурсами процесса. Ресурсы освобождаются в обратном порядке создания.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	worker  *kafka.OutboxWorker
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(2 * time.Second),
	}

	if err := a.init(); err != nil {
		if closeErr := a.closer.Close(context.Background()); closeErr != nil {
			log.Warnf("cleanup after failed init: %v", closeErr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	db, err := initPGDB(a.logger, a.cfg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		a.logger.Infof("PostgreSQL pool closed")
		return nil
	})

	executor := postgres.NewExecutor(db.Bounded, a.logger)
	coordinator := tr.NewCoordinator(db.Bounded, a.logger)

	categoryRepo := pgdb.NewCategoryRepo(executor, pgdbConv.NewCategoryConverterImpl())
	productRepo := pgdb.NewProductRepo(executor, pgdbConv.NewProductConverterImpl())

	cacheRepo, err := a.initCache()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	events, err := a.initEvents(executor, db.Dsn)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	categoryUC := usecase.NewCategoryUC(categoryRepo, cacheRepo, a.logger)
	productUC := usecase.NewProductUC(productRepo, categoryRepo, coordinator, events, cacheRepo, a.logger)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(categoryUC, productUC, func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	})
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)

	return nil
}

func (a *App) initCache() (*redis.CacheRepo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	redisClient, err := clients.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return nil, err
	}

	if redisClient == nil {
		a.logger.Infof("REDIS_ADDR not set, list cache disabled")
	} else {
		a.closer.Add("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	return redis.NewCacheRepo(
		redisClient,
		redisConv.NewProductConverterImpl(),
		redisConv.NewCategoryConverterImpl(),
		a.cfg.Redis,
		a.logger,
	), nil
}

// initEvents включает outbox и публикацию в Kafka, если заданы брокеры.
func (a *App) initEvents(executor *postgres.Executor, dsn string) (usecase.EventRecorder, error) {
	if !a.cfg.Kafka.Enabled() {
		a.logger.Infof("KAFKA_BROKERS not set, product events disabled")
		return usecase.NopRecorder{}, nil
	}

	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	a.closer.Add("kafka producer", func(context.Context) error {
		return producer.Close()
	})

	if err := producer.EnsureTopic(topicTimeout); err != nil {
		a.logger.Errorf(err, "failed to ensure kafka topic")
		return nil, err
	}

	outboxRepo := pgdb.NewOutboxEventRepo(executor, pgdbConv.NewOutboxEventConverterImpl())
	a.worker = kafka.NewOutboxWorker(outboxRepo, producer, a.cfg.Outbox, dsn, a.logger)

	return usecase.NewOutboxRecorder(outboxRepo), nil
}

// Run запускает сервер и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.worker != nil {
		a.worker.Start(ctx)
		a.closer.Add("outbox worker", a.worker.Stop)
	}

	a.closer.Add("http server", a.httpSrv.Stop)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
