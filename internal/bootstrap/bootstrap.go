// Package bootstrap builds the application graph from configuration: the
// database pool, cache, queue, mail, storage, event bus, services,
// controllers, router and gRPC health server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/controllers"
	appgraphql "github.com/shashiranjanraj/pehnawa/app/graphql"
	"github.com/shashiranjanraj/pehnawa/app/jobs"
	"github.com/shashiranjanraj/pehnawa/app/listeners"
	"github.com/shashiranjanraj/pehnawa/app/routes"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/config"
	"github.com/shashiranjanraj/pehnawa/internal/kernel"
	"github.com/shashiranjanraj/pehnawa/pkg/auth"
	"github.com/shashiranjanraj/pehnawa/pkg/cache"
	"github.com/shashiranjanraj/pehnawa/pkg/database"
	"github.com/shashiranjanraj/pehnawa/pkg/event"
	"github.com/shashiranjanraj/pehnawa/pkg/graphql"
	"github.com/shashiranjanraj/pehnawa/pkg/grpc"
	apphttp "github.com/shashiranjanraj/pehnawa/pkg/http"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/mail"
	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
	"github.com/shashiranjanraj/pehnawa/pkg/middleware"
	"github.com/shashiranjanraj/pehnawa/pkg/notification"
	"github.com/shashiranjanraj/pehnawa/pkg/queue"
	"github.com/shashiranjanraj/pehnawa/pkg/router"
	"github.com/shashiranjanraj/pehnawa/pkg/schedule"
	"github.com/shashiranjanraj/pehnawa/pkg/sse"
	"github.com/shashiranjanraj/pehnawa/pkg/storage"
	"github.com/shashiranjanraj/pehnawa/pkg/workerpool"
	"github.com/shashiranjanraj/pehnawa/pkg/ws"
)

const (
	keyPrefix      = "pehnawa:"
	digestSize     = 50
	authRateMax    = 20
	authRateWindow = time.Minute
)

// App is the wired application. Build it with New and release it with Close.
type App struct {
	DB        *gorm.DB
	Cache     *cache.Store
	Queue     *queue.Manager
	Events    *event.Dispatcher
	Scheduler *schedule.Scheduler
	Router    *router.Router
	GRPC      *grpc.Server
	Disk      storage.Disk

	Catalog *services.CatalogService
	Orders  *services.OrderService

	Feed    *sse.Broker
	Stock   *ws.Hub
	limiter *middleware.RateLimiter
	pool    *workerpool.Pool

	wg      sync.WaitGroup
	closers []func(context.Context) error
}

// OpenDB connects the pool described by DB_DRIVER and DB_DSN. Commands that
// only touch the schema use it without building the rest of the graph.
func OpenDB(ctx context.Context) (*gorm.DB, error) {
	return database.Connect(ctx, database.Options{
		Driver:        config.DatabaseDriver(),
		DSN:           config.DatabaseDSN(),
		MaxOpenConns:  config.Int("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:  config.Int("DB_MAX_IDLE_CONNS", 10),
		SlowThreshold: config.Duration("DB_SLOW_THRESHOLD", 200*time.Millisecond),
	})
}

// New wires every component. On failure everything opened so far is closed.
func New(ctx context.Context) (_ *App, err error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("bootstrap: config: %w", err)
	}

	a := &App{}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if err := a.observability(ctx); err != nil {
		return nil, err
	}

	if a.DB, err = OpenDB(ctx); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return database.Close(a.DB) })

	rdb, err := a.redis(ctx)
	if err != nil {
		return nil, err
	}

	if a.Queue, err = newQueue(a.DB, rdb); err != nil {
		return nil, err
	}

	if a.Disk, err = storage.New(ctx, storage.Config{
		Driver:     config.StorageDefault(),
		LocalRoot:  config.StorageLocalRoot(),
		LocalURL:   config.StorageURL(),
		S3Bucket:   config.StorageS3Bucket(),
		S3Region:   config.StorageS3Region(),
		S3Key:      config.StorageS3Key(),
		S3Secret:   config.StorageS3Secret(),
		S3Endpoint: config.StorageS3Endpoint(),
		S3URL:      config.StorageS3URL(),
	}); err != nil {
		return nil, fmt.Errorf("bootstrap: storage: %w", err)
	}

	mailer, err := mail.New(mail.Config{
		Driver:         config.MailDriver(),
		From:           config.MailFrom(),
		FromName:       config.StoreName(),
		Host:           config.MailHost(),
		Port:           strconv.Itoa(config.MailPort()),
		Username:       config.MailUsername(),
		Password:       config.MailPassword(),
		SendGridAPIKey: config.SendGridAPIKey(),
		PostmarkToken:  config.PostmarkToken(),
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: mail: %w", err)
	}
	client := apphttp.NewClient(apphttp.Options{Timeout: 10 * time.Second})
	notifier := notification.New(mailer, client, config.SlackWebhookURL())

	a.pool = workerpool.New("events", config.EventWorkers())
	a.closers = append(a.closers, func(context.Context) error { a.pool.Shutdown(); return nil })
	a.Events = event.New(a.pool)

	payments, err := services.NewPaymentGateway(config.PaymentDriver(), config.PaymentSecret(),
		config.PaymentAPIURL(), config.PaymentAPIKey(), client)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: payments: %w", err)
	}

	issuer := auth.NewIssuer(auth.Options{
		AccessSecret:  config.JWTSecret(),
		RefreshSecret: config.JWTRefreshSecret(),
		AccessTTL:     config.JWTAccessTTL(),
		RefreshTTL:    config.JWTRefreshTTL(),
		Issuer:        "pehnawa",
	})

	catalogCache := a.Cache
	if !config.CacheEnabled() {
		catalogCache = nil
	}
	a.Catalog = services.NewCatalogService(a.DB, catalogCache, a.Disk, a.Events)
	a.Orders = services.NewOrderService(a.DB, payments, a.Events, services.OrderConfig{
		FreeShippingThreshold: config.FreeShippingThreshold(),
		ShippingFee:           config.ShippingFee(),
	})
	authSvc := services.NewAuthService(a.DB, issuer)
	carts := services.NewCartService(a.DB)
	reports := services.NewReportService(a.DB, config.LowStockThreshold())

	jobs.Register(a.Queue, jobs.Deps{
		DB:                a.DB,
		Mailer:            mailer,
		Notifier:          notifier,
		StoreName:         config.StoreName(),
		AdminEmail:        config.AdminEmail(),
		LowStockThreshold: config.LowStockThreshold(),
	})

	a.Feed = sse.NewBroker()
	a.Stock = ws.NewHub(config.CORSOrigins())
	a.closers = append(a.closers, func(context.Context) error { a.Stock.Close(); return nil })
	listeners.Register(a.Events, listeners.Deps{
		Queue:   a.Queue,
		Feed:    a.Feed,
		Stock:   a.Stock,
		Catalog: a.Catalog,
	})

	schema, err := appgraphql.NewSchema(a.Catalog)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: graphql schema: %w", err)
	}

	a.limiter = middleware.NewRateLimiter(config.Int("AUTH_RATE_LIMIT", authRateMax), authRateWindow)
	h := routes.Handlers{
		Issuer:      issuer,
		Auth:        controllers.NewAuthController(authSvc, config.JWTRefreshTTL(), config.IsProduction()),
		Products:    controllers.NewProductController(a.Catalog),
		Categories:  controllers.NewCategoryController(a.Catalog),
		Collections: controllers.NewCollectionController(a.Catalog),
		Cart:        controllers.NewCartController(carts),
		Orders:      controllers.NewOrderController(a.Orders),
		Users:       controllers.NewUserController(authSvc),
		Admin:       controllers.NewAdminController(reports, a.Feed),
		Health:      controllers.NewHealthController(a.DB, a.Cache),
		AuthLimiter: a.limiter,
		GraphQL:     graphql.Handler(schema),
		Stock:       a.Stock,
		Metrics:     metrics.Handler(),
	}
	if local, ok := a.Disk.(*storage.LocalDisk); ok {
		h.Storage = http.StripPrefix("/storage", local.Handler())
	}
	a.Router = kernel.New(h, kernel.Options{CORSOrigins: config.CORSOrigins()})

	a.GRPC = grpc.NewServer(func(ctx context.Context) error { return database.Ping(ctx, a.DB) })

	a.Scheduler = schedule.New()
	if err := a.schedule(); err != nil {
		return nil, err
	}

	logger.Info("bootstrap: ready",
		"db", config.DatabaseDriver(),
		"cache", a.Cache != nil,
		"queue", config.QueueDriver(),
		"storage", config.StorageDefault(),
		"mail", config.MailDriver(),
		"payments", config.PaymentDriver(),
	)
	return a, nil
}

// observability attaches the Mongo log sink and the OTLP exporter when they
// are configured.
func (a *App) observability(ctx context.Context) error {
	if uri := config.MongoLogURI(); uri != "" {
		h, err := logger.NewMongoHandler(ctx, uri, config.MongoLogDB(), "logs", config.ServiceName())
		if err != nil {
			return fmt.Errorf("bootstrap: mongo log sink: %w", err)
		}
		logger.Attach(h)
		a.closers = append(a.closers, func(context.Context) error {
			logger.Reset()
			h.Close()
			return nil
		})
	}

	if endpoint := config.OTLPEndpoint(); endpoint != "" {
		shutdown, err := metrics.InitOTLP(ctx, metrics.OTLPConfig{
			Endpoint:    endpoint,
			Headers:     config.Get("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    config.Bool("OTEL_EXPORTER_OTLP_INSECURE", !config.IsProduction()),
			ServiceName: config.ServiceName(),
			Environment: config.AppEnv(),
			Interval:    config.Duration("OTEL_METRIC_EXPORT_INTERVAL", 30*time.Second),
		})
		if err != nil {
			return fmt.Errorf("bootstrap: otlp: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}
	return nil
}

// redis connects when the cache or the redis queue driver needs it. A cache
// that cannot connect is switched off; the redis queue cannot run without it.
func (a *App) redis(ctx context.Context) (*cache.Store, error) {
	needQueue := strings.EqualFold(config.QueueDriver(), "redis")
	if !config.CacheEnabled() && !needQueue {
		return nil, nil
	}
	store, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword(), keyPrefix)
	if err != nil {
		if needQueue {
			return nil, fmt.Errorf("bootstrap: redis: %w", err)
		}
		logger.Warn("bootstrap: cache disabled", "addr", config.RedisAddr(), "error", err)
		return nil, nil
	}
	a.Cache = store
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	return store, nil
}

func newQueue(db *gorm.DB, rdb *cache.Store) (*queue.Manager, error) {
	opts := queue.Options{
		MaxRetry: config.Int("QUEUE_MAX_RETRY", 3),
		Backoff:  config.Duration("QUEUE_BACKOFF", 2*time.Second),
		DB:       db,
	}
	switch strings.ToLower(config.QueueDriver()) {
	case "", "memory":
		return queue.New(queue.NewMemoryDriver(config.Int("QUEUE_BUFFER", 1024)), opts), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("bootstrap: redis queue needs REDIS_ADDR")
		}
		return queue.New(queue.NewRedisDriver(rdb.Client(), keyPrefix+"queue"), opts), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown queue driver %q", config.QueueDriver())
	}
}

// schedule registers the recurring tasks: the low-stock gauge every hour and
// the admin digest once a day.
func (a *App) schedule() error {
	threshold := config.LowStockThreshold()
	a.Scheduler.Every("stock.refresh_gauge", config.Duration("LOW_STOCK_GAUGE_INTERVAL", time.Hour), func(ctx context.Context) error {
		n, err := a.Catalog.CountLowStock(ctx, threshold)
		if err != nil {
			return err
		}
		metrics.SetLowStock(ctx, n)
		return nil
	})
	return a.Scheduler.Cron("stock.daily_digest", config.Get("LOW_STOCK_DIGEST_CRON", "0 8 * * *"), func(ctx context.Context) error {
		return a.Queue.Dispatch(ctx, &jobs.LowStockDigestJob{Limit: digestSize})
	})
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler { return a.Router.Handler() }

// StartWorkers runs the queue workers until ctx is cancelled.
func (a *App) StartWorkers(ctx context.Context) {
	a.Queue.Start(ctx, config.QueueWorkers())
}

// StartScheduler runs the scheduled tasks until ctx is cancelled.
func (a *App) StartScheduler(ctx context.Context) {
	a.goRun(ctx, a.Scheduler.Run)
}

// Start launches everything that runs beside the HTTP server: queue workers,
// the scheduler, the stock hub and the rate limiter sweeper.
func (a *App) Start(ctx context.Context) {
	a.StartWorkers(ctx)
	a.StartScheduler(ctx)
	a.goRun(ctx, a.Stock.Run)
	a.goRun(ctx, a.limiter.Run)
}

func (a *App) goRun(ctx context.Context, run func(context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		run(ctx)
	}()
}

// Wait blocks until the background goroutines started by Start have
// returned. Cancel the Start context first.
func (a *App) Wait() {
	a.wg.Wait()
	if a.Queue != nil {
		a.Queue.Wait()
	}
	if a.Scheduler != nil {
		a.Scheduler.Wait()
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("bootstrap: close", "error", err)
		}
	}
	a.closers = nil
}
