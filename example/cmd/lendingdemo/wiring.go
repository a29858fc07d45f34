package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
	"github.com/AntonStoeckl/library-lending-go/lending/promadapters"
	"github.com/AntonStoeckl/library-lending-go/notification"
	"github.com/AntonStoeckl/library-lending-go/readerregistry"
)

const (
	lookupMaxAttempts    = 3
	lookupRetryBaseDelay = 20 * time.Millisecond
)

type closer func(ctx context.Context) error

// app holds the wired manager plus what the scenario needs to administer readers.
type app struct {
	manager            *lending.Manager
	readers            readerAdmin
	promRegistry       *prometheus.Registry
	metrics            lending.MetricsCollector
	logger             *oteladapters.SlogBridgeLogger
	notificationErrors atomic.Int64
	closers            []closer
}

// readerAdmin registers and cancels readers in whichever store backs the activity checker.
type readerAdmin struct {
	register func(ctx context.Context, readerID string) error
	cancel   func(ctx context.Context, readerID string) error
}

func newApp(ctx context.Context, cfg config.Config, logOutput io.Writer) (*app, error) {
	a := &app{}

	if err := a.wire(ctx, cfg, logOutput); err != nil {
		_ = a.close(context.Background())
		return nil, err
	}

	return a, nil
}

func (a *app) wire(ctx context.Context, cfg config.Config, logOutput io.Writer) error {
	handler, err := config.NewSlogHandler(logOutput, cfg.LogLevel)
	if err != nil {
		return err
	}

	a.logger = oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	providers, err := config.NewObservabilityProviders(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}

	a.closers = append(a.closers, providers.Shutdown)

	switch cfg.MetricsBackend {
	case config.MetricsPrometheus:
		a.promRegistry = prometheus.NewRegistry()
		a.metrics = promadapters.NewMetricsCollector(a.promRegistry,
			promadapters.WithHelp(readerregistry.LookupFailuresMetric, "Reader activity lookups that failed after their last attempt"),
			promadapters.WithHelp(readerregistry.LookupRetriesMetric, "Reader activity lookup attempts that were retried"),
		)
	default:
		a.metrics = oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(cfg.ServiceName))
	}

	checker, err := a.buildActivityChecker(ctx, cfg)
	if err != nil {
		return err
	}

	notifier, err := a.buildNotifier(cfg)
	if err != nil {
		return err
	}

	a.manager, err = lending.NewManager(checker, notifier,
		lending.WithContextualLogger(a.logger),
		lending.WithMetrics(a.metrics),
		lending.WithTracing(oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(cfg.ServiceName))),
	)

	return err
}

func (a *app) buildActivityChecker(ctx context.Context, cfg config.Config) (lending.ActivityChecker, error) {
	options := []readerregistry.Option{
		readerregistry.WithContextualLogger(a.logger),
		readerregistry.WithMetrics(a.metrics),
		readerregistry.WithTableName(cfg.ReadersTable),
		readerregistry.WithRetry(lookupMaxAttempts, lookupRetryBaseDelay),
	}

	var (
		checker lending.ActivityChecker
		err     error
	)

	switch cfg.ActivityBackend {
	case config.BackendRedis:
		checker, err = a.buildRedisChecker(ctx, cfg, options)
	default:
		checker, err = a.buildSQLChecker(ctx, cfg, options)
	}

	if err != nil {
		return nil, err
	}

	if cfg.ActivityCacheSize == 0 {
		return checker, nil
	}

	cached, err := readerregistry.NewCachedChecker(checker, cfg.ActivityCacheSize, cfg.ActivityCacheTTL,
		readerregistry.WithContextualLogger(a.logger),
		readerregistry.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, err
	}

	register, cancel := a.readers.register, a.readers.cancel
	a.readers = readerAdmin{
		register: func(ctx context.Context, readerID string) error {
			defer cached.Invalidate(readerID)
			return register(ctx, readerID)
		},
		cancel: func(ctx context.Context, readerID string) error {
			defer cached.Invalidate(readerID)
			return cancel(ctx, readerID)
		},
	}

	return cached, nil
}

func (a *app) buildSQLChecker(ctx context.Context, cfg config.Config, options []readerregistry.Option) (*readerregistry.SQLChecker, error) {
	var (
		checker *readerregistry.SQLChecker
		err     error
	)

	if cfg.ActivityBackend == config.BackendSQLite {
		db, openErr := config.OpenSQLite(ctx, cfg.SQLitePath)
		if openErr != nil {
			return nil, openErr
		}

		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		options = append(options, readerregistry.WithDialect(readerregistry.DialectSQLite))
		checker, err = readerregistry.NewSQLCheckerFromSQLDB(db, options...)
	} else {
		checker, err = a.openPostgresChecker(ctx, cfg, options)
	}

	if err != nil {
		return nil, err
	}

	if err := checker.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure readers schema: %w", err)
	}

	a.readers = readerAdmin{
		register: func(ctx context.Context, readerID string) error {
			return checker.Register(ctx, readerID, now())
		},
		cancel: func(ctx context.Context, readerID string) error {
			return checker.Cancel(ctx, readerID, now())
		},
	}

	return checker, nil
}

func (a *app) openPostgresChecker(ctx context.Context, cfg config.Config, options []readerregistry.Option) (*readerregistry.SQLChecker, error) {
	switch cfg.PostgresDriver {
	case config.DriverSQL:
		db, err := config.OpenPostgresSQLDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		return readerregistry.NewSQLCheckerFromSQLDB(db, options...)

	case config.DriverSQLX:
		db, err := config.OpenPostgresSQLX(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		return readerregistry.NewSQLCheckerFromSQLX(db, options...)

	default:
		pool, err := config.OpenPostgresPGXPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})

		return readerregistry.NewSQLCheckerFromPGXPool(pool, options...)
	}
}

func (a *app) buildRedisChecker(ctx context.Context, cfg config.Config, options []readerregistry.Option) (*readerregistry.RedisChecker, error) {
	client, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, func(context.Context) error { return client.Close() })

	checker, err := readerregistry.NewRedisChecker(client, options...)
	if err != nil {
		return nil, err
	}

	a.readers = readerAdmin{register: checker.Register, cancel: checker.Cancel}

	return checker, nil
}

func (a *app) buildNotifier(cfg config.Config) (lending.Notifier, error) {
	logNotifier, err := notification.NewLogNotifier(a.logger)
	if err != nil {
		return nil, err
	}

	if cfg.NotificationsFile == "" {
		return logNotifier, nil
	}

	file, err := os.OpenFile(cfg.NotificationsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open notifications file: %w", err)
	}

	a.closers = append(a.closers, func(context.Context) error { return file.Close() })

	jsonNotifier, err := notification.NewJSONNotifier(file,
		notification.WithLogger(a.logger),
		notification.WithErrorHandler(func(context.Context, string, error) {
			a.notificationErrors.Add(1)
		}),
	)
	if err != nil {
		return nil, err
	}

	return notification.NewMultiNotifier(logNotifier, jsonNotifier)
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	a.closers = nil

	return errors.Join(errs...)
}
