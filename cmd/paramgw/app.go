package main

import (
	"context"
	"fmt"

	"github.com/vyrodovalexey/paramgw/internal/config"
	"github.com/vyrodovalexey/paramgw/internal/health"
	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/server"
	"github.com/vyrodovalexey/paramgw/internal/server/middleware"
	"github.com/vyrodovalexey/paramgw/internal/store"
	"github.com/vyrodovalexey/paramgw/internal/transform"
)

// application holds all application components.
type application struct {
	config      *config.Config
	server      *server.Server
	store       *store.Store
	watcher     *store.Watcher
	redisSource *store.RedisSource
	rateLimiter *middleware.RateLimiter
	checker     *health.Checker
	metrics     *observability.Metrics
	tracer      *observability.Tracer
}

// newApplication wires every component from configuration.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		metrics: observability.NewMetrics("paramgw"),
		checker: health.NewChecker(version),
	}

	app.metrics.SetBuildInfo(version, gitCommit, buildTime)
	app.metrics.InitVecMetrics(cfg.Templates.Source)

	transformMetrics := transform.GetTransformMetrics()
	transformMetrics.MustRegister(app.metrics.Registry())
	transformMetrics.Init()
	health.GetHealthMetrics().MustRegister(app.metrics.Registry())

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	app.tracer = tracer

	source, err := app.newSource(logger)
	if err != nil {
		return nil, err
	}

	app.store = store.New(source,
		store.WithLogger(logger),
		store.WithStrict(cfg.Templates.Strict),
		store.WithRefreshInterval(cfg.Templates.RefreshInterval.Duration()),
		store.WithRecorder(app.metrics),
	)
	app.checker.RegisterCheck("templates", health.TemplatesCheck(app.store))

	if cfg.Templates.Source == config.SourceFile && cfg.Templates.Watch {
		fileSource, _ := source.(*store.FileSource)
		app.watcher, err = store.NewWatcher(fileSource.Dir(), app.store, store.WithWatcherLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create template watcher: %w", err)
		}
	}

	app.rateLimiter = middleware.NewRateLimiterFromConfig(cfg.RateLimit,
		middleware.WithRateLimiterLogger(logger),
		middleware.WithLimitedCallback(app.metrics.RecordRateLimitHit),
	)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithHealthChecker(app.checker),
		server.WithRateLimiter(app.rateLimiter),
	}
	if tracer.Enabled() {
		opts = append(opts, server.WithTracerProvider(tracer.Provider()))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(app.metrics, cfg.Metrics.Path))
	}

	transformer := transform.New(logger, transform.WithTracer(tracer.Tracer(transform.TracerName)))
	app.server = server.New(cfg.Server, app.store, transformer, opts...)
	return app, nil
}

func (app *application) newSource(logger observability.Logger) (store.Source, error) {
	tc := app.config.Templates
	if tc.Source != config.SourceRedis {
		return store.NewFileSource(tc.Dir)
	}

	client := store.NewRedisClient(tc.Redis)
	app.redisSource = store.NewRedisSource(client, tc.Redis,
		store.WithRedisLogger(logger),
		store.WithBreakerStateCallback(app.metrics.SetCircuitBreakerState),
	)
	app.checker.RegisterCheck("redis", health.RedisCheck(client))
	app.checker.RegisterCheck("redis-breaker", health.BreakerCheck(app.redisSource))
	return app.redisSource, nil
}

// start loads templates and starts background refresh.
func (app *application) start(ctx context.Context) error {
	if err := app.store.Start(ctx); err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	if app.watcher != nil {
		if err := app.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start template watcher: %w", err)
		}
	}
	return nil
}
