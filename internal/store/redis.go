package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/paramgw/internal/config"
	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

var redisTracer = otel.Tracer("paramgw/store")

// BreakerStateFunc is called when the Redis circuit breaker changes state.
// state is 0 for closed, 1 for half-open and 2 for open.
type BreakerStateFunc func(name string, state int)

// RedisSource loads definitions stored as YAML or JSON strings in a Redis
// hash, one hash field per template name. Calls go through a circuit
// breaker so an unavailable Redis fails fast.
type RedisSource struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
	onState BreakerStateFunc
}

// RedisOption is a functional option for configuring the RedisSource.
type RedisOption func(*RedisSource)

// WithRedisLogger sets the logger for the source.
func WithRedisLogger(logger observability.Logger) RedisOption {
	return func(s *RedisSource) {
		s.logger = logger
	}
}

// WithBreakerStateCallback sets a callback for circuit breaker state changes.
func WithBreakerStateCallback(fn BreakerStateFunc) RedisOption {
	return func(s *RedisSource) {
		s.onState = fn
	}
}

// NewRedisSource creates a RedisSource reading the hash cfg.Key through client.
func NewRedisSource(client redis.UniversalClient, cfg config.RedisConfig, opts ...RedisOption) *RedisSource {
	s := &RedisSource{
		client:  client,
		key:     cfg.Key,
		timeout: cfg.Timeout.Duration(),
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-templates",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval.Duration(),
		Timeout:     cfg.Breaker.Timeout.Duration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			if s.onState != nil {
				s.onState(name, int(to))
			}
		},
	})

	return s
}

// NewRedisClient creates a go-redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout.Duration(),
		ReadTimeout:  cfg.Timeout.Duration(),
		WriteTimeout: cfg.Timeout.Duration(),
	})
}

// Kind implements Source.
func (s *RedisSource) Kind() string {
	return config.SourceRedis
}

// BreakerState returns the current circuit breaker state.
func (s *RedisSource) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// Load implements Source.
func (s *RedisSource) Load(ctx context.Context) (map[string]*template.Definition, error) {
	ctx, span := redisTracer.Start(ctx, "store.redis.load",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("store.redis.key", s.key),
		),
	)
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.HGetAll(ctx, s.key).Result()
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read templates from redis hash %s: %w", s.key, err)
	}

	entries, _ := result.(map[string]string)
	span.SetAttributes(attribute.Int("store.templates_count", len(entries)))

	defs := make(map[string]*template.Definition, len(entries))
	for field, raw := range entries {
		def, err := parseNamed([]byte(raw), field)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("redis hash %s field %s: %w", s.key, field, err)
		}
		// The hash field is authoritative for Redis-held definitions.
		if def.Name != field {
			s.logger.Debug("template name differs from hash field, using field",
				observability.String("field", field),
				observability.String("name", def.Name),
			)
			def.Name = field
		}
		defs[field] = def
	}

	return defs, nil
}

// Close closes the underlying Redis client.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
