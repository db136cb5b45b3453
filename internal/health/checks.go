package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Templates reports whether the template registry is loaded.
type Templates interface {
	Ready() bool
	Names() []string
	LoadedAt() time.Time
}

// TemplatesCheck is unhealthy until the first snapshot is loaded.
func TemplatesCheck(t Templates) CheckFunc {
	return func(context.Context) Check {
		if !t.Ready() {
			return Check{Status: StatusUnhealthy, Message: "templates not loaded"}
		}
		return Check{
			Status: StatusHealthy,
			Message: fmt.Sprintf("%d templates loaded at %s",
				len(t.Names()), t.LoadedAt().UTC().Format(time.RFC3339)),
		}
	}
}

// RedisCheck pings Redis. A failing Redis only degrades the service
// because the last loaded snapshot keeps serving.
func RedisCheck(client redis.UniversalClient) CheckFunc {
	return func(ctx context.Context) Check {
		if client == nil {
			return Check{Status: StatusDegraded, Message: "redis client is nil"}
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return Check{Status: StatusDegraded, Message: fmt.Sprintf("redis ping failed: %v", err)}
		}
		return Check{Status: StatusHealthy}
	}
}

// BreakerState reports a circuit breaker state.
type BreakerState interface {
	BreakerState() gobreaker.State
}

// BreakerCheck reports degraded while the breaker is not closed.
func BreakerCheck(b BreakerState) CheckFunc {
	return func(context.Context) Check {
		state := b.BreakerState()
		if state == gobreaker.StateClosed {
			return Check{Status: StatusHealthy}
		}
		return Check{Status: StatusDegraded, Message: "circuit breaker " + state.String()}
	}
}
