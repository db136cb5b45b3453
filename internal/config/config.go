package config

import (
	"fmt"
	"time"
)

// Template source kinds.
const (
	SourceFile  = "file"
	SourceRedis = "redis"
)

// DefaultRefreshInterval is how often template definitions are reloaded.
const DefaultRefreshInterval = 10 * time.Minute

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
	Templates TemplatesConfig `yaml:"templates" json:"templates"`
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string   `yaml:"address" json:"address"`
	Port            int      `yaml:"port" json:"port"`
	ReadTimeout     Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`

	// MaxBodySize limits request bodies in bytes. Zero disables the limit.
	MaxBodySize int64 `yaml:"maxBodySize" json:"maxBodySize"`
}

// ListenAddress returns the host:port the server binds to.
func (s ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
}

// TemplatesConfig configures where template definitions come from.
type TemplatesConfig struct {
	// Source is "file" or "redis".
	Source string `yaml:"source" json:"source"`

	// Dir is the template directory of the file source.
	Dir string `yaml:"dir" json:"dir"`

	// Watch reloads the file source when files in Dir change.
	Watch bool `yaml:"watch" json:"watch"`

	// Strict rejects definitions that fail validation instead of logging them.
	Strict bool `yaml:"strict" json:"strict"`

	// RefreshInterval is the periodic reload interval. Zero disables it.
	RefreshInterval Duration `yaml:"refreshInterval" json:"refreshInterval"`

	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the Redis template source.
type RedisConfig struct {
	Address  string   `yaml:"address" json:"address"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	Key      string   `yaml:"key" json:"key"`
	Timeout  Duration `yaml:"timeout" json:"timeout"`

	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
}

// BreakerConfig configures the circuit breaker guarding Redis.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32 `yaml:"failureThreshold" json:"failureThreshold"`

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32 `yaml:"maxRequests" json:"maxRequests"`

	// Interval is the cyclic period for clearing counts while closed.
	Interval Duration `yaml:"interval" json:"interval"`

	// Timeout is how long the breaker stays open.
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	RequestsPerSecond int  `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int  `yaml:"burst" json:"burst"`

	// PerClient keeps one bucket per X-ClientId (or client IP).
	PerClient bool `yaml:"perClient" json:"perClient"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(120 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBodySize:     10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			SamplingRate: 1.0,
			ServiceName:  "paramgw",
		},
		Templates: TemplatesConfig{
			Source:          SourceFile,
			Dir:             "templates",
			RefreshInterval: Duration(DefaultRefreshInterval),
			Redis: RedisConfig{
				Address: "localhost:6379",
				Key:     "paramgw:templates",
				Timeout: Duration(5 * time.Second),
				Breaker: BreakerConfig{
					FailureThreshold: 5,
					MaxRequests:      1,
					Interval:         Duration(time.Minute),
					Timeout:          Duration(30 * time.Second),
				},
			},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			PerClient:         true,
		},
	}
}
