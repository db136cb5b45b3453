package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, e[i].Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates service configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a service configuration.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration and returns every problem found.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateLogging(&cfg.Logging)
	v.validateMetrics(&cfg.Metrics)
	v.validateTracing(&cfg.Tracing)
	v.validateTemplates(&cfg.Templates)
	v.validateRateLimit(&cfg.RateLimit)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(s *ServerConfig) {
	if s.Port < 1 || s.Port > 65535 {
		v.addError("server.port", fmt.Sprintf("port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 {
		v.addError("server.readTimeout", "must not be negative")
	}
	if s.WriteTimeout < 0 {
		v.addError("server.writeTimeout", "must not be negative")
	}
	if s.MaxBodySize < 0 {
		v.addError("server.maxBodySize", "must not be negative")
	}
}

func (v *Validator) validateLogging(l *LoggingConfig) {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", "level must be debug, info, warn or error")
	}
	switch l.Format {
	case "json", "console":
	default:
		v.addError("logging.format", "format must be json or console")
	}
}

func (v *Validator) validateMetrics(m *MetricsConfig) {
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		v.addError("metrics.path", "path must start with '/'")
	}
}

func (v *Validator) validateTracing(t *TracingConfig) {
	if t.SamplingRate < 0 || t.SamplingRate > 1 {
		v.addError("tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
	if t.Enabled && t.ServiceName == "" {
		v.addError("tracing.serviceName", "serviceName is required when tracing is enabled")
	}
}

func (v *Validator) validateTemplates(t *TemplatesConfig) {
	if t.RefreshInterval < 0 {
		v.addError("templates.refreshInterval", "must not be negative")
	}

	switch t.Source {
	case SourceFile:
		if t.Dir == "" {
			v.addError("templates.dir", "dir is required for the file source")
		}
	case SourceRedis:
		if t.Watch {
			v.addError("templates.watch", "watch is only supported by the file source")
		}
		if t.Redis.Address == "" {
			v.addError("templates.redis.address", "address is required for the redis source")
		}
		if t.Redis.Key == "" {
			v.addError("templates.redis.key", "key is required for the redis source")
		}
		if t.Redis.DB < 0 {
			v.addError("templates.redis.db", "db must not be negative")
		}
		if t.Redis.Breaker.FailureThreshold == 0 {
			v.addError("templates.redis.breaker.failureThreshold", "failureThreshold must be positive")
		}
	default:
		v.addError("templates.source", fmt.Sprintf("source must be %q or %q", SourceFile, SourceRedis))
	}
}

func (v *Validator) validateRateLimit(r *RateLimitConfig) {
	if !r.Enabled {
		return
	}
	if r.RequestsPerSecond <= 0 {
		v.addError("rateLimit.requestsPerSecond", "requestsPerSecond must be positive")
	}
	if r.Burst <= 0 {
		v.addError("rateLimit.burst", "burst must be positive")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
