package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidationErrors when any fail.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !oneOf(c.Log.Level, "debug", "info", "warn", "error") {
		add("log.level", c.Log.Level, "must be one of: debug, info, warn, error")
	}
	if !oneOf(c.Log.Format, "auto", "text", "json") {
		add("log.format", c.Log.Format, "must be one of: auto, text, json")
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "badger":
		if strings.TrimSpace(c.Store.Path) == "" {
			add("store.path", c.Store.Path, "required for "+c.Store.Driver)
		}
	default:
		add("store.driver", c.Store.Driver, "must be one of: memory, sqlite, badger")
	}

	if c.Store.GCInterval != "" {
		if d, err := time.ParseDuration(c.Store.GCInterval); err != nil || d <= 0 {
			add("store.gc_interval", c.Store.GCInterval, "must be a positive duration")
		}
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		add("http.addr", c.HTTP.Addr, "must not be empty")
	}
	if c.HTTP.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(c.HTTP.ShutdownTimeout); err != nil || d <= 0 {
			add("http.shutdown_timeout", c.HTTP.ShutdownTimeout, "must be a positive duration")
		}
	}

	if c.HTTP.RateLimit < 0 {
		add("http.rate_limit", c.HTTP.RateLimit, "must not be negative")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst <= 0 {
		add("http.rate_burst", c.HTTP.RateBurst, "must be positive when rate_limit is set")
	}

	if !oneOf(c.Rules.Engine, "expr", "cel", "js") {
		add("rules.engine", c.Rules.Engine, "must be one of: expr, cel, js")
	}
	if c.Rules.CacheSize < 0 {
		add("rules.cache_size", c.Rules.CacheSize, "must not be negative")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ShutdownTimeoutDuration parses http.shutdown_timeout, defaulting to ten seconds.
func (c HTTPConfig) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GCIntervalDuration parses store.gc_interval, defaulting to ten minutes.
func (c StoreConfig) GCIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.GCInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

func oneOf(value string, allowed ...string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}
