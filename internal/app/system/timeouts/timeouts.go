// Package timeouts provides centralized timeout values for storage and
// outbound operations.
//
// Content reads fail open to the empty document, so the Read timeout is also
// the longest a public request waits on a slow database.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultRead   = 5 * time.Second
	DefaultWrite  = 10 * time.Second
	DefaultNotify = 30 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var current = Config{
	Ping:   DefaultPing,
	Read:   DefaultRead,
	Write:  DefaultWrite,
	Notify: DefaultNotify,
}

// Config holds timeout configuration values. Zero fields keep their
// current value in Configure.
type Config struct {
	Ping   time.Duration // health checks
	Read   time.Duration // single-document and list reads
	Write  time.Duration // replaces and inserts
	Notify time.Duration // outbound email
}

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Ping
}

// Read returns the timeout for database reads.
func Read() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Read
}

// Write returns the timeout for database writes.
func Write() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Write
}

// Notify returns the timeout for sending a notification.
func Notify() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Notify
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		current.Ping = cfg.Ping
	}
	if cfg.Read > 0 {
		current.Read = cfg.Read
	}
	if cfg.Write > 0 {
		current.Write = cfg.Write
	}
	if cfg.Notify > 0 {
		current.Notify = cfg.Notify
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = Config{
		Ping:   DefaultPing,
		Read:   DefaultRead,
		Write:  DefaultWrite,
		Notify: DefaultNotify,
	}
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout creates a context with timeout. The returned cancel func logs
// a warning if the deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
