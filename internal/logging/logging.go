// Package logging provides categorized zap loggers for the Helios console.
// Each subsystem logs under its own named logger so log output can be
// filtered per category.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup and configuration
	CategoryAPI     Category = "api"     // Backend HTTP calls
	CategorySession Category = "session" // Query lifecycle and message store
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process logger. Level is one of debug, info, warn, error;
// development switches to the human-readable console encoder.
func Init(level string, development bool) error {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	mu.Lock()
	base = logger
	mu.Unlock()
	return nil
}

// Get returns the named logger for a category. Before Init it returns a
// no-op logger, so packages can log unconditionally.
func Get(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(string(category))
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
