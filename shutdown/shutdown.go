// Package shutdown coordinates graceful teardown of batch dispatch.
//
// The CLI registers a handler that cancels the in-flight batch context;
// on SIGINT or SIGTERM the coordinator runs registered handlers in
// order so non-terminal conversations are recorded as cancelled
// instead of being lost.
package shutdown

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed during shutdown.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the shutdown timeout is reached. Implementations
	// should stop accepting work and record what was in flight.
	OnShutdown(ctx context.Context) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// Config configures the shutdown coordinator.
type Config struct {
	// Timeout bounds the whole shutdown sequence when triggered by a
	// signal or ShutdownWithTimeout(0). Default: 30 seconds.
	Timeout time.Duration

	// OnProgress is called as each handler completes. Can be used for
	// logging.
	OnProgress func(name string, took time.Duration, err error)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

type registration struct {
	name    string
	handler Handler
}
