package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Coordinator runs registered handlers once, in registration order,
// when shutdown is triggered by a call or an OS signal.
type Coordinator struct {
	config Config

	mu           sync.Mutex
	handlers     []registration
	shutdownOnce sync.Once
	shutdownErr  error
	done         chan struct{}
	signalChan   chan os.Signal
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(config Config) *Coordinator {
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Coordinator{
		config:     config,
		done:       make(chan struct{}),
		signalChan: make(chan os.Signal, 1),
	}
}

// Register adds a handler to be called during shutdown.
func (c *Coordinator) Register(name string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: handler})
}

// RegisterFunc registers a plain function as a handler.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, HandlerFunc(fn))
}

// Shutdown runs all registered handlers in registration order.
// Returns ErrAlreadyShutdown if called more than once while a shutdown
// is still in progress.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	var err error
	c.shutdownOnce.Do(func() {
		err = c.doShutdown(ctx)
		c.shutdownErr = err
		close(c.done)
	})

	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return ErrAlreadyShutdown
	}
}

// ShutdownWithTimeout initiates shutdown bounded by the given timeout.
// A zero timeout uses the configured default.
func (c *Coordinator) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout == 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals starts listening for SIGTERM and SIGINT. The first
// signal received triggers shutdown with the configured timeout.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signalChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-c.signalChan
		_ = c.ShutdownWithTimeout(c.config.Timeout)
	}()
}

// Done returns a channel that is closed when shutdown is complete.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns any error from shutdown. Only valid after Done closes.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return nil
	}
}

// Trigger injects a synthetic signal. Useful in tests.
func (c *Coordinator) Trigger() {
	select {
	case c.signalChan <- syscall.SIGTERM:
	default:
	}
}

func (c *Coordinator) doShutdown(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	var overallErr error
	for _, reg := range handlers {
		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}

		start := time.Now()
		err := reg.handler.OnShutdown(ctx)
		if c.config.OnProgress != nil {
			c.config.OnProgress(reg.name, time.Since(start), err)
		}
		if err != nil && overallErr == nil {
			overallErr = ErrHandlerFailed
		}
	}
	return overallErr
}
