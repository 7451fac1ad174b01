package swarm

import (
	"time"

	"github.com/vinayprograms/gptswarm/errors"
)

// maxDefaultWorkers caps the worker count chosen when the caller does
// not set one. Beyond this, extra in-flight requests only pile up on
// the admission controller.
const maxDefaultWorkers = 32

// Config configures a dispatch engine run.
type Config struct {
	// TokensPerMinute is the provider's token quota per accounting window.
	TokensPerMinute int `toml:"tokens_per_minute"`

	// RequestsPerMinute is the provider's request quota per accounting window.
	RequestsPerMinute int `toml:"requests_per_minute"`

	// ModelTokenSize is the upper-bound token estimate charged per
	// request at admission time. True usage is only known after the
	// response returns.
	ModelTokenSize int `toml:"model_token_size"`

	// WorkerCount bounds how many requests are in flight concurrently.
	// Zero means min(batch size, 32). The pool bounds concurrency, the
	// admission controller bounds throughput.
	WorkerCount int `toml:"worker_count"`

	// MaxRetries bounds retries per job. Rate-limit and transient
	// failures count on separate counters, each capped at MaxRetries.
	// Zero means a single attempt with no retry.
	MaxRetries int `toml:"max_retries"`

	// BackoffBase is the starting delay for exponential backoff
	// (base * 2^attempt, capped at MaxBackoff, plus jitter).
	BackoffBase time.Duration `toml:"backoff_base"`

	// MaxBackoff caps a single backoff sleep.
	MaxBackoff time.Duration `toml:"max_backoff"`

	// Window is the rate accounting period. Default one minute; tests
	// use shorter windows.
	Window time.Duration `toml:"window"`
}

// DefaultConfig returns a configuration with conservative defaults.
// Rate quotas have no meaningful default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		ModelTokenSize: 8192,
		MaxRetries:     3,
		BackoffBase:    time.Second,
		MaxBackoff:     30 * time.Second,
		Window:         time.Minute,
	}
}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.Window == 0 {
		c.Window = time.Minute
	}
}

// Validate checks the configuration. Called before any dispatch so a
// bad configuration aborts the batch instead of failing jobs one by one.
func (c *Config) Validate() error {
	if c.TokensPerMinute <= 0 {
		return errors.Config("tokens_per_minute must be positive")
	}
	if c.RequestsPerMinute <= 0 {
		return errors.Config("requests_per_minute must be positive")
	}
	if c.ModelTokenSize <= 0 {
		return errors.Config("model_token_size must be positive")
	}
	if c.WorkerCount < 0 {
		return errors.Config("worker_count cannot be negative")
	}
	if c.MaxRetries < 0 {
		return errors.Config("max_retries cannot be negative")
	}
	if c.BackoffBase < 0 || c.MaxBackoff < 0 || c.Window < 0 {
		return errors.Config("durations cannot be negative")
	}
	return nil
}

// workersFor resolves the effective worker count for a batch.
func (c *Config) workersFor(batchSize int) int {
	if c.WorkerCount > 0 {
		return c.WorkerCount
	}
	if batchSize < maxDefaultWorkers {
		return batchSize
	}
	return maxDefaultWorkers
}
