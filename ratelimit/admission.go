package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	swarmerrors "github.com/vinayprograms/gptswarm/errors"
)

// Common errors.
var (
	ErrClosed        = errors.New("admission controller closed")
	ErrInvalidConfig = errors.New("invalid admission configuration")
)

// minWake bounds how soon a sleeping waiter is re-checked. Clock and
// timer granularity make shorter sleeps busy-loops in practice.
const minWake = 10 * time.Millisecond

// Config configures an Admission controller.
type Config struct {
	// TokensPerWindow is the token capacity of one accounting window.
	TokensPerWindow int

	// RequestsPerWindow is the request capacity of one accounting window.
	RequestsPerWindow int

	// Window is the accounting period. Default: one minute.
	Window time.Duration

	// OnWindowReset, if set, is notified with the spent counts each
	// time a window rolls over. Called on its own goroutine; must not
	// call back into the controller synchronously.
	OnWindowReset func(tokensSpent, requestsSpent int)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.TokensPerWindow <= 0 || c.RequestsPerWindow <= 0 {
		return ErrInvalidConfig
	}
	if c.Window < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Usage aggregates what the controller has observed across the run.
// Actual token usage reported after completion feeds these counters
// only; it never adjusts budget already granted.
type Usage struct {
	// Granted is the number of admissions granted.
	Granted int

	// Deferred is the number of times a caller had to wait for a
	// window rollover before being granted.
	Deferred int

	// EstimatedTokens is the sum of token estimates charged at admission.
	EstimatedTokens int

	// ActualTokens is the sum of true usage reported after completion.
	ActualTokens int
}

// Admission gates dispatch against the shared token/request budget.
// Callers block in Acquire until their request fits in the current
// window. The check-and-charge is a single critical section: no two
// callers can both observe room and over-admit.
type Admission struct {
	mu     sync.Mutex
	cond   *sync.Cond
	budget *Budget
	usage  Usage
	closed bool

	onReset func(tokensSpent, requestsSpent int)
	nowFunc func() time.Time // for testing
}

// NewAdmission creates an admission controller.
func NewAdmission(cfg Config) (*Admission, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}

	a := &Admission{
		budget:  NewBudget(cfg.TokensPerWindow, cfg.RequestsPerWindow, cfg.Window),
		onReset: cfg.OnWindowReset,
		nowFunc: time.Now,
	}
	a.cond = sync.NewCond(&a.mu)
	return a, nil
}

// Acquire blocks until one request spending estimatedTokens fits in the
// current window, then charges both counters and returns. Returns the
// context's error if it ends first, ErrClosed if the controller is
// closed, and a permanent admission-impossible error if the estimate
// can never fit in a whole window.
func (a *Admission) Acquire(ctx context.Context, estimatedTokens int) error {
	// Watch for context cancellation while blocked on the cond.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			a.cond.Broadcast()
			a.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	a.mu.Lock()
	defer a.mu.Unlock()

	for {
		if a.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Capacity may shrink while waiting, so re-check every pass.
		if estimatedTokens > a.budget.TokensCapacity() {
			return swarmerrors.AdmissionImpossible(estimatedTokens, a.budget.TokensCapacity())
		}

		now := a.nowFunc()
		if a.budget.Expired(now) {
			a.reset(now)
		}

		if a.budget.Fits(estimatedTokens) {
			a.budget.Spend(estimatedTokens)
			a.usage.Granted++
			a.usage.EstimatedTokens += estimatedTokens
			return nil
		}

		// Current window is full for this caller. Sleep until the
		// rollover, then re-evaluate under the lock.
		a.usage.Deferred++
		wait := a.budget.TimeToReset(now)
		if wait < minWake {
			wait = minWake
		}
		go func(d time.Duration) {
			time.Sleep(d)
			a.mu.Lock()
			a.cond.Broadcast()
			a.mu.Unlock()
		}(wait)
		a.cond.Wait()
	}
}

// reset rolls the window over. Caller holds the lock.
func (a *Admission) reset(now time.Time) {
	tokensSpent, requestsSpent := a.budget.Reset(now)
	a.cond.Broadcast()
	if a.onReset != nil && (tokensSpent > 0 || requestsSpent > 0) {
		go a.onReset(tokensSpent, requestsSpent)
	}
}

// TryAcquire attempts a non-blocking admission.
func (a *Admission) TryAcquire(estimatedTokens int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || estimatedTokens > a.budget.TokensCapacity() {
		return false
	}

	now := a.nowFunc()
	if a.budget.Expired(now) {
		a.reset(now)
	}

	if a.budget.Fits(estimatedTokens) {
		a.budget.Spend(estimatedTokens)
		a.usage.Granted++
		a.usage.EstimatedTokens += estimatedTokens
		return true
	}
	return false
}

// ReportUsage records actual token consumption observed after a
// completed request. Metrics only; granted budget is never re-charged.
func (a *Admission) ReportUsage(actualTokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.ActualTokens += actualTokens
}

// Usage returns a copy of the usage counters.
func (a *Admission) Usage() Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// Snapshot returns the current budget state.
func (a *Admission) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.budget.Snapshot()
}

// ShrinkTokens reduces the token capacity to capacity*factor, floored
// at the given minimum so jobs that were admissible stay admissible.
// Used when the provider rate-limits despite local admission. Returns
// the new capacity.
func (a *Admission) ShrinkTokens(factor float64, floor int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	newCapacity := int(float64(a.budget.TokensCapacity()) * factor)
	if newCapacity < floor {
		newCapacity = floor
	}
	a.budget.SetTokensCapacity(newCapacity)
	return newCapacity
}

// Close shuts down the controller and wakes all waiters.
func (a *Admission) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	a.closed = true
	a.cond.Broadcast()
	return nil
}
