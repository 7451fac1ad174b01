package ratelimit

import "time"

// Budget tracks token and request consumption within one fixed window.
// It is pure accounting: no locking, no clock, no I/O. Admission owns
// the single Budget instance and serializes all access to it.
//
// The window is anchored at the first grant rather than at calendar
// minutes: the first call to Reset stamps the window start, and the
// window rolls over once Window has elapsed since that stamp.
type Budget struct {
	windowStart   time.Time
	tokensUsed    int
	requestsUsed  int

	tokensCapacity   int
	requestsCapacity int
	window           time.Duration
}

// NewBudget creates a budget with the given per-window capacities.
func NewBudget(tokensCapacity, requestsCapacity int, window time.Duration) *Budget {
	return &Budget{
		tokensCapacity:   tokensCapacity,
		requestsCapacity: requestsCapacity,
		window:           window,
	}
}

// Expired reports whether the current window has elapsed (or was never
// opened) at the given instant.
func (b *Budget) Expired(now time.Time) bool {
	if b.windowStart.IsZero() {
		return true
	}
	return now.Sub(b.windowStart) >= b.window
}

// Reset opens a fresh window at the given instant and returns the
// token and request counts that were spent in the closed window.
func (b *Budget) Reset(now time.Time) (tokensSpent, requestsSpent int) {
	tokensSpent, requestsSpent = b.tokensUsed, b.requestsUsed
	b.windowStart = now
	b.tokensUsed = 0
	b.requestsUsed = 0
	return tokensSpent, requestsSpent
}

// Fits reports whether one request spending estimatedTokens fits in the
// remaining window budget.
func (b *Budget) Fits(estimatedTokens int) bool {
	return b.requestsUsed+1 <= b.requestsCapacity &&
		b.tokensUsed+estimatedTokens <= b.tokensCapacity
}

// Spend charges one request and estimatedTokens against the window.
// Callers must check Fits first; Spend does not re-validate.
func (b *Budget) Spend(estimatedTokens int) {
	b.requestsUsed++
	b.tokensUsed += estimatedTokens
}

// TimeToReset returns how long until the current window rolls over.
// Zero if the window is already expired or was never opened.
func (b *Budget) TimeToReset(now time.Time) time.Duration {
	if b.Expired(now) {
		return 0
	}
	return b.windowStart.Add(b.window).Sub(now)
}

// TokensCapacity returns the token capacity per window.
func (b *Budget) TokensCapacity() int {
	return b.tokensCapacity
}

// RequestsCapacity returns the request capacity per window.
func (b *Budget) RequestsCapacity() int {
	return b.requestsCapacity
}

// SetTokensCapacity replaces the token capacity. Consumption already
// charged in the open window is kept as-is.
func (b *Budget) SetTokensCapacity(capacity int) {
	b.tokensCapacity = capacity
}

// Snapshot is a point-in-time copy of budget state for observation.
type Snapshot struct {
	WindowStart      time.Time
	TokensUsed       int
	RequestsUsed     int
	TokensCapacity   int
	RequestsCapacity int
	Window           time.Duration
}

// Snapshot returns a copy of the current budget state.
func (b *Budget) Snapshot() Snapshot {
	return Snapshot{
		WindowStart:      b.windowStart,
		TokensUsed:       b.tokensUsed,
		RequestsUsed:     b.requestsUsed,
		TokensCapacity:   b.tokensCapacity,
		RequestsCapacity: b.requestsCapacity,
		Window:           b.window,
	}
}
