package errors

// ErrorCategory classifies errors by their nature and retry semantics.
// The worker's retry policy is driven entirely by category: resource
// errors retry on the rate-limit counter, transient errors retry on the
// transient counter, everything else fails the job immediately.
type ErrorCategory string

const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: network timeouts, 5xx responses, temporary unavailability.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: malformed requests, authentication failures, content policy.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates provider-side throughput exhaustion.
	// Examples: 429 responses, quota exceeded.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates bugs or invariant violations in the engine.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Request round trip timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // Provider temporarily unavailable
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR" // Network connectivity issue
	ErrCodeServerErr   ErrorCode = "SERVER_ERR"  // Provider returned a 5xx

	// Permanent errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Malformed or invalid request
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"  // Authentication failed
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"     // Authorization or content policy denied
	ErrCodeBilling      ErrorCode = "BILLING"       // Billing, payment, or credits problem
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Batch was cancelled
	ErrCodeConfig       ErrorCode = "CONFIG"        // Invalid engine configuration

	// Resource errors
	ErrCodeRateLimit ErrorCode = "RATE_LIMITED" // Provider rate limit exceeded

	// Internal errors
	ErrCodeInternal  ErrorCode = "INTERNAL"  // Unexpected internal error
	ErrCodeAssertion ErrorCode = "ASSERTION" // Invariant violation (e.g. slot written twice)

	// Admission errors
	// A single request's estimated cost exceeds the whole token window;
	// waiting would never succeed, so this is permanent by category.
	ErrCodeAdmissionImpossible ErrorCode = "ADMISSION_IMPOSSIBLE"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr, ErrCodeServerErr:
		return CategoryTransient

	case ErrCodeInvalidInput, ErrCodeUnauthorized, ErrCodeForbidden,
		ErrCodeBilling, ErrCodeCanceled, ErrCodeConfig, ErrCodeAdmissionImpossible:
		return CategoryPermanent

	case ErrCodeRateLimit:
		return CategoryResource

	case ErrCodeInternal, ErrCodeAssertion:
		return CategoryInternal

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:             "request timed out",
	ErrCodeUnavailable:         "provider temporarily unavailable",
	ErrCodeNetworkErr:          "network connectivity error",
	ErrCodeServerErr:           "provider server error",
	ErrCodeInvalidInput:        "invalid request",
	ErrCodeUnauthorized:        "authentication failed",
	ErrCodeForbidden:           "access denied",
	ErrCodeBilling:             "billing or quota problem",
	ErrCodeCanceled:            "cancelled",
	ErrCodeConfig:              "invalid configuration",
	ErrCodeRateLimit:           "rate limit exceeded",
	ErrCodeInternal:            "internal error",
	ErrCodeAssertion:           "assertion failed",
	ErrCodeAdmissionImpossible: "estimated cost exceeds window capacity",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
