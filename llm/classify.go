package llm

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/vinayprograms/gptswarm/errors"
)

// Classify maps a raw provider error into a structured swarm error.
// The three buckets the worker retry policy depends on:
//
//   - resource (rate_limited): 429, overloaded, capacity
//   - transient: timeouts, network failures, 5xx
//   - permanent: everything else (auth, billing, malformed requests)
//
// Already-classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if se := errors.AsSwarmError(err); se != nil {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapWithCode(err, errors.ErrCodeTimeout, "completion request timed out")
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.WrapWithCode(err, errors.ErrCodeCanceled, "completion request cancelled")
	}

	switch {
	case isRateLimitError(err):
		return errors.WrapWithCode(err, errors.ErrCodeRateLimit, "provider rate limited the request")
	case isAuthError(err):
		return errors.WrapWithCode(err, errors.ErrCodeUnauthorized, "provider rejected credentials")
	case isBillingError(err):
		return errors.WrapWithCode(err, errors.ErrCodeBilling, "provider billing or quota problem")
	case isServerError(err):
		return errors.WrapWithCode(err, errors.ErrCodeServerErr, "provider server error")
	case isNetworkError(err):
		return errors.WrapWithCode(err, errors.ErrCodeNetworkErr, "network error reaching provider")
	default:
		return errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "provider rejected the request")
	}
}

// isRateLimitError checks if the error indicates provider rate limiting.
func isRateLimitError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "capacity")
}

// isServerError checks if the error is a transient server error (5xx).
func isServerError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") ||
		strings.Contains(errStr, "temporarily unavailable")
}

// isNetworkError checks for connectivity-level failures.
func isNetworkError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "timeout")
}

// isAuthError checks for authentication and authorization failures.
func isAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "authentication")
}

// isBillingError checks for billing/payment/quota errors (fatal, no retry).
func isBillingError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "billing") ||
		strings.Contains(errStr, "payment") ||
		strings.Contains(errStr, "credits") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "insufficient") ||
		strings.Contains(errStr, "402") ||
		strings.Contains(errStr, "subscription") ||
		strings.Contains(errStr, "expired")
}
