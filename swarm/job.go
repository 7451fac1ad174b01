package swarm

import (
	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/errors"
)

// Job is one conversation awaiting completion. A job is owned by
// exactly one worker at a time; there is no shared mutable job state.
type Job struct {
	// Index is the position of the conversation in the input batch.
	// Results are ordered by this index, not by completion order.
	Index int

	// Conversation is the message history to complete.
	Conversation chat.Conversation
}

// FailureReason classifies a terminal failure.
type FailureReason string

const (
	// FailureRateLimited means retries were exhausted against provider
	// rate limiting.
	FailureRateLimited FailureReason = "rate_limited"

	// FailureTransient means retries were exhausted against network,
	// timeout, or server errors. Cancellation is also recorded here.
	FailureTransient FailureReason = "transient"

	// FailurePermanent means the request can never succeed as given
	// (auth, billing, malformed input, impossible admission).
	FailurePermanent FailureReason = "permanent"
)

// Outcome is the terminal result of one job. Exactly one Outcome is
// recorded per input conversation.
type Outcome struct {
	// Success reports whether Message holds a completion.
	Success bool

	// Message is the assistant reply. Valid only when Success is true.
	Message chat.Message

	// TokensUsed is the provider-reported usage for a successful call.
	TokensUsed int

	// Reason classifies a failure. Empty when Success is true.
	Reason FailureReason

	// Err carries the last observed error for a failure.
	Err error
}

// successOutcome packages a completed response.
func successOutcome(msg chat.Message, tokensUsed int) Outcome {
	return Outcome{Success: true, Message: msg, TokensUsed: tokensUsed}
}

// failureOutcome packages a terminal failure.
func failureOutcome(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// cancelledOutcome records a job that was not terminal when the batch
// was cancelled.
func cancelledOutcome() Outcome {
	return failureOutcome(FailureTransient, errors.Canceled("cancelled"))
}

// reasonFor maps an error's category to a failure reason.
func reasonFor(err error) FailureReason {
	switch {
	case errors.IsResource(err):
		return FailureRateLimited
	case errors.IsTransient(err):
		return FailureTransient
	default:
		return FailurePermanent
	}
}
