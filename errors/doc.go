// Package errors provides structured errors for the dispatch engine.
//
// # Overview
//
// Every failure observed while processing a job is represented as an
// Error carrying a code and a category. The category alone decides how
// the worker's retry policy treats the failure:
//
//   - resource: provider rate limiting; retried with backoff on the
//     rate-limit counter
//   - transient: network, timeout, or server failures; retried with
//     backoff on the transient counter
//   - permanent: bad input, auth, policy; never retried
//   - internal: engine bugs and invariant violations; never retried
//
// # Creating Errors
//
//	err := errors.RateLimited("provider returned 429",
//	    errors.WithWorkerID(workerID),
//	    errors.WithJobIndex(job.Index))
//
// # Classifying Errors
//
//	if errors.IsResource(err) {
//	    // back off and retry
//	}
//
// Errors serialize to JSON so outcomes can be carried over the event bus
// in a distributed deployment without losing classification.
package errors
