// Package ratelimit provides the admission gate that keeps a batch run
// inside a provider's tokens-per-minute and requests-per-minute quotas.
//
// # Model
//
// One fixed accounting window (default one minute) is anchored at the
// first grant, not at calendar minutes. Within the window two counters
// are charged together on every grant: one request, and the configured
// upper-bound token estimate for the model. True usage is only known
// after the response returns; workers report it via ReportUsage, which
// feeds metrics and never re-charges budget already granted.
//
// # Admission
//
//	adm, err := ratelimit.NewAdmission(ratelimit.Config{
//	    TokensPerWindow:   180000,
//	    RequestsPerWindow: 3000,
//	})
//	if err := adm.Acquire(ctx, modelTokenSize); err != nil {
//	    return err // ctx ended, controller closed, or estimate can never fit
//	}
//
// Acquire blocks until both counters fit, suspending the caller until
// the window rolls over when they do not. The check and the charge
// happen in one critical section, so concurrent callers can never
// over-admit past capacity.
//
// # Provider-side divergence
//
// The provider's real limits may be tighter than configured. When a
// worker sees a 429 despite local admission, it shrinks the token
// capacity (ShrinkTokens) and broadcasts a CapacityUpdate on the event
// bus so other limiters sharing the provider can follow.
package ratelimit
