package swarm

import (
	"context"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/gptswarm/errors"
	"github.com/vinayprograms/gptswarm/llm"
	"github.com/vinayprograms/gptswarm/logging"
	"github.com/vinayprograms/gptswarm/ratelimit"
)

// shrinkFactor is applied to the token capacity when the provider
// rate-limits a request that was locally admitted. The configured
// quota was evidently optimistic.
const shrinkFactor = 0.75

// worker processes jobs strictly sequentially. Concurrency comes from
// running multiple workers, never from one worker multiplexing jobs.
type worker struct {
	id        string
	cfg       Config
	client    llm.CompletionClient
	admission *ratelimit.Admission
	announcer *ratelimit.Announcer
	log       *logging.Logger

	randFn func() float64 // jitter source, replaceable in tests
}

func newWorker(cfg Config, client llm.CompletionClient, admission *ratelimit.Admission, announcer *ratelimit.Announcer, log *logging.Logger) *worker {
	return &worker{
		id:        uuid.NewString()[:8],
		cfg:       cfg,
		client:    client,
		admission: admission,
		announcer: announcer,
		log:       log,
		randFn:    rand.Float64,
	}
}

// process drives one job to a terminal outcome. All errors are
// contained here and converted to an Outcome; nothing propagates to
// the pool except through the returned value.
func (w *worker) process(ctx context.Context, job Job) Outcome {
	rateRetries := 0
	transientRetries := 0

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return cancelledOutcome()
		}

		acquireStart := time.Now()
		if err := w.admission.Acquire(ctx, w.cfg.ModelTokenSize); err != nil {
			return w.admissionOutcome(err)
		}
		if wait := time.Since(acquireStart); wait > 50*time.Millisecond {
			w.log.AdmissionWait(job.Index, wait)
		}

		w.log.Attempt(w.id, job.Index, attempt)
		completion, err := w.client.Complete(ctx, job.Conversation)
		if err == nil {
			w.admission.ReportUsage(completion.TokensUsed)
			return successOutcome(completion.Message, completion.TokensUsed)
		}

		err = errors.Wrap(llm.Classify(err), "completion attempt failed",
			errors.WithWorkerID(w.id), errors.WithJobIndex(job.Index))

		if errors.Is(err, errors.ErrCodeCanceled) {
			return cancelledOutcome()
		}

		switch reasonFor(err) {
		case FailureRateLimited:
			// The provider throttled a request we had local budget
			// for. Shrink the shared capacity so the other workers
			// slow down too, and announce the new ceiling.
			newCapacity := w.admission.ShrinkTokens(shrinkFactor, w.cfg.ModelTokenSize)
			w.log.CapacityReduced("tokens", newCapacity, "provider throttled an admitted request")
			if w.announcer != nil {
				_ = w.announcer.AnnounceReduced("tokens", newCapacity, "provider throttle")
			}
			rateRetries++
			if rateRetries > w.cfg.MaxRetries {
				return failureOutcome(FailureRateLimited, err)
			}
		case FailureTransient:
			transientRetries++
			if transientRetries > w.cfg.MaxRetries {
				return failureOutcome(FailureTransient, err)
			}
		default:
			return failureOutcome(FailurePermanent, err)
		}

		w.log.AttemptFailed(w.id, job.Index, attempt, err, true)
		delay := w.backoff(attempt)
		w.log.Backoff(w.id, job.Index, delay)
		if !w.sleep(ctx, delay) {
			return cancelledOutcome()
		}
	}
}

// admissionOutcome converts an admission failure to a terminal outcome.
func (w *worker) admissionOutcome(err error) Outcome {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return cancelledOutcome()
	case errors.Is(err, errors.ErrCodeAdmissionImpossible):
		return failureOutcome(FailurePermanent, err)
	default:
		// Controller closed mid-run. Treat like cancellation.
		return cancelledOutcome()
	}
}

// backoff computes base * 2^attempt capped at MaxBackoff, then applies
// jitter so retrying workers do not reconverge on the provider.
func (w *worker) backoff(attempt int) time.Duration {
	delay := w.cfg.BackoffBase
	for i := 0; i < attempt && delay < w.cfg.MaxBackoff; i++ {
		delay *= 2
	}
	if delay > w.cfg.MaxBackoff {
		delay = w.cfg.MaxBackoff
	}
	// Jitter keeps the full delay in [delay/2, delay).
	half := delay / 2
	return half + time.Duration(w.randFn()*float64(half))
}

// sleep waits for the delay or the context, whichever ends first.
// Returns false if the context ended.
func (w *worker) sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
