package swarm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/gptswarm/bus"
	"github.com/vinayprograms/gptswarm/chat"
	"github.com/vinayprograms/gptswarm/errors"
	"github.com/vinayprograms/gptswarm/llm"
	"github.com/vinayprograms/gptswarm/logging"
	"github.com/vinayprograms/gptswarm/ratelimit"
)

// Engine dispatches batches of conversations against a rate-limited
// completion API. Each Swarm call constructs its own admission
// controller, so independent batches never interfere.
type Engine struct {
	cfg    Config
	client llm.CompletionClient
	bus    bus.EventBus
	log    *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus attaches an event bus for progress and capacity events.
func WithBus(b bus.EventBus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithLogger replaces the default logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine. Configuration problems surface here, before
// any dispatch, as permanent configuration errors.
func New(cfg Config, client llm.CompletionClient, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.Config("completion client is required")
	}

	e := &Engine{
		cfg:    cfg,
		client: client,
		log:    logging.New().WithComponent("swarm"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Swarm dispatches the batch and returns one reply per input
// conversation, in input order. A failed conversation yields nil at
// its position. Once dispatch begins, individual job failures never
// abort the batch; only setup problems return an error. Cancellation
// records every non-terminal job as a cancelled failure and still
// returns the full-length result sequence.
func (e *Engine) Swarm(ctx context.Context, conversations []chat.Conversation) ([]*chat.Message, error) {
	outcomes, err := e.SwarmOutcomes(ctx, conversations)
	if err != nil {
		return nil, err
	}

	results := make([]*chat.Message, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Success {
			msg := outcome.Message
			results[i] = &msg
		}
	}
	return results, nil
}

// SwarmOutcomes is like Swarm but returns the full Outcome per slot,
// including failure reasons and token usage.
func (e *Engine) SwarmOutcomes(ctx context.Context, conversations []chat.Conversation) ([]Outcome, error) {
	if len(conversations) == 0 {
		return []Outcome{}, nil
	}

	admission, err := ratelimit.NewAdmission(ratelimit.Config{
		TokensPerWindow:   e.cfg.TokensPerMinute,
		RequestsPerWindow: e.cfg.RequestsPerMinute,
		Window:            e.cfg.Window,
		OnWindowReset:     e.log.WindowReset,
	})
	if err != nil {
		return nil, errors.Config("admission controller setup failed", errors.WithCause(err))
	}
	defer admission.Close()

	batchID := uuid.NewString()
	collector := NewCollector(len(conversations))

	// Load the whole batch up front. Workers drain FIFO by index.
	jobs := make(chan Job, len(conversations))
	for i, conv := range conversations {
		if verr := conv.Validate(); verr != nil {
			// Malformed input fails that slot only, without spending
			// an attempt or admission budget on it.
			rerr := collector.Record(i, failureOutcome(FailurePermanent,
				errors.InvalidInput(verr.Error(), errors.WithJobIndex(i))))
			if rerr != nil {
				return nil, errors.Internal("batch setup double-recorded a slot", errors.WithCause(rerr))
			}
			continue
		}
		jobs <- Job{Index: i, Conversation: conv}
	}
	close(jobs)

	var announcer *ratelimit.Announcer
	if e.bus != nil {
		announcer = ratelimit.NewAnnouncer(e.bus, batchID)
	}

	workerCount := e.cfg.workersFor(len(conversations))
	workers := make([]*worker, workerCount)
	for i := range workers {
		workers[i] = newWorker(e.cfg, e.client, admission, announcer, e.log)
	}

	e.log.BatchStart(batchID, len(conversations), workerCount)
	start := time.Now()

	p := &pool{
		workers:   workers,
		jobs:      jobs,
		collector: collector,
		onRecord: func(job Job, outcome Outcome, completed int) {
			publishProgress(e.bus, Progress{
				BatchID:    batchID,
				Index:      job.Index,
				Success:    outcome.Success,
				Reason:     string(outcome.Reason),
				TokensUsed: outcome.TokensUsed,
				Completed:  completed,
				Total:      len(conversations),
				Timestamp:  time.Now(),
			})
		},
	}

	if err := p.run(ctx); err != nil {
		return nil, errors.Internal("dispatch failed", errors.WithCause(err))
	}

	outcomes, err := collector.AwaitAll(ctx)
	if err != nil {
		return nil, errors.Internal("collector incomplete after dispatch", errors.WithCause(err))
	}

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			succeeded++
		}
	}

	usage := admission.Usage()
	e.log.BatchComplete(batchID, time.Since(start), succeeded, len(outcomes)-succeeded)
	e.log.Info("admission usage", map[string]interface{}{
		"granted":          usage.Granted,
		"deferred":         usage.Deferred,
		"estimated_tokens": usage.EstimatedTokens,
		"actual_tokens":    usage.ActualTokens,
	})

	return outcomes, nil
}
