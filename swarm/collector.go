package swarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Collector errors.
var (
	// ErrSlotFilled indicates a result index was recorded twice. This
	// means a job was double-processed, which is a programming error,
	// not a recoverable condition.
	ErrSlotFilled = errors.New("result slot already filled")

	// ErrIndexRange indicates a result index outside the batch.
	ErrIndexRange = errors.New("result index out of range")
)

// Collector assembles outcomes into input order. Slots are
// pre-allocated to the batch size; each slot is written exactly once,
// by whichever worker finished that job, regardless of arrival order.
type Collector struct {
	mu     sync.Mutex
	cond   *sync.Cond
	slots  []Outcome
	filled []bool
	count  int
}

// NewCollector creates a collector for a batch of the given size.
func NewCollector(total int) *Collector {
	c := &Collector{
		slots:  make([]Outcome, total),
		filled: make([]bool, total),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Record stores the outcome for one job index. Each index must be
// written exactly once; a second write returns ErrSlotFilled.
func (c *Collector) Record(index int, outcome Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.slots) {
		return fmt.Errorf("%w: index %d, batch size %d", ErrIndexRange, index, len(c.slots))
	}
	if c.filled[index] {
		return fmt.Errorf("%w: index %d", ErrSlotFilled, index)
	}

	c.slots[index] = outcome
	c.filled[index] = true
	c.count++
	c.cond.Broadcast()
	return nil
}

// Filled returns how many slots have been recorded so far.
func (c *Collector) Filled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// AwaitAll blocks until every slot is filled, then returns the
// outcomes in input order. If all slots are already filled the context
// is not consulted.
func (c *Collector) AwaitAll(ctx context.Context) ([]Outcome, error) {
	// Wake the cond loop if the context ends while we wait.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			c.cond.Broadcast()
		case <-watchDone:
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.count == len(c.slots) {
			out := make([]Outcome, len(c.slots))
			copy(out, c.slots)
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.cond.Wait()
	}
}
