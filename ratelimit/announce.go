package ratelimit

import (
	"encoding/json"
	"time"

	"github.com/vinayprograms/gptswarm/bus"
)

// CapacityUpdate is broadcast when a worker observes provider-side rate
// limiting despite local admission, so every limiter sharing the
// provider can tighten its window.
type CapacityUpdate struct {
	// Resource that was rate limited (e.g. "openai").
	Resource string `json:"resource"`

	// WorkerID that observed the 429.
	WorkerID string `json:"worker_id"`

	// NewCapacity is the announcing side's token capacity after shrinking.
	NewCapacity int `json:"new_capacity"`

	// Reason for the change.
	Reason string `json:"reason"`

	// Timestamp of the update.
	Timestamp time.Time `json:"timestamp"`
}

// Announcer publishes capacity updates on the event bus.
type Announcer struct {
	bus      bus.EventBus
	workerID string
}

// NewAnnouncer creates an announcer identified by workerID.
func NewAnnouncer(b bus.EventBus, workerID string) *Announcer {
	return &Announcer{bus: b, workerID: workerID}
}

// AnnounceReduced broadcasts that capacity for a resource was reduced.
func (a *Announcer) AnnounceReduced(resource string, newCapacity int, reason string) error {
	update := CapacityUpdate{
		Resource:    resource,
		WorkerID:    a.workerID,
		NewCapacity: newCapacity,
		Reason:      reason,
		Timestamp:   time.Now(),
	}
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return a.bus.Publish(bus.SubjectCapacity, data)
}

// OnCapacityChange is a callback for capacity update notifications.
type OnCapacityChange func(update *CapacityUpdate)

// Watch subscribes to capacity updates and invokes the callback for
// each one until the subscription is cancelled or the bus closes.
func Watch(b bus.EventBus, cb OnCapacityChange) (bus.Subscription, error) {
	sub, err := b.Subscribe(bus.SubjectCapacity)
	if err != nil {
		return nil, err
	}

	go func() {
		for msg := range sub.Messages() {
			var update CapacityUpdate
			if err := json.Unmarshal(msg.Data, &update); err != nil {
				continue
			}
			cb(&update)
		}
	}()

	return sub, nil
}
