// Package bus provides pub/sub event transport for a batch run.
//
// The engine publishes batch progress events and capacity-reduction
// announcements on the bus. The default backend is in-memory; a NATS
// backend exists for deployments that split workers across processes.
package bus

import "errors"

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Well-known subjects published by the engine.
const (
	// SubjectProgress carries swarm.Progress events, one per recorded outcome.
	SubjectProgress = "swarm.progress"

	// SubjectCapacity carries ratelimit.CapacityUpdate announcements.
	SubjectCapacity = "swarm.capacity"
)

// Message represents a message received from the bus.
type Message struct {
	// Subject the message was published to.
	Subject string

	// Data is the message payload.
	Data []byte
}

// EventBus provides pub/sub messaging.
type EventBus interface {
	// Publish sends a message to all subscribers of a subject.
	// Publish never blocks; slow subscribers may miss messages.
	Publish(subject string, data []byte) error

	// Subscribe creates a subscription to a subject.
	// All subscribers receive all messages.
	Subscribe(subject string) (Subscription, error)

	// Close shuts down the bus connection.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Messages returns the channel for incoming messages.
	// The channel is closed when the subscription ends.
	Messages() <-chan *Message

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds common bus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// ValidateSubject checks if a subject is valid.
func ValidateSubject(subject string) error {
	if subject == "" {
		return ErrInvalidSubject
	}
	return nil
}
