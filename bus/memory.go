package bus

import (
	"sync"
	"sync/atomic"
)

// MemoryBus implements EventBus using in-process channels.
// It is the default backend for single-process batch runs.
type MemoryBus struct {
	config Config

	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed atomic.Bool
}

type memorySub struct {
	subject string
	ch      chan *Message
	closed  atomic.Bool
	bus     *MemoryBus
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryBus{
		config: cfg,
		subs:   make(map[string][]*memorySub),
	}
}

// Publish sends a message to all subscribers of the subject.
// If a subscriber's buffer is full the message is dropped for that
// subscriber; progress and capacity events are advisory.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	if err := ValidateSubject(subject); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	msg := &Message{Subject: subject, Data: data}

	// Channels are only closed while holding the write lock, so the
	// sends cannot race an Unsubscribe or Close.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[subject] {
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe creates a subscription to a subject.
func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		subject: subject,
		ch:      make(chan *Message, b.config.BufferSize),
		bus:     b,
	}

	b.mu.Lock()
	b.subs[subject] = append(b.subs[subject], sub)
	b.mu.Unlock()

	return sub, nil
}

// Close shuts down the bus and all subscriptions.
func (b *MemoryBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subs {
		for _, sub := range subs {
			if sub.closed.CompareAndSwap(false, true) {
				close(sub.ch)
			}
		}
	}
	b.subs = make(map[string][]*memorySub)
	return nil
}

// Messages returns the subscription's channel.
func (s *memorySub) Messages() <-chan *Message {
	return s.ch
}

// Unsubscribe removes the subscription from the bus.
func (s *memorySub) Unsubscribe() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	subs := s.bus.subs[s.subject]
	for i, sub := range subs {
		if sub == s {
			s.bus.subs[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(s.ch)
	return nil
}

// Ensure MemoryBus implements EventBus.
var _ EventBus = (*MemoryBus)(nil)
