// Package faultbus is the process-wide channel that carries asynchronous
// write failures back to observers. Coordinators publish here when a store
// write they no longer own (the caller already returned) is denied; a
// diagnostic surface subscribes. Events are transient: delivered to
// whoever is subscribed at publish time, no queue, no replay.
package faultbus

import (
	"sync"
	"time"

	"github.com/ovestreet/storefront-backend/internal/observability"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
)

// ChannelPermissionError is the one well-known channel name used by all
// producers in this codebase.
const ChannelPermissionError = "permission-error"

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one failed write attempt. Payload is a redacted summary
// of what was attempted, enough for a diagnostic consumer to reconstruct
// the attempt without the original call site.
type Event struct {
	Op      Op             `json:"op"`
	Path    string         `json:"path"`
	Payload map[string]any `json:"payload,omitempty"`
	Reason  string         `json:"reason"`
	At      time.Time      `json:"at"`
}

type Handler func(Event)

type subscriber struct {
	handler Handler
}

// Bus is constructed once at process start and wired explicitly into every
// producer and consumer; tests substitute their own instance.
type Bus struct {
	mu   sync.RWMutex
	log  *logger.Logger
	subs map[string][]*subscriber
}

func New(log *logger.Logger) *Bus {
	return &Bus{
		log:  log.With("component", "FaultBus"),
		subs: make(map[string][]*subscriber),
	}
}

// Subscribe registers handler on channel and returns a disposer that
// deregisters it. Handlers run on the publisher's goroutine and must not
// block.
func (b *Bus) Subscribe(channel string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	sub := &subscriber{handler: handler}
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[channel]
			for i, s := range list {
				if s == sub {
					b.subs[channel] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
		})
	}
}

// Publish delivers ev to every subscriber registered on channel at this
// moment, in registration order. At most one delivery per subscriber per
// publish.
func (b *Bus) Publish(channel string, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	list := make([]*subscriber, len(b.subs[channel]))
	copy(list, b.subs[channel])
	b.mu.RUnlock()

	observability.Current().RecordFaultEvent(channel, string(ev.Op))
	b.log.Debug("Publishing fault event", "channel", channel, "op", string(ev.Op), "path", ev.Path, "reason", ev.Reason)
	for _, sub := range list {
		sub.handler(ev)
	}
}
