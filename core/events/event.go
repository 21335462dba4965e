package events

import (
	"sync"

	"auctionchain/core/types"
)

// Event represents a structured state change emitted by the chain.
type Event interface {
	EventType() string
}

// Typed is implemented by events that render into the canonical wire form.
type Typed interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects events emitted during a single state transition. The node
// releases them only after the transition commits, so failed operations never
// surface events.
type Buffer struct {
	mu     sync.Mutex
	events []*types.Event
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Emit implements the Emitter interface. Events without a canonical form are
// recorded with their type only.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	var rendered *types.Event
	if typed, ok := evt.(Typed); ok {
		rendered = typed.Event()
	}
	if rendered == nil {
		rendered = &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
	}
	b.mu.Lock()
	b.events = append(b.events, rendered)
	b.mu.Unlock()
}

// Events returns copies of the buffered events in emission order.
func (b *Buffer) Events() []*types.Event {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*types.Event, len(b.events))
	for i, evt := range b.events {
		out[i] = evt.Clone()
	}
	return out
}

// Reset drops buffered events.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}
