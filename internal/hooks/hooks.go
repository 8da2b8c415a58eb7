// Package hooks lets components observe conversation and gateway lifecycle
// events without the engine knowing who is listening.
package hooks

import (
	"context"
	"slices"
	"sync"

	"github.com/soyeahso/shopdesk/internal/logging"
)

// Event names for the hook system.
const (
	EventMessageReceived = "message_received"
	EventMessageSending  = "message_sending"
	EventFlowStarted     = "flow_started"
	EventFlowCompleted   = "flow_completed"
	EventFlowCancelled   = "flow_cancelled"
	EventSessionReset    = "session_reset"
	EventGatewayStart    = "gateway_start"
	EventGatewayStop     = "gateway_stop"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventMessageReceived,
	EventMessageSending,
	EventFlowStarted,
	EventFlowCompleted,
	EventFlowCancelled,
	EventSessionReset,
	EventGatewayStart,
	EventGatewayStop,
}

// Well-known payload keys.
const (
	KeyUserID    = "userId"
	KeyChannelID = "channelId"
	KeyEventID   = "eventId"
	KeyFlow      = "flow"
	KeyState     = "state"
	KeyFields    = "fields"
	KeyHasImage  = "hasImage"
	KeyReason    = "reason"
	KeyCount     = "count"
	KeyAddr      = "addr"
)

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Str returns a string value from Data, or "" when absent or not a string.
func (p Payload) Str(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Bool returns a bool value from Data.
func (p Payload) Bool(key string) bool {
	b, _ := p.Data[key].(bool)
	return b
}

// Fields returns the collected intake fields carried by flow events.
func (p Payload) Fields() map[string]string {
	f, _ := p.Data[KeyFields].(map[string]string)
	return f
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager keeps hook registrations and dispatches events to them.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
	wg       sync.WaitGroup
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event. Registering the same name
// twice for one event replaces the earlier handler.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hs := m.handlers[event]
	if i := slices.IndexFunc(hs, func(h namedHandler) bool { return h.name == name }); i >= 0 {
		hs[i].handler = handler
	} else {
		m.handlers[event] = append(hs, namedHandler{name: name, handler: handler})
	}
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

func (m *Manager) snapshot(event string) []namedHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.handlers[event])
}

func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Str("event", p.Event).Str("handler", h.name).Msg("hook handler panicked")
		}
	}()
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().Err(err).Str("event", p.Event).Str("handler", h.name).Msg("hook handler error")
	}
}

// Emit runs every handler for event in registration order before returning.
// A failing or panicking handler does not stop the others.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	payload := Payload{Event: event, Data: data}
	for _, h := range m.snapshot(event) {
		m.call(ctx, h, payload)
	}
}

// EmitAsync runs every handler for event on its own goroutine and returns
// immediately. Wait blocks until they finish.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	payload := Payload{Event: event, Data: data}
	for _, h := range m.snapshot(event) {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.call(context.WithoutCancel(ctx), h, payload)
		}()
	}
}

// Wait blocks until all handlers started by EmitAsync have returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the sorted events that have at least one handler registered.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	slices.Sort(events)
	return events
}
