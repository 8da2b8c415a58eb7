// Package engine runs each user turn through the hours gate, the cancel
// interrupt and the flow state machines.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/hooks"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/soyeahso/shopdesk/internal/session"
)

// Engine turns inbound events into replies. It is safe for concurrent use;
// turns for the same user are serialized.
type Engine struct {
	store    session.Store
	flows    map[domain.FlowID]*FlowDefinition
	commands map[string]action
	gate     *Gate
	hooks    *hooks.Manager
	business domain.BusinessInfo
	now      func() time.Time
	users    *keyedMutex
	log      *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGate enables business-hours gating.
func WithGate(g *Gate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithClock replaces time.Now for the gate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHooks announces flow lifecycle events on m.
func WithHooks(m *hooks.Manager) Option {
	return func(e *Engine) { e.hooks = m }
}

// WithBusiness sets the shop record used by the greeting and location card.
func WithBusiness(info domain.BusinessInfo) Option {
	return func(e *Engine) { e.business = info }
}

// New creates an engine over store.
func New(store session.Store, log *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		flows: defaultFlows(),
		now:   time.Now,
		users: newKeyedMutex(),
		log:   log.Sub("engine"),
	}
	for _, o := range opts {
		o(e)
	}
	e.commands = e.buildCommands()
	return e
}

// Flow returns the definition registered for id.
func (e *Engine) Flow(id domain.FlowID) (*FlowDefinition, bool) {
	d, ok := e.flows[id]
	return d, ok
}

// turn is the per-event working set passed between stages.
type turn struct {
	ev   domain.InboundEvent
	norm string
	sess domain.Session
	log  *logging.Logger

	// starting is set when the flow begins and ends within this turn;
	// finish announces it once the session write succeeds.
	starting domain.FlowID
}

// Handle processes one event to completion and returns the replies in
// send order. A non-nil error means the turn could not be answered; the
// caller owns telling the user.
func (e *Engine) Handle(ctx context.Context, ev domain.InboundEvent) ([]domain.OutboundMessage, error) {
	if ev.UserID == "" {
		return nil, fmt.Errorf("event %q has no user", ev.ID)
	}
	unlock := e.users.Lock(ev.UserID)
	defer unlock()

	ev.Text = strings.TrimSpace(ev.Text)
	t := &turn{ev: ev, log: e.log.ForUser(ev.UserID)}
	if !ev.IsImage() {
		t.norm = Normalize(ev.Text)
	}

	if e.gate != nil && e.gate.Closed(e.now()) && !e.gate.Allows(t.norm) {
		return e.closed(ctx, t)
	}
	if IsCancel(t.norm) {
		return e.cancel(ctx, t)
	}

	sess, err := e.store.Get(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	t.sess = sess

	if sess.State.IsIdle() {
		return e.idle(ctx, t)
	}

	def, ok := e.flows[sess.State.Flow]
	i := -1
	if ok {
		i = def.index(sess.State.Step)
	}
	if i < 0 {
		return e.stale(ctx, t)
	}
	return e.advance(ctx, t, def, i)
}

func (e *Engine) idle(ctx context.Context, t *turn) ([]domain.OutboundMessage, error) {
	if a, ok := e.commands[t.norm]; ok && t.norm != "" {
		return a(ctx, t)
	}
	t.log.Debug().Str("text", t.ev.Text).Msg("unrecognized command at idle")
	return e.greeting(), nil
}

// stale recovers from a stored state that no flow owns.
func (e *Engine) stale(ctx context.Context, t *turn) ([]domain.OutboundMessage, error) {
	t.log.Warn().Str("state", t.sess.State.String()).Msg("session in unknown state, resetting")
	if err := e.store.Delete(ctx, t.ev.UserID); err != nil {
		return nil, fmt.Errorf("resetting session: %w", err)
	}
	e.emit(ctx, hooks.EventSessionReset, t, t.sess.State.Flow, map[string]any{
		hooks.KeyState:  t.sess.State.String(),
		hooks.KeyReason: "stale",
	})
	return e.mainMenu("Sorry, let's start over. How can we help you today?"), nil
}

func (e *Engine) emit(ctx context.Context, event string, t *turn, flow domain.FlowID, extra map[string]any) {
	if e.hooks == nil {
		return
	}
	data := map[string]any{
		hooks.KeyUserID:    t.ev.UserID,
		hooks.KeyChannelID: t.ev.ChannelID,
		hooks.KeyEventID:   t.ev.ID,
		hooks.KeyFlow:      string(flow),
	}
	for k, v := range extra {
		data[k] = v
	}
	e.hooks.Emit(ctx, event, data)
}
