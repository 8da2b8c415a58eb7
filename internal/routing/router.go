// Package routing connects messaging channels to the conversation engine.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/shopdesk/internal/channel"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/engine"
	"github.com/soyeahso/shopdesk/internal/hooks"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// Handler answers one inbound event. *engine.Engine satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev domain.InboundEvent) ([]domain.OutboundMessage, error)
}

// Router routes inbound events to the engine and replies to channels.
type Router struct {
	channels *channel.Registry
	handler  Handler
	dedup    *Deduper
	hooks    *hooks.Manager
	log      *logging.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithDeduper drops events whose ID was already handled.
func WithDeduper(d *Deduper) Option {
	return func(r *Router) { r.dedup = d }
}

// WithHooks emits message_received and message_sending. Handlers run in
// the background so a slow subscriber never holds up the reply.
func WithHooks(m *hooks.Manager) Option {
	return func(r *Router) { r.hooks = m }
}

// NewRouter creates an event router.
func NewRouter(channels *channel.Registry, handler Handler, log *logging.Logger, opts ...Option) *Router {
	r := &Router{
		channels: channels,
		handler:  handler,
		log:      log.Sub("routing"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleInbound runs one event through the engine and sends the replies
// back through the originating channel. Engine failures are logged and
// answered with an apology.
func (r *Router) HandleInbound(ctx context.Context, ev domain.InboundEvent) {
	start := time.Now()
	log := r.log.ForUser(ev.UserID)

	if r.dedup != nil && !r.dedup.Claim(ev.ID) {
		log.Info().
			Str("channel", ev.ChannelID).
			Str("event", ev.ID).
			Bool("redelivery", ev.Redelivery).
			Msg("duplicate event, skipping")
		return
	}

	log.Debug().
		Str("channel", ev.ChannelID).
		Str("event", ev.ID).
		Str("kind", string(ev.Kind)).
		Msg("routing inbound event")
	r.emit(ctx, hooks.EventMessageReceived, ev, map[string]any{
		"kind": string(ev.Kind),
		"text": ev.Text,
	})

	msgs, err := r.handler.Handle(ctx, ev)
	if err != nil {
		var inv *engine.InvariantError
		if errors.As(err, &inv) {
			log.Error().Err(err).Str("state", inv.State.String()).Msg("engine invariant violated")
		} else {
			log.Error().Err(err).Str("channel", ev.ChannelID).Msg("turn failed")
			if r.dedup != nil {
				r.dedup.Forget(ev.ID)
			}
		}
		msgs = Apology()
	}
	if len(msgs) == 0 {
		return
	}

	if err := r.Send(ctx, ReplyTo(ev, msgs)); err != nil {
		log.Error().Err(err).Str("channel", ev.ChannelID).Msg("failed to send reply")
		return
	}

	log.Info().
		Str("channel", ev.ChannelID).
		Int("messages", len(msgs)).
		Dur("duration", time.Since(start)).
		Msg("reply sent")
}

// Send delivers a reply through the channel it is addressed to.
func (r *Router) Send(ctx context.Context, reply domain.Reply) error {
	ch, ok := r.channels.Get(reply.ChannelID)
	if !ok {
		return fmt.Errorf("channel not found: %s", reply.ChannelID)
	}
	r.emitReply(ctx, reply)
	return ch.Send(ctx, reply)
}

// Wire registers HandleInbound as the event handler on all channels.
// Events are handled synchronously so a webhook is acknowledged only after
// its reply has been sent.
func (r *Router) Wire() {
	r.channels.Each(func(ch domain.Channel) {
		ch.OnEvent(r.HandleInbound)
		r.log.Debug().Str("channel", ch.ID()).Msg("wired event handler")
	})
}

func (r *Router) emit(ctx context.Context, event string, ev domain.InboundEvent, extra map[string]any) {
	if r.hooks == nil {
		return
	}
	data := map[string]any{
		hooks.KeyUserID:    ev.UserID,
		hooks.KeyChannelID: ev.ChannelID,
		hooks.KeyEventID:   ev.ID,
	}
	for k, v := range extra {
		data[k] = v
	}
	r.hooks.EmitAsync(ctx, event, data)
}

func (r *Router) emitReply(ctx context.Context, reply domain.Reply) {
	if r.hooks == nil {
		return
	}
	r.hooks.EmitAsync(ctx, hooks.EventMessageSending, map[string]any{
		hooks.KeyUserID:    reply.UserID,
		hooks.KeyChannelID: reply.ChannelID,
		hooks.KeyCount:     len(reply.Messages),
	})
}
