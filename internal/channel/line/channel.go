// Package line implements the LINE Messaging API channel: a signed webhook
// for inbound events and the reply API for outbound messages.
package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/soyeahso/shopdesk/internal/config"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// ChannelID identifies the LINE channel.
const ChannelID = "line"

const maxBodyBytes = 1 << 20

// Channel implements domain.Channel and serves the webhook.
type Channel struct {
	secret string
	api    *Client
	log    *logging.Logger

	mu      sync.RWMutex
	handler domain.EventHandler
	running bool
	lastErr string
}

// New creates a LINE channel from configuration.
func New(cfg config.LineConfig, log *logging.Logger) *Channel {
	return &Channel{
		secret: cfg.ChannelSecret,
		api:    NewClient(cfg.APIBase, cfg.ChannelAccessToken, time.Duration(cfg.TimeoutSeconds)*time.Second),
		log:    log.Sub("line"),
	}
}

func (c *Channel) ID() string { return ChannelID }

func (c *Channel) OnEvent(handler domain.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Status returns the current runtime status.
func (c *Channel) Status() domain.ChannelStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ChannelStatus{ChannelID: ChannelID, Running: c.running, LastError: c.lastErr}
}

// Start marks the channel ready. Inbound traffic arrives through ServeHTTP,
// mounted by the gateway.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	c.log.Info().Msg("LINE webhook ready")
	return nil
}

func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	return nil
}

// Send delivers a reply. Events carry a single-use reply token; without
// one the messages are pushed to the user instead. At most five messages
// go out per call, the rest are dropped with a warning.
func (c *Channel) Send(ctx context.Context, reply domain.Reply) error {
	msgs, err := render(reply.Messages)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > maxReplyMessages {
		c.log.Warn().
			Str("user", reply.UserID).
			Int("messages", len(msgs)).
			Msg("reply exceeds message limit, truncating")
		msgs = msgs[:maxReplyMessages]
	}

	if reply.Handle != "" {
		err = c.api.Reply(ctx, reply.Handle, msgs)
	} else {
		err = c.api.Push(ctx, reply.UserID, msgs)
	}
	if err != nil {
		c.setErr(err)
		return fmt.Errorf("sending LINE reply: %w", err)
	}
	return nil
}

// ServeHTTP handles the webhook: verify, parse, then hand every event to
// the registered handler before acknowledging.
func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := VerifySignature(c.secret, body, r.Header.Get(SignatureHeader)); err != nil {
		c.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejected webhook")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	events, err := ParseEvents(ChannelID, body)
	if err != nil {
		c.log.Warn().Err(err).Msg("malformed webhook body")
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()

	if handler != nil {
		for _, ev := range events {
			handler(r.Context(), ev)
		}
	} else if len(events) > 0 {
		c.log.Warn().Int("events", len(events)).Msg("no handler registered, dropping events")
	}
	w.WriteHeader(http.StatusOK)
}

func (c *Channel) setErr(err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		// Expired reply tokens are routine after redelivery.
		return
	}
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
}
