// Package webchat implements a browser chat channel over WebSocket, used to
// try the intake flows without a LINE account.
package webchat

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// ChannelID identifies the web chat channel.
const ChannelID = "webchat"

const maxFrameBytes = 64 << 10

// userPrefix scopes browser identities so they never collide with another
// channel's user IDs in the shared session store.
const userPrefix = "web-"

// validUserID limits the user IDs a browser may resume with.
var validUserID = regexp.MustCompile(`^` + userPrefix + `[A-Za-z0-9_-]{1,64}$`)

// Channel implements domain.Channel over WebSocket connections.
type Channel struct {
	log      *logging.Logger
	conns    *connRegistry
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	handler domain.EventHandler
	running bool
}

// New creates a web chat channel. Browser origins other than the gateway's
// own must be listed in allowedOrigins.
func New(allowedOrigins []string, log *logging.Logger) *Channel {
	l := log.Sub("webchat")
	return &Channel{
		log:   l,
		conns: newConnRegistry(l),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin accepts same-origin and non-browser clients, plus any origin
// in allowed ("*" matches all).
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
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
	return domain.ChannelStatus{ChannelID: ChannelID, Running: c.running}
}

// Connections returns the number of open sockets.
func (c *Channel) Connections() int { return c.conns.count() }

func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	return nil
}

// Stop closes every open socket.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.conns.closeAll()
	return nil
}

// Send writes the reply to the connection that produced the event, or to
// the user's newest connection if that one has gone away.
func (c *Channel) Send(ctx context.Context, reply domain.Reply) error {
	conn, ok := c.conns.get(reply.Handle)
	if !ok {
		conn, ok = c.conns.byUser(reply.UserID)
	}
	if !ok {
		return fmt.Errorf("no webchat connection for user %q", reply.UserID)
	}
	f, err := replyFrame(reply.Messages)
	if err != nil {
		return err
	}
	if err := conn.Send(f); err != nil {
		return fmt.Errorf("writing to webchat connection: %w", err)
	}
	return nil
}

// ServeHTTP upgrades the request and runs the read loop until the browser
// disconnects. A "user" query parameter resumes an earlier web chat
// identity; anything else gets a fresh one.
func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if !validUserID.MatchString(userID) {
		userID = userPrefix + uuid.New().String()
	}

	socket, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	socket.SetReadLimit(maxFrameBytes)

	conn := newConn(socket, userID)
	c.conns.add(conn)
	defer func() {
		c.conns.remove(conn.ID)
		conn.Close()
	}()

	if err := conn.Send(Frame{Kind: KindHello, UserID: userID}); err != nil {
		c.log.Warn().Err(err).Str("connId", conn.ID).Msg("failed to send hello")
		return
	}
	c.readLoop(r.Context(), conn)
}

func (c *Channel) readLoop(ctx context.Context, conn *Conn) {
	for {
		f, err := conn.Read()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Str("connId", conn.ID).Msg("client closed connection")
			} else if !strings.Contains(err.Error(), "use of closed network connection") {
				c.log.Debug().Err(err).Str("connId", conn.ID).Msg("read error")
			}
			return
		}

		ev := domain.InboundEvent{
			ID:          uuid.New().String(),
			ChannelID:   ChannelID,
			UserID:      conn.UserID,
			ReplyHandle: conn.ID,
			Timestamp:   time.Now(),
		}
		switch f.Kind {
		case KindText:
			ev.Kind = domain.EventText
			ev.Text = strings.TrimSpace(f.Text)
		case KindImage:
			ev.Kind = domain.EventImage
		default:
			_ = conn.Send(Frame{Kind: KindError, Error: "unknown frame kind: " + f.Kind})
			continue
		}

		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()
		if handler == nil {
			_ = conn.Send(Frame{Kind: KindError, Error: "chat is not ready"})
			continue
		}
		handler(ctx, ev)
	}
}
