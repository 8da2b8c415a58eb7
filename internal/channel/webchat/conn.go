package webchat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// ErrConnClosed is returned when writing to a closed connection.
var ErrConnClosed = errors.New("webchat connection closed")

const writeWait = 10 * time.Second

// Conn is one browser connection, bound to a chat user.
type Conn struct {
	ID          string
	UserID      string
	Socket      *websocket.Conn
	ConnectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func newConn(socket *websocket.Conn, userID string) *Conn {
	return &Conn{
		ID:          uuid.New().String(),
		UserID:      userID,
		Socket:      socket,
		ConnectedAt: time.Now(),
	}
}

// Send writes a frame. Safe for concurrent use.
func (c *Conn) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	_ = c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteJSON(f)
}

// Read reads the next frame.
func (c *Conn) Read() (Frame, error) {
	var f Frame
	err := c.Socket.ReadJSON(&f)
	return f, err
}

// Close closes the socket once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Socket.Close()
}

// connRegistry tracks open connections by connection ID.
type connRegistry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	log   *logging.Logger
}

func newConnRegistry(log *logging.Logger) *connRegistry {
	return &connRegistry{conns: make(map[string]*Conn), log: log}
}

func (r *connRegistry) add(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
	r.log.Info().Str("connId", c.ID).Str("user", c.UserID).Msg("webchat connected")
}

func (r *connRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	r.log.Info().Str("connId", id).Msg("webchat disconnected")
}

func (r *connRegistry) get(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// byUser returns the most recent connection of a user.
func (r *connRegistry) byUser(userID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Conn
	for _, c := range r.conns {
		if c.UserID == userID && (found == nil || c.ConnectedAt.After(found.ConnectedAt)) {
			found = c
		}
	}
	return found, found != nil
}

func (r *connRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *connRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		c.Close()
		delete(r.conns, id)
	}
}
