// Package console implements a line-oriented chat channel on a terminal,
// used by "shopdesk chat" to walk through the flows locally.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// ChannelID identifies the console channel.
const ChannelID = "console"

// REPL commands.
const (
	CmdImage = "/image"
	CmdQuit  = "/quit"
)

// Channel reads user turns from in and writes replies to out.
type Channel struct {
	userID string
	in     io.Reader
	out    io.Writer
	log    *logging.Logger

	mu      sync.Mutex
	handler domain.EventHandler
	options []domain.QuickReply
	running bool
}

// New creates a console channel speaking as userID.
func New(userID string, in io.Reader, out io.Writer, log *logging.Logger) *Channel {
	return &Channel{userID: userID, in: in, out: out, log: log.Sub("console")}
}

func (c *Channel) ID() string { return ChannelID }

func (c *Channel) OnEvent(handler domain.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Status returns the current runtime status.
func (c *Channel) Status() domain.ChannelStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ChannelStatus{ChannelID: ChannelID, Running: c.running}
}

// Start runs the read loop until input ends, the user types /quit or ctx
// is cancelled. A number picks the matching quick reply of the last
// prompt.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			line = strings.TrimSpace(line)
			if line == CmdQuit {
				return nil
			}
			c.dispatch(ctx, line)
			c.prompt()
		}
	}
}

func (c *Channel) Stop(ctx context.Context) error { return nil }

func (c *Channel) dispatch(ctx context.Context, line string) {
	ev := domain.InboundEvent{
		ID:        uuid.New().String(),
		ChannelID: ChannelID,
		UserID:    c.userID,
		Kind:      domain.EventText,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	handler := c.handler
	switch {
	case line == CmdImage:
		ev.Kind = domain.EventImage
	default:
		ev.Text = c.pick(line)
	}
	c.mu.Unlock()

	if handler == nil {
		fmt.Fprintln(c.out, "(no handler registered)")
		return
	}
	handler(ctx, ev)
}

// pick resolves a numeric answer against the last quick replies.
// Callers hold c.mu.
func (c *Channel) pick(line string) string {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(c.options) {
		return line
	}
	return c.options[n-1].Text
}

func (c *Channel) prompt() {
	fmt.Fprint(c.out, "> ")
}

// Send prints the reply.
func (c *Channel) Send(ctx context.Context, reply domain.Reply) error {
	var b strings.Builder
	var options []domain.QuickReply
	for _, m := range reply.Messages {
		switch v := m.(type) {
		case domain.PlainText:
			writeText(&b, v)
			options = v.QuickReplies
		case domain.SummaryCard:
			writeSummary(&b, v)
			options = nil
		case domain.LocationCard:
			writeLocation(&b, v)
			options = nil
		}
	}

	c.mu.Lock()
	c.options = options
	c.mu.Unlock()

	_, err := io.WriteString(c.out, b.String())
	return err
}
