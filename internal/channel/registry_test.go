package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// mockChannel is a test double for domain.Channel.
type mockChannel struct {
	id       string
	mu       sync.Mutex
	started  bool
	stopped  bool
	sent     []domain.Reply
	handler  domain.EventHandler
	startErr error
	stopErr  error
}

func (m *mockChannel) ID() string { return m.id }
func (m *mockChannel) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return m.startErr
}
func (m *mockChannel) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return m.stopErr
}
func (m *mockChannel) Send(_ context.Context, reply domain.Reply) error {
	m.sent = append(m.sent, reply)
	return nil
}
func (m *mockChannel) OnEvent(h domain.EventHandler) { m.handler = h }

func (m *mockChannel) isStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// reportingChannel also reports its own status.
type reportingChannel struct{ mockChannel }

func (c *reportingChannel) Status() domain.ChannelStatus {
	return domain.ChannelStatus{ChannelID: c.id, Running: false, LastError: "not connected"}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&mockChannel{id: "line"}))

	got, ok := reg.Get("line")
	require.True(t, ok)
	assert.Equal(t, "line", got.ID())

	_, ok = reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&mockChannel{id: "line"}))
	assert.Error(t, reg.Register(&mockChannel{id: "line"}))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry(testLogger())
	for _, id := range []string{"webchat", "console", "line"} {
		require.NoError(t, reg.Register(&mockChannel{id: id}))
	}
	assert.Equal(t, []string{"console", "line", "webchat"}, reg.List())
	assert.Equal(t, 3, reg.Count())
}

func TestRegistry_Status(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&mockChannel{id: "line"}))
	require.NoError(t, reg.Register(&reportingChannel{mockChannel{id: "webchat"}}))

	statuses := reg.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, domain.ChannelStatus{ChannelID: "line", Running: true}, statuses[0])
	assert.Equal(t, "not connected", statuses[1].LastError)
}

func TestRegistry_StartAllAndStopAll(t *testing.T) {
	reg := NewRegistry(testLogger())
	ch1 := &mockChannel{id: "line"}
	ch2 := &mockChannel{id: "webchat"}
	require.NoError(t, reg.Register(ch1))
	require.NoError(t, reg.Register(ch2))

	reg.StartAll(context.Background())
	assert.Eventually(t, ch1.isStarted, time.Second, 10*time.Millisecond)
	assert.Eventually(t, ch2.isStarted, time.Second, 10*time.Millisecond)

	reg.StopAll(context.Background())
	assert.True(t, ch1.stopped)
	assert.True(t, ch2.stopped)
}

func TestRegistry_StartErrorRecorded(t *testing.T) {
	reg := NewRegistry(testLogger())
	ch := &mockChannel{id: "broken", startErr: assert.AnError}
	require.NoError(t, reg.Register(ch))

	reg.StartAll(context.Background())
	reg.StopAll(context.Background())

	statuses := reg.Status()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Running)
	assert.Equal(t, assert.AnError.Error(), statuses[0].LastError)
}
