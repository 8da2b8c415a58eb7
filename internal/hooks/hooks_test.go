package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func noop(context.Context, Payload) error { return nil }

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventFlowStarted, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventFlowStarted, map[string]any{KeyUserID: "U1", KeyFlow: "REPAIR"})
	assert.Equal(t, EventFlowStarted, got.Event)
	assert.Equal(t, "U1", got.Str(KeyUserID))
	assert.Equal(t, "REPAIR", got.Str(KeyFlow))
}

func TestManager_Emit_RegistrationOrder(t *testing.T) {
	m := testManager()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		m.On(EventMessageReceived, name, func(context.Context, Payload) error {
			order = append(order, name)
			return nil
		})
	}

	m.Emit(context.Background(), EventMessageReceived, nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestManager_On_ReplacesSameName(t *testing.T) {
	m := testManager()

	var calls []string
	m.On(EventFlowCompleted, "log", func(context.Context, Payload) error {
		calls = append(calls, "old")
		return nil
	})
	m.On(EventFlowCompleted, "log", func(context.Context, Payload) error {
		calls = append(calls, "new")
		return nil
	})

	m.Emit(context.Background(), EventFlowCompleted, nil)
	assert.Equal(t, []string{"new"}, calls)
	assert.Equal(t, 1, m.Count(EventFlowCompleted))
}

func TestManager_Emit_ErrorAndPanicDoNotStopOthers(t *testing.T) {
	m := testManager()

	var lastCalled bool
	m.On(EventGatewayStart, "failing", func(context.Context, Payload) error {
		return errors.New("handler broke")
	})
	m.On(EventGatewayStart, "panicking", func(context.Context, Payload) error {
		panic("boom")
	})
	m.On(EventGatewayStart, "last", func(context.Context, Payload) error {
		lastCalled = true
		return nil
	})

	assert.NotPanics(t, func() { m.Emit(context.Background(), EventGatewayStart, nil) })
	assert.True(t, lastCalled)
}

func TestManager_Emit_NoHandlers(t *testing.T) {
	m := testManager()
	assert.NotPanics(t, func() { m.Emit(context.Background(), EventGatewayStop, nil) })
}

func TestManager_EmitAsync(t *testing.T) {
	m := testManager()

	var count atomic.Int32
	m.On(EventMessageSending, "async1", func(context.Context, Payload) error {
		count.Add(1)
		return nil
	})
	m.On(EventMessageSending, "async2", func(context.Context, Payload) error {
		count.Add(1)
		return errors.New("logged, not fatal")
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.EmitAsync(ctx, EventMessageSending, nil)
	cancel()
	m.Wait()

	assert.Equal(t, int32(2), count.Load())
}

func TestManager_CountAndEvents(t *testing.T) {
	m := testManager()
	assert.Equal(t, 0, m.Count(EventGatewayStart))

	m.On(EventGatewayStart, "h1", noop)
	m.On(EventGatewayStart, "h2", noop)
	m.On(EventFlowCompleted, "h3", noop)
	assert.Equal(t, 2, m.Count(EventGatewayStart))

	assert.Equal(t, []string{EventFlowCompleted, EventGatewayStart}, m.Events())

	m.On(EventFlowCompleted, "h3", noop)
	assert.Equal(t, 1, m.Count(EventFlowCompleted), "same name replaces the handler")
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{Data: map[string]any{
		KeyUserID:   "U1",
		KeyHasImage: true,
		KeyFields:   map[string]string{"type": "computer"},
		KeyCount:    3,
	}}
	assert.Equal(t, "U1", p.Str(KeyUserID))
	assert.Equal(t, "", p.Str(KeyCount))
	assert.True(t, p.Bool(KeyHasImage))
	assert.Equal(t, map[string]string{"type": "computer"}, p.Fields())

	var empty Payload
	assert.Equal(t, "", empty.Str(KeyUserID))
	assert.Nil(t, empty.Fields())
}

func TestAllEvents(t *testing.T) {
	require.Len(t, AllEvents, 8)
	assert.Contains(t, AllEvents, EventFlowCompleted)
	assert.Contains(t, AllEvents, EventGatewayStart)
}
