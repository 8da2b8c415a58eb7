package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// echoHandler answers every event with the event's text, or "[image]".
func echoHandler(ch *Channel, seen *[]domain.InboundEvent, mu *sync.Mutex) domain.EventHandler {
	return func(ctx context.Context, ev domain.InboundEvent) {
		mu.Lock()
		*seen = append(*seen, ev)
		mu.Unlock()
		text := ev.Text
		if ev.IsImage() {
			text = domain.ImageSentinel
		}
		_ = ch.Send(ctx, domain.Reply{
			ChannelID: ev.ChannelID,
			UserID:    ev.UserID,
			Handle:    ev.ReplyHandle,
			Messages:  []domain.OutboundMessage{compose.Prompt(text, compose.Skip)},
		})
	}
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHelloAssignsUser(t *testing.T) {
	ch := New(nil, testLogger())
	srv := httptest.NewServer(ch)
	defer srv.Close()

	hello := readFrame(t, dial(t, srv, ""))
	assert.Equal(t, KindHello, hello.Kind)
	assert.True(t, strings.HasPrefix(hello.UserID, "web-"), hello.UserID)
	assert.Len(t, hello.UserID, 40)
}

func TestHelloResumesUser(t *testing.T) {
	ch := New(nil, testLogger())
	srv := httptest.NewServer(ch)
	defer srv.Close()

	hello := readFrame(t, dial(t, srv, "?user=web-browser_42"))
	assert.Equal(t, "web-browser_42", hello.UserID)

	hello = readFrame(t, dial(t, srv, "?user=web-bad%20id"))
	assert.NotEqual(t, "web-bad id", hello.UserID)
	assert.True(t, strings.HasPrefix(hello.UserID, "web-"))
}

func TestHelloRejectsForeignUserID(t *testing.T) {
	ch := New(nil, testLogger())
	var (
		mu   sync.Mutex
		seen []domain.InboundEvent
	)
	ch.OnEvent(echoHandler(ch, &seen, &mu))
	srv := httptest.NewServer(ch)
	defer srv.Close()

	// A LINE user ID must not let a browser step into that user's session.
	const lineUser = "U4af4980629a1b2c3d4e5f60718293a4b"
	conn := dial(t, srv, "?user="+lineUser)
	hello := readFrame(t, conn)
	assert.NotEqual(t, lineUser, hello.UserID)
	assert.True(t, strings.HasPrefix(hello.UserID, "web-"))

	require.NoError(t, conn.WriteJSON(Frame{Kind: KindText, Text: "status"}))
	readFrame(t, conn)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, hello.UserID, seen[0].UserID)
}

func TestTextRoundTrip(t *testing.T) {
	ch := New(nil, testLogger())
	var (
		mu   sync.Mutex
		seen []domain.InboundEvent
	)
	ch.OnEvent(echoHandler(ch, &seen, &mu))
	srv := httptest.NewServer(ch)
	defer srv.Close()

	conn := dial(t, srv, "?user=web-u1")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Frame{Kind: KindText, Text: "  repair "}))
	reply := readFrame(t, conn)
	assert.Equal(t, KindReply, reply.Kind)
	require.Len(t, reply.Messages, 1)

	var msg struct {
		Kind         string              `json:"kind"`
		Text         string              `json:"text"`
		QuickReplies []domain.QuickReply `json:"quickReplies"`
	}
	require.NoError(t, json.Unmarshal(reply.Messages[0], &msg))
	assert.Equal(t, "text", msg.Kind)
	assert.Equal(t, "repair", msg.Text)
	assert.Equal(t, []domain.QuickReply{compose.Skip, compose.Cancel}, msg.QuickReplies)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, ChannelID, seen[0].ChannelID)
	assert.Equal(t, "web-u1", seen[0].UserID)
	assert.NotEmpty(t, seen[0].ID)
}

func TestImageFrame(t *testing.T) {
	ch := New(nil, testLogger())
	var (
		mu   sync.Mutex
		seen []domain.InboundEvent
	)
	ch.OnEvent(echoHandler(ch, &seen, &mu))
	srv := httptest.NewServer(ch)
	defer srv.Close()

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Frame{Kind: KindImage}))
	readFrame(t, conn)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.True(t, seen[0].IsImage())
}

func TestUnknownFrameKind(t *testing.T) {
	ch := New(nil, testLogger())
	srv := httptest.NewServer(ch)
	defer srv.Close()

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Frame{Kind: "sticker"}))
	f := readFrame(t, conn)
	assert.Equal(t, KindError, f.Kind)
	assert.Contains(t, f.Error, "sticker")
}

func TestNoHandler(t *testing.T) {
	ch := New(nil, testLogger())
	srv := httptest.NewServer(ch)
	defer srv.Close()

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Frame{Kind: KindText, Text: "hi"}))
	assert.Equal(t, KindError, readFrame(t, conn).Kind)
}

func TestSendFallsBackToUser(t *testing.T) {
	ch := New(nil, testLogger())
	srv := httptest.NewServer(ch)
	defer srv.Close()

	conn := dial(t, srv, "?user=web-u7")
	readFrame(t, conn)

	err := ch.Send(context.Background(), domain.Reply{
		UserID:   "web-u7",
		Handle:   "gone",
		Messages: []domain.OutboundMessage{compose.Location(domain.BusinessInfo{Name: "Shop", Phone: "1"})},
	})
	require.NoError(t, err)

	reply := readFrame(t, conn)
	var loc map[string]any
	require.NoError(t, json.Unmarshal(reply.Messages[0], &loc))
	assert.Equal(t, "location", loc["kind"])
	assert.Equal(t, "Shop", loc["name"])
}

func TestSendUnknownUser(t *testing.T) {
	ch := New(nil, testLogger())
	err := ch.Send(context.Background(), domain.Reply{UserID: "nobody", Messages: []domain.OutboundMessage{compose.Text("x")}})
	assert.Error(t, err)
}

func TestStopClosesConnections(t *testing.T) {
	ch := New(nil, testLogger())
	srv := httptest.NewServer(ch)
	defer srv.Close()

	require.NoError(t, ch.Start(context.Background()))
	assert.True(t, ch.Status().Running)

	conn := dial(t, srv, "")
	readFrame(t, conn)
	require.Eventually(t, func() bool { return ch.Connections() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, ch.Stop(context.Background()))
	assert.False(t, ch.Status().Running)

	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestCheckOrigin(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, checkOrigin(nil)(req("")))
	assert.False(t, checkOrigin(nil)(req("https://evil.example")))
	assert.True(t, checkOrigin([]string{"*"})(req("https://any.example")))
	assert.True(t, checkOrigin([]string{"https://shop.example"})(req("https://shop.example")))
	assert.False(t, checkOrigin([]string{"https://shop.example"})(req("https://other.example")))
}

func TestEncodeSummaryCard(t *testing.T) {
	raw, err := encodeMessage(compose.Card("Repair request", "#E53935", "", "", compose.Row("type", "Device", "computer")))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "summary", got["kind"])
	assert.Equal(t, "Repair request", got["title"])
	assert.Equal(t, "#E53935", got["accentColor"])
	assert.Len(t, got["rows"], 1)
}
