package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// recorder answers every turn with a device prompt and keeps the events.
type recorder struct {
	ch     *Channel
	events []domain.InboundEvent
}

func (r *recorder) handle(ctx context.Context, ev domain.InboundEvent) {
	r.events = append(r.events, ev)
	_ = r.ch.Send(ctx, domain.Reply{
		UserID:   ev.UserID,
		Messages: []domain.OutboundMessage{compose.Prompt("Which device?", compose.Option("Computer", "computer"), compose.Option("Printer", "printer"))},
	})
}

func run(t *testing.T, input string) (*recorder, string) {
	t.Helper()
	var out bytes.Buffer
	ch := New("local", strings.NewReader(input), &out, testLogger())
	rec := &recorder{ch: ch}
	ch.OnEvent(rec.handle)
	require.NoError(t, ch.Start(context.Background()))
	return rec, out.String()
}

func TestConsoleTurns(t *testing.T) {
	rec, out := run(t, "repair\n2\n/image\n")

	require.Len(t, rec.events, 3)
	assert.Equal(t, "repair", rec.events[0].Text)
	assert.Equal(t, "printer", rec.events[1].Text)
	assert.True(t, rec.events[2].IsImage())
	for _, ev := range rec.events {
		assert.Equal(t, "local", ev.UserID)
		assert.Equal(t, ChannelID, ev.ChannelID)
		assert.NotEmpty(t, ev.ID)
	}

	assert.Contains(t, out, "Which device?")
	assert.Contains(t, out, "  [1] Computer\n")
	assert.Contains(t, out, "  [3] Cancel\n")
}

func TestConsoleNumberOutOfRange(t *testing.T) {
	rec, _ := run(t, "hello\n9\n")
	require.Len(t, rec.events, 2)
	assert.Equal(t, "9", rec.events[1].Text)
}

func TestConsoleQuit(t *testing.T) {
	rec, _ := run(t, "hello\n/quit\nrepair\n")
	assert.Len(t, rec.events, 1)
}

func TestConsoleStopsOnCancel(t *testing.T) {
	ch := New("local", blockingReader{}, &bytes.Buffer{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ch.Start(ctx) }()
	require.Eventually(t, func() bool { return ch.Status().Running }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.False(t, ch.Status().Running)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }

func TestConsoleSummaryCard(t *testing.T) {
	var out bytes.Buffer
	ch := New("local", strings.NewReader(""), &out, testLogger())

	card := compose.Card("Repair request", "#E53935", "We will call you.", "",
		compose.Row("type", "Device", "computer"),
		compose.Row("detail", "Problem", "no power\nfan noise"),
		compose.Row("equipment", "Equipment", ""),
	)
	require.NoError(t, ch.Send(context.Background(), domain.Reply{Messages: []domain.OutboundMessage{card}}))

	s := out.String()
	assert.Contains(t, s, "│ Repair request\n")
	assert.Contains(t, s, "│ Device: computer\n")
	assert.Contains(t, s, "│ Problem: no power\n│   fan noise\n")
	assert.Contains(t, s, "│ Equipment: -\n")
	assert.Contains(t, s, "│ We will call you.\n")
}

func TestConsoleLocation(t *testing.T) {
	var out bytes.Buffer
	ch := New("local", strings.NewReader(""), &out, testLogger())

	loc := compose.Location(domain.BusinessInfo{Name: "Shop", Phone: "02-000-0000"})
	require.NoError(t, ch.Send(context.Background(), domain.Reply{Messages: []domain.OutboundMessage{loc}}))

	s := out.String()
	assert.Contains(t, s, "Shop")
	assert.Contains(t, s, "Phone: 02-000-0000")
	assert.NotContains(t, s, "Address")
}

func TestConsoleCardClearsOptions(t *testing.T) {
	var out bytes.Buffer
	ch := New("local", strings.NewReader(""), &out, testLogger())

	require.NoError(t, ch.Send(context.Background(), domain.Reply{Messages: []domain.OutboundMessage{
		compose.Prompt("pick", compose.Option("A", "a")),
	}}))
	assert.Equal(t, "a", ch.pick("1"))

	require.NoError(t, ch.Send(context.Background(), domain.Reply{Messages: []domain.OutboundMessage{
		compose.Card("Done", "", "", ""),
	}}))
	assert.Equal(t, "1", ch.pick("1"))
}
