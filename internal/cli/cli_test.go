package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/shopdesk/internal/config"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/soyeahso/shopdesk/internal/session"
	"github.com/soyeahso/shopdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origPaths, origLog := paths, log
	t.Cleanup(func() { paths, log = origPaths, origLog })

	paths = config.Paths{
		Base:    dir,
		Config:  filepath.Join(dir, "config.yaml"),
		EnvFile: filepath.Join(dir, ".env"),
		Data:    filepath.Join(dir, "data"),
		Logs:    filepath.Join(dir, "logs"),
	}
	log = logging.New(nil, "silent")
}

func openCfg() config.Config {
	cfg := config.Defaults()
	cfg.Hours.ClosedDays = nil
	return cfg
}

func turn(id, text string) domain.InboundEvent {
	return domain.InboundEvent{
		ID:        id,
		ChannelID: "console",
		UserID:    "U1",
		Kind:      domain.EventText,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func TestNewRuntimeMemoryRecordsIntakes(t *testing.T) {
	useTempHome(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, openCfg())
	require.NoError(t, err)
	defer rt.Close()

	_, ok := rt.sessions.(*session.MemoryStore)
	assert.True(t, ok)
	require.NotNil(t, rt.intakes)

	for i, in := range []string{"ซ่อมคอม", "no power", "skip"} {
		_, err = rt.engine.Handle(ctx, turn(fmt.Sprintf("e%d", i), in))
		require.NoError(t, err)
	}

	list, err := rt.intakes.List(ctx, store.IntakeFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, string(domain.FlowRepair), list[0].Flow)
	assert.Equal(t, "computer", list[0].Fields["type"])
	assert.Equal(t, "no power", list[0].Fields["detail"])

	st := rt.status(ctx)
	assert.Equal(t, "memory", st["sessionStore"])
	assert.Equal(t, 1, st["intakes"])
	assert.Equal(t, 0, st["activeSessions"], "a completed flow is back at Idle")
	assert.Contains(t, st["hooks"], "flow_completed")
}

func TestNewRuntimeSQLiteSessions(t *testing.T) {
	useTempHome(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := openCfg()
	cfg.Session.Store = "sqlite"
	cfg.Intakes.Record = false
	rt, err := newRuntime(ctx, cfg)
	require.NoError(t, err)
	defer rt.Close()

	_, ok := rt.sessions.(*store.SQLiteSessionStore)
	require.True(t, ok)
	assert.Nil(t, rt.intakes)

	_, err = rt.engine.Handle(ctx, turn("e1", "repair"))
	require.NoError(t, err)
	assert.Equal(t, 1, rt.status(ctx)["activeSessions"])
}

func TestNewRuntimeBadTimezone(t *testing.T) {
	useTempHome(t)
	cfg := openCfg()
	cfg.Intakes.Record = false
	cfg.Hours.Timezone = "Mars/Olympus"

	_, err := newRuntime(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRuntimeRedisUnavailable(t *testing.T) {
	useTempHome(t)
	cfg := openCfg()
	cfg.Intakes.Record = false
	cfg.Session.Store = "redis"
	cfg.Redis.URL = "redis://127.0.0.1:1/0"
	cfg.Redis.DialTimeout = 1

	_, err := newRuntime(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrUnavailable)
}

func TestPrintIntakes(t *testing.T) {
	var buf bytes.Buffer
	err := printIntakes(&buf, []store.Intake{{
		Flow:      "repair",
		ChannelID: "line",
		UserID:    "U1",
		HasImage:  true,
		Fields:    map[string]string{"type": "printer", "detail": "paper jam\nloud noise"},
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local),
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "FLOW")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "detail=paper jam loud noise type=printer")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("FALSE"))
	assert.Equal(t, 8080, parseValue("8080"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, "Asia/Bangkok", parseValue("Asia/Bangkok"))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"version", "serve", "chat", "config", "status", "intakes"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestCheckRaw(t *testing.T) {
	assert.NoError(t, checkRaw(map[string]any{"line": map[string]any{"enabled": true}}),
		"credentials may come from the environment")
	assert.NoError(t, checkRaw(map[string]any{"session": map[string]any{"store": "redis"}}))

	err := checkRaw(map[string]any{"session": map[string]any{"store": "mongo"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.store")

	err = checkRaw(map[string]any{"hours": map[string]any{"open": "18:00", "close": "09:00"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hours")
}
