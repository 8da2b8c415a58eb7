package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/shopdesk/internal/config"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/engine"
	"github.com/soyeahso/shopdesk/internal/hooks"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/soyeahso/shopdesk/internal/session"
	"github.com/soyeahso/shopdesk/internal/store"
)

const sweepInterval = 5 * time.Minute

// loadConfig reads the config file, fills credentials from the environment
// and the .env file, and rejects invalid settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}

	secrets, err := config.LoadSecrets(paths.EnvFile)
	if err != nil {
		return cfg, err
	}
	secrets.Apply(&cfg)

	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}

	if logLevel == "" {
		log = logging.NewStyled(cfg.Logging.Level, cfg.Logging.ConsoleStyle)
	}
	return cfg, nil
}

// runtime is the engine and everything behind it, shared by serve and chat.
type runtime struct {
	cfg      config.Config
	db       *store.DB
	sessions session.Store
	intakes  *store.IntakeLog
	hooks    *hooks.Manager
	engine   *engine.Engine
	closers  []func() error
}

// newRuntime opens the configured session backend and builds the engine.
// Background sweepers stop when ctx is done.
func newRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg, hooks: hooks.NewManager(log)}
	ttl := time.Duration(cfg.Session.IdleMinutes) * time.Minute

	if cfg.Session.Store == "sqlite" || cfg.Intakes.Record {
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("creating data directories: %w", err)
		}
		db, err := store.Open(paths.Database(), log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		rt.db = db
		rt.closers = append(rt.closers, db.Close)
	}

	switch cfg.Session.Store {
	case "sqlite":
		st := store.NewSQLiteSessionStore(rt.db, ttl)
		go sweepSQLite(ctx, st)
		rt.sessions = st
		log.Info().Str("path", paths.Database()).Msg("using SQLite session store")
	case "redis":
		rdb, err := session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, rdb.Close)
		rt.sessions = session.NewRedisStore(rdb, cfg.Redis.KeyPrefix, ttl)
		log.Info().Str("prefix", cfg.Redis.KeyPrefix).Msg("using redis session store")
	default:
		mem := session.NewMemoryStore(ttl)
		mem.StartSweeper(ctx, sweepInterval)
		rt.sessions = mem
		log.Info().Msg("using in-memory session store")
	}

	if cfg.Intakes.Record && rt.db != nil {
		rt.intakes = store.NewIntakeLog(rt.db)
		rt.intakes.Subscribe(rt.hooks)
	}

	opts := []engine.Option{engine.WithHooks(rt.hooks)}
	gate, err := engine.NewGateFromConfig(cfg.Hours)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("business hours: %w", err)
	}
	info := domain.BusinessInfo{
		Name:      cfg.Business.Name,
		Address:   cfg.Business.Address,
		Phone:     cfg.Business.Phone,
		MapURL:    cfg.Business.MapURL,
		Latitude:  cfg.Business.Latitude,
		Longitude: cfg.Business.Longitude,
	}
	if gate != nil {
		opts = append(opts, engine.WithGate(gate))
		info.Hours = gate.Describe()
	}
	opts = append(opts, engine.WithBusiness(info))

	rt.engine = engine.New(rt.sessions, log, opts...)
	return rt, nil
}

// status reports session and intake counts for /status.
func (rt *runtime) status(ctx context.Context) map[string]any {
	out := map[string]any{
		"sessionStore": rt.cfg.Session.Store,
		"hooks":        rt.hooks.Events(),
	}
	if st, ok := rt.sessions.(interface {
		Active(context.Context) ([]domain.Session, error)
	}); ok {
		if active, err := st.Active(ctx); err == nil {
			out["activeSessions"] = len(active)
		}
	}
	if rt.intakes != nil {
		if n, err := rt.intakes.Count(ctx); err == nil {
			out["intakes"] = n
		}
	}
	return out
}

// Close waits for async hooks and releases backends in reverse order.
func (rt *runtime) Close() error {
	rt.hooks.Wait()
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func sweepSQLite(ctx context.Context, st *store.SQLiteSessionStore) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := st.Sweep(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("expired sessions swept")
			}
		}
	}
}
