// Package gateway runs the HTTP server that fronts the chat channels: the
// LINE webhook, the web chat socket and the health and status endpoints.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soyeahso/shopdesk/internal/channel"
	"github.com/soyeahso/shopdesk/internal/config"
	"github.com/soyeahso/shopdesk/internal/hooks"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// StatusFunc contributes extra fields to the /status report.
type StatusFunc func(ctx context.Context) map[string]any

// mount is a handler served under a fixed path.
type mount struct {
	path    string
	handler http.Handler
	private bool
}

// Server is the shopdesk gateway HTTP server.
type Server struct {
	cfg      config.GatewayConfig
	token    string
	log      *logging.Logger
	channels *channel.Registry
	hooks    *hooks.Manager
	status   StatusFunc
	mounts   []mount
	limiter  *authRateLimiter

	mu        sync.RWMutex
	startedAt time.Time
	addr      string
	ready     chan struct{}
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithChannels sets the channel registry for status reporting.
func WithChannels(ch *channel.Registry) ServerOption {
	return func(s *Server) { s.channels = ch }
}

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) { s.hooks = hm }
}

// WithStatus adds fields to the /status report.
func WithStatus(fn StatusFunc) ServerOption {
	return func(s *Server) { s.status = fn }
}

// WithWebhook mounts a platform webhook. Webhooks verify their own
// signatures, so the gateway token is not required.
func WithWebhook(path string, h http.Handler) ServerOption {
	return func(s *Server) { s.mounts = append(s.mounts, mount{path: path, handler: h}) }
}

// WithWebChat mounts the web chat socket behind the gateway token.
func WithWebChat(path string, h http.Handler) ServerOption {
	return func(s *Server) { s.mounts = append(s.mounts, mount{path: path, handler: h, private: true}) }
}

// New creates a new gateway server.
func New(cfg config.GatewayConfig, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		token:   cfg.Auth.Token,
		log:     log.Sub("gateway"),
		limiter: newAuthRateLimiter(),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.AllowedOrigins)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start listens and serves until ctx is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertPath, s.cfg.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Bind != "loopback" {
		s.log.Warn().Msg("TLS is not enabled; LINE requires an HTTPS webhook, terminate TLS in front of the gateway")
	}
	if s.token == "" && s.cfg.Bind != "loopback" {
		s.log.Warn().Msg("no gateway token set; web chat and status are open to the network")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.startedAt = time.Now()
	s.mu.Unlock()
	close(s.ready)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Bind).
		Int("mounts", len(s.mounts)).
		Msg("gateway server ready")
	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{hooks.KeyAddr: ln.Addr().String()})
	}

	go s.sweepLimiter(ctx, time.Minute)
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		if s.hooks != nil {
			s.hooks.Emit(context.WithoutCancel(ctx), hooks.EventGatewayStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("gateway shutdown incomplete")
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweepLimiter drops stale auth failures until ctx is done.
func (s *Server) sweepLimiter(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.sweep()
		}
	}
}

// Ready is closed once Start is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}
