package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/shopdesk/internal/channel"
	"github.com/soyeahso/shopdesk/internal/channel/line"
	"github.com/soyeahso/shopdesk/internal/channel/webchat"
	"github.com/soyeahso/shopdesk/internal/gateway"
	"github.com/soyeahso/shopdesk/internal/routing"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway and answer chat channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			channels := channel.NewRegistry(log)
			opts := []gateway.ServerOption{
				gateway.WithChannels(channels),
				gateway.WithHooks(rt.hooks),
				gateway.WithStatus(rt.status),
			}

			if cfg.Line.Enabled {
				lc := line.New(cfg.Line, log)
				if err := channels.Register(lc); err != nil {
					return err
				}
				opts = append(opts, gateway.WithWebhook(cfg.Line.WebhookPath, lc))
			}
			if cfg.WebChat.Enabled {
				wc := webchat.New(cfg.Gateway.AllowedOrigins, log)
				if err := channels.Register(wc); err != nil {
					return err
				}
				opts = append(opts, gateway.WithWebChat(cfg.WebChat.Path, wc))
			}
			if channels.Count() == 0 {
				log.Warn().Msg("no channels enabled; only /health and /status will answer")
			}

			var routerOpts []routing.Option
			routerOpts = append(routerOpts, routing.WithHooks(rt.hooks))
			if cfg.Dedup.WindowMinutes > 0 {
				window := time.Duration(cfg.Dedup.WindowMinutes) * time.Minute
				routerOpts = append(routerOpts, routing.WithDeduper(routing.NewDeduper(cfg.Dedup.MaxEntries, window)))
			}
			router := routing.NewRouter(channels, rt.engine, log, routerOpts...)
			router.Wire()

			channels.StartAll(ctx)
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				channels.StopAll(stopCtx)
			}()

			log.Info().
				Strs("channels", channels.List()).
				Str("sessions", cfg.Session.Store).
				Bool("dedup", cfg.Dedup.WindowMinutes > 0).
				Msg("message routing active")

			if err := gateway.New(cfg.Gateway, log, opts...).Start(ctx); err != nil {
				return fmt.Errorf("gateway: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
