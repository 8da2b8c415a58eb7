package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/shopdesk/internal/channel"
	"github.com/soyeahso/shopdesk/internal/channel/console"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
	"github.com/soyeahso/shopdesk/internal/routing"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		user      string
		storeKind string
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the intake flows from the terminal",
		Long: "chat runs the conversation engine against stdin and stdout. Type a number to pick " +
			"a quick reply, " + console.CmdImage + " to send a photo and " + console.CmdQuit + " to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if logLevel == "" {
				log = logging.NewStyled("warn", cfg.Logging.ConsoleStyle)
			}
			cfg.Session.Store = storeKind
			cfg.Intakes.Record = record

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			ch := console.New(user, os.Stdin, os.Stdout, log)
			channels := channel.NewRegistry(log)
			if err := channels.Register(ch); err != nil {
				return err
			}
			router := routing.NewRouter(channels, rt.engine, log, routing.WithHooks(rt.hooks))
			router.Wire()

			// An empty turn draws the greeting, the same as a LINE follow.
			router.HandleInbound(ctx, domain.InboundEvent{
				ID:        uuid.New().String(),
				ChannelID: console.ChannelID,
				UserID:    user,
				Kind:      domain.EventText,
				Timestamp: time.Now(),
			})
			return ch.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&user, "user", "local", "user ID for the session")
	cmd.Flags().StringVar(&storeKind, "store", "memory", "session store (memory, sqlite, redis)")
	cmd.Flags().BoolVar(&record, "record", false, "record completed intakes in the database")

	return cmd
}
