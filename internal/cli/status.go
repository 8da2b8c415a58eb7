package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/soyeahso/shopdesk/internal/config"
	"github.com/soyeahso/shopdesk/internal/store"
	"github.com/soyeahso/shopdesk/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show shopdesk status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("shopdesk %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Println("Config:  not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}
			if secrets, err := config.LoadSecrets(paths.EnvFile); err == nil {
				secrets.Apply(&cfg)
			}

			auth := "open"
			if cfg.Gateway.Auth.Token != "" {
				auth = "token"
			}
			fmt.Printf("Gateway: port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, auth, cfg.Gateway.TLS.Enabled)
			fmt.Printf("Session: store=%s idle=%dm\n", cfg.Session.Store, cfg.Session.IdleMinutes)

			if cfg.Line.Enabled {
				fmt.Printf("LINE:    webhook=%s secret=%s token=%s\n",
					cfg.Line.WebhookPath, presence(cfg.Line.ChannelSecret), presence(cfg.Line.ChannelAccessToken))
			} else {
				fmt.Println("LINE:    (disabled)")
			}
			if cfg.WebChat.Enabled {
				fmt.Printf("WebChat: path=%s\n", cfg.WebChat.Path)
			} else {
				fmt.Println("WebChat: (disabled)")
			}

			hours := "every day"
			if len(cfg.Hours.ClosedDays) > 0 {
				hours = "closed " + strings.Join(cfg.Hours.ClosedDays, ",")
			}
			if cfg.Hours.Open != "" {
				hours += fmt.Sprintf(" open %s-%s", cfg.Hours.Open, cfg.Hours.Close)
			}
			fmt.Printf("Hours:   %s (%s)\n", hours, cfg.Hours.Timezone)

			if _, err := os.Stat(paths.Database()); err == nil {
				if db, err := store.Open(paths.Database(), log); err == nil {
					if n, err := store.NewIntakeLog(db).Count(cmd.Context()); err == nil {
						fmt.Printf("Intakes: %d recorded\n", n)
					}
					db.Close()
				}
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

func presence(s string) string {
	if s == "" {
		return "missing"
	}
	return "set"
}
