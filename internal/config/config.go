package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort        = 18790
	DefaultWebhookPath = "/callback"
	DefaultLineAPIBase = "https://api.line.me"
	DefaultWebChatPath = "/ws"
	DefaultTimezone    = "Asia/Bangkok"
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: DefaultPort,
			Bind: "loopback",
		},
		Line: LineConfig{
			WebhookPath:    DefaultWebhookPath,
			APIBase:        DefaultLineAPIBase,
			TimeoutSeconds: 10,
		},
		WebChat: WebChatConfig{
			Path: DefaultWebChatPath,
		},
		Session: SessionConfig{
			Store:       "memory",
			IdleMinutes: 60,
		},
		Redis: RedisConfig{
			KeyPrefix:    "shopdesk:session:",
			ReadTimeout:  3,
			WriteTimeout: 3,
			DialTimeout:  5,
		},
		Hours: HoursConfig{
			Timezone:   DefaultTimezone,
			ClosedDays: []string{"sunday"},
		},
		Business: BusinessConfig{
			Name: "shopdesk",
		},
		Dedup: DedupConfig{
			WindowMinutes: 10,
			MaxEntries:    10000,
		},
		Intakes: IntakesConfig{
			Record: true,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
