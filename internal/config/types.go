package config

// Config is the root configuration for shopdesk.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Line     LineConfig     `yaml:"line,omitempty"`
	WebChat  WebChatConfig  `yaml:"webchat,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Redis    RedisConfig    `yaml:"redis,omitempty"`
	Hours    HoursConfig    `yaml:"hours,omitempty"`
	Business BusinessConfig `yaml:"business,omitempty"`
	Dedup    DedupConfig    `yaml:"dedup,omitempty"`
	Intakes  IntakesConfig  `yaml:"intakes,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP server that receives webhooks.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth protects the web chat endpoint. Webhooks carry their own signature.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LineConfig configures the LINE Messaging API channel.
type LineConfig struct {
	Enabled            bool   `yaml:"enabled,omitempty"`
	WebhookPath        string `yaml:"webhookPath,omitempty"`
	APIBase            string `yaml:"apiBase,omitempty"`
	ChannelSecret      string `yaml:"channelSecret,omitempty"`
	ChannelAccessToken string `yaml:"channelAccessToken,omitempty"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds,omitempty"`
}

// WebChatConfig configures the browser chat channel.
type WebChatConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// SessionConfig defines where sessions live and when idle ones expire.
type SessionConfig struct {
	Store       string `yaml:"store,omitempty"`       // "memory" | "sqlite" | "redis"
	IdleMinutes int    `yaml:"idleMinutes,omitempty"` // 0 keeps sessions forever
}

// RedisConfig configures the redis session backend. Timeouts are in seconds.
type RedisConfig struct {
	URL          string `yaml:"url,omitempty"`
	KeyPrefix    string `yaml:"keyPrefix,omitempty"`
	ReadTimeout  int    `yaml:"readTimeout,omitempty"`
	WriteTimeout int    `yaml:"writeTimeout,omitempty"`
	DialTimeout  int    `yaml:"dialTimeout,omitempty"`
}

// HoursConfig defines when the shop answers intake flows.
type HoursConfig struct {
	Timezone   string   `yaml:"timezone,omitempty"`   // IANA zone, e.g. "Asia/Bangkok"
	ClosedDays []string `yaml:"closedDays,omitempty"` // weekday names
	Open       string   `yaml:"open,omitempty"`       // "HH:MM", empty = all day
	Close      string   `yaml:"close,omitempty"`      // "HH:MM"
}

// BusinessConfig is the fixed shop record for the location card.
type BusinessConfig struct {
	Name      string  `yaml:"name,omitempty"`
	Address   string  `yaml:"address,omitempty"`
	Phone     string  `yaml:"phone,omitempty"`
	MapURL    string  `yaml:"mapUrl,omitempty"`
	Latitude  float64 `yaml:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty"`
}

// DedupConfig controls dropping of platform redeliveries.
type DedupConfig struct {
	WindowMinutes int `yaml:"windowMinutes,omitempty"` // 0 disables dedup
	MaxEntries    int `yaml:"maxEntries,omitempty"`
}

// IntakesConfig controls the completed-intake log.
type IntakesConfig struct {
	Record bool `yaml:"record,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
