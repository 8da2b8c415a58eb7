package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Secrets are credentials read from the process environment, optionally
// seeded from a .env file.
type Secrets struct {
	ChannelSecret      string `envconfig:"CHANNEL_SECRET"`
	ChannelAccessToken string `envconfig:"CHANNEL_ACCESS_TOKEN"`
	GatewayToken       string `envconfig:"SHOPDESK_GATEWAY_TOKEN"`
	RedisURL           string `envconfig:"REDIS_URL"`
}

// LoadSecrets loads envFile (if it exists) into the environment without
// overriding variables that are already set, then binds Secrets.
func LoadSecrets(envFile string) (Secrets, error) {
	var s Secrets
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return s, &ConfigError{Message: "loading " + envFile + ": " + err.Error()}
		}
	}
	if err := envconfig.Process("", &s); err != nil {
		return s, &ConfigError{Message: "reading environment: " + err.Error()}
	}
	return s, nil
}

// Apply fills credentials the config file left empty. Values in the file win.
func (s Secrets) Apply(cfg *Config) {
	if cfg.Line.ChannelSecret == "" {
		cfg.Line.ChannelSecret = s.ChannelSecret
	}
	if cfg.Line.ChannelAccessToken == "" {
		cfg.Line.ChannelAccessToken = s.ChannelAccessToken
	}
	if cfg.Gateway.Auth.Token == "" {
		cfg.Gateway.Auth.Token = s.GatewayToken
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = s.RedisURL
	}
}
