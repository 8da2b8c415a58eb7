package config

import (
	"fmt"
	"slices"
	"time"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		add("gateway.customBindHost", "required when bind is custom")
	}
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// LINE validation (only if enabled)
	if cfg.Line.Enabled {
		if cfg.Line.ChannelSecret == "" {
			add("line.channelSecret", "required when line is enabled")
		}
		if cfg.Line.ChannelAccessToken == "" {
			add("line.channelAccessToken", "required when line is enabled")
		}
	}

	// Session validation
	validStores := []string{"memory", "sqlite", "redis"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		add("session.store", "must be one of %v, got %q", validStores, cfg.Session.Store)
	}
	if cfg.Session.IdleMinutes < 0 {
		add("session.idleMinutes", "must not be negative, got %d", cfg.Session.IdleMinutes)
	}
	if cfg.Session.Store == "redis" && cfg.Redis.URL == "" {
		add("redis.url", "required when session.store is redis")
	}

	// Hours validation
	if cfg.Hours.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Hours.Timezone); err != nil {
			add("hours.timezone", "unknown time zone %q", cfg.Hours.Timezone)
		}
	}
	for i, d := range cfg.Hours.ClosedDays {
		if _, err := ParseWeekday(d); err != nil {
			add(fmt.Sprintf("hours.closedDays[%d]", i), "unknown weekday %q", d)
		}
	}
	if (cfg.Hours.Open == "") != (cfg.Hours.Close == "") {
		add("hours", "open and close must be set together")
	}
	if cfg.Hours.Open != "" && cfg.Hours.Close != "" {
		open, errOpen := ParseClock(cfg.Hours.Open)
		if errOpen != nil {
			add("hours.open", "want HH:MM, got %q", cfg.Hours.Open)
		}
		closeAt, errClose := ParseClock(cfg.Hours.Close)
		if errClose != nil {
			add("hours.close", "want HH:MM, got %q", cfg.Hours.Close)
		}
		if errOpen == nil && errClose == nil && open >= closeAt {
			add("hours", "open (%s) must be before close (%s)", cfg.Hours.Open, cfg.Hours.Close)
		}
	}

	// Dedup validation
	if cfg.Dedup.WindowMinutes < 0 {
		add("dedup.windowMinutes", "must not be negative, got %d", cfg.Dedup.WindowMinutes)
	}
	if cfg.Dedup.MaxEntries < 0 {
		add("dedup.maxEntries", "must not be negative, got %d", cfg.Dedup.MaxEntries)
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
