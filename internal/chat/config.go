package chat

import (
	"os"
	"strconv"
	"time"
)

// Config holds the relay's runtime settings.
type Config struct {
	Addr          string
	MetricsAddr   string
	MaxSessions   int
	SessionBuffer int
	SweepInterval time.Duration
	IdleThreshold time.Duration
}

// DefaultConfig returns the stock settings: the relay's well-known port,
// room for 100 sessions, a sweep every minute, idle after five.
func DefaultConfig() Config {
	return Config{
		Addr:          ":50213",
		MetricsAddr:   ":9090",
		MaxSessions:   100,
		SessionBuffer: 32,
		SweepInterval: time.Minute,
		IdleThreshold: 5 * time.Minute,
	}
}

// ConfigFromEnv builds a Config from CHATRELAY_* environment variables,
// falling back to defaults for anything unset or unparseable.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("CHATRELAY_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if addr := os.Getenv("CHATRELAY_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if v := os.Getenv("CHATRELAY_MAX_SESSIONS"); v != "" {
		cfg.MaxSessions = parsePositiveInt(v, cfg.MaxSessions)
	}
	if v := os.Getenv("CHATRELAY_SWEEP_INTERVAL"); v != "" {
		cfg.SweepInterval = parseSeconds(v, cfg.SweepInterval)
	}
	if v := os.Getenv("CHATRELAY_IDLE_THRESHOLD"); v != "" {
		cfg.IdleThreshold = parseSeconds(v, cfg.IdleThreshold)
	}

	return cfg
}

func parsePositiveInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseSeconds(value string, fallback time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
