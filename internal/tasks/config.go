package tasks

import (
	"time"

	"github.com/vicabt/library/internal/config"
)

// Config holds configuration for the task queue.
type Config struct {
	Workers           int
	ReleaseAfter      time.Duration // stuck tasks are released back to the queue after this
	CleanupInterval   time.Duration // how often finished tasks are purged
	RetentionDuration time.Duration // how long finished tasks are kept
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// ConfigFrom maps the application task settings onto a Config, keeping the
// defaults for unset values.
func ConfigFrom(cfg config.Tasks) Config {
	out := DefaultConfig()
	if cfg.Workers > 0 {
		out.Workers = cfg.Workers
	}
	if cfg.ReleaseAfter > 0 {
		out.ReleaseAfter = cfg.ReleaseAfter
	}
	if cfg.CleanupInterval > 0 {
		out.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.RetentionDuration > 0 {
		out.RetentionDuration = cfg.RetentionDuration
	}
	return out
}
