package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Every request acts as an administrator
	AuthModeToken AuthMode = "token" // Bearer API tokens issued at login (default)
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Activity
		Tasks
		Maintenance
	}

	HTTP struct {
		Port int32
		Host string
		// CORSOrigins lists the browser origins allowed to call the API.
		// Empty disables CORS headers.
		CORSOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		// Timezone is the IANA zone whose calendar days bound due dates.
		Timezone string
	}
	Database struct {
		Driver string // sqlite or postgres
		Path   string // sqlite file
		DSN    string // postgres connection string
	}
	Auth struct {
		Mode        AuthMode
		TokenExpiry time.Duration
		BcryptCost  int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Activity struct {
		RetentionDays int // Days to keep activity entries (default: 90)
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Maintenance struct {
		Enabled           bool
		CleanupSchedule   string // Cron format: "30 3 * * *" = daily at 03:30
		ReconcileSchedule string // Cron format: "0 * * * *" = hourly
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_origins", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("database_driver", DatabaseDriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("activity_retention_days", 90)

	// Auth defaults
	v.SetDefault("auth_mode", string(AuthModeToken))
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Maintenance schedule defaults
	v.SetDefault("maintenance_enabled", true)
	v.SetDefault("maintenance_cleanup_schedule", "30 3 * * *")
	v.SetDefault("maintenance_reconcile_schedule", "0 * * * *")

	return &Config{
		HTTP: HTTP{
			Port:        v.GetInt32("PORT"),
			Host:        v.GetString("HOST"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			Timezone:                 v.GetString("TIMEZONE"),
		},
		Database: Database{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Activity: Activity{
			RetentionDays: v.GetInt("ACTIVITY_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Maintenance: Maintenance{
			Enabled:           v.GetBool("MAINTENANCE_ENABLED"),
			CleanupSchedule:   v.GetString("MAINTENANCE_CLEANUP_SCHEDULE"),
			ReconcileSchedule: v.GetString("MAINTENANCE_RECONCILE_SCHEDULE"),
		},
	}
}

// Location loads Timezone. An empty value means UTC.
func (g Global) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(g.Timezone))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", g.Timezone, err)
	}
	return loc, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
