package http

import (
	"time"

	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/config"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    Pinger
	LoanService LoanService
	Books       BookStore
	Copies      CopyStore
	Activity    ActivityLog

	// Authentication
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController

	// Task queue (optional)
	TaskQueue     TaskQueue
	Maintenance   Maintenance
	RetentionDays int

	HTTP config.HTTP

	// Location reads date-only request fields. Nil means UTC.
	Location *time.Location

	// Application info
	Version string
}
