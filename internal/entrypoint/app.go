package entrypoint

import (
	"fmt"
	"log"
	"time"

	"github.com/vicabt/library/internal/activity"
	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/config"
	"github.com/vicabt/library/internal/database"
	activityRepo "github.com/vicabt/library/internal/database/activity"
	"github.com/vicabt/library/internal/database/books"
	"github.com/vicabt/library/internal/database/copies"
	"github.com/vicabt/library/internal/database/users"
	"github.com/vicabt/library/internal/loans"
)

// App holds the database and the services built on top of it. The server
// and the CLI commands share it.
type App struct {
	Config   *config.Config
	Location *time.Location
	DB       *database.Database
	Activity *activity.Service
	Loans    *loans.Service
	Auth     *auth.Service
	Users    *users.Repository
	Books    *books.Repository
	Copies   *copies.Repository
}

// Open connects to the configured database and wires the services.
func Open(cfg *config.Config) (*App, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeNone, config.AuthModeToken:
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE %q (expected %q or %q)", cfg.Auth.Mode, config.AuthModeToken, config.AuthModeNone)
	}

	loc, err := cfg.Global.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	activityService := activity.NewService(activityRepo.NewRepository(db.DB))
	userRepo := users.NewRepository(db.DB)
	loanService := loans.NewService(db.LoanStore(), activityService)
	loanService.SetLocation(loc)

	return &App{
		Config:   cfg,
		Location: loc,
		DB:       db,
		Activity: activityService,
		Loans:    loanService,
		Auth:     auth.NewService(userRepo, cfg.Auth),
		Users:    userRepo,
		Books:    books.NewRepository(db.DB),
		Copies:   copies.NewRepository(db.DB),
	}, nil
}

// Close flushes pending activity entries and closes the database.
func (a *App) Close() {
	a.Activity.Wait()
	if err := a.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
