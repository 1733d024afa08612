package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/vicabt/library/internal/activity"
	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/database"
	"github.com/vicabt/library/internal/database/books"
	"github.com/vicabt/library/internal/database/copies"
	loanRepo "github.com/vicabt/library/internal/database/loans"
	"github.com/vicabt/library/internal/database/users"
	"github.com/vicabt/library/internal/http"
	"github.com/vicabt/library/internal/loans"
	"github.com/vicabt/library/internal/scheduler"
	"github.com/vicabt/library/internal/tasks"
)

// =============================================================================
// Loan Core
// =============================================================================

var _ loans.Transactor = (*database.LoanStore)(nil)
var _ loans.UserDirectory = (*users.Repository)(nil)
var _ loans.CopyLedger = (*copies.Repository)(nil)
var _ loans.LoanStore = (*loanRepo.Repository)(nil)
var _ loans.ActivityRecorder = (*activity.Service)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.LoanService = (*loans.Service)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.CopyStore = (*copies.Repository)(nil)
var _ http.ActivityLog = (*activity.Service)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.Maintenance = (*scheduler.MaintenanceScheduler)(nil)

// =============================================================================
// Authentication
// =============================================================================

var _ auth.UserStore = (*users.Repository)(nil)
var _ auth.LoginRecorder = (*activity.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.ActivityCleaner = (*activity.Service)(nil)
var _ tasks.CopyReconciler = (*loans.Service)(nil)
var _ tasks.DiscrepancyReporter = (*activity.Service)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
