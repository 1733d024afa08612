// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Loan Core
//
//   - Transactor: repositories inside and outside a transaction (internal/loans/service.go)
//   - UserDirectory, CopyLedger, LoanStore: the stores the loan service reads and writes
//   - ActivityRecorder: fire-and-forget activity entries (internal/loans/service.go)
//
// ## HTTP Layer
//
//   - LoanService: the loan lifecycle as seen by controllers (internal/http/stores.go)
//   - BookStore, CopyStore: catalogue access (internal/http/stores.go)
//   - ActivityLog: activity listing and state-change entries (internal/http/stores.go)
//   - TaskQueue: enqueue and inspect background tasks (internal/http/tasks.go)
//   - Maintenance: schedule status and on-demand runs (internal/http/tasks.go)
//   - Pinger: database health (internal/http/health.go)
//
// ## Authentication
//
//   - UserStore: users, password state and API token hashes (internal/auth/service.go)
//   - LoginRecorder: login audit entries (internal/auth/handlers.go)
//
// ## Background Work
//
//   - ActivityCleaner, CopyReconciler, DiscrepancyReporter: task dependencies (internal/tasks/)
//   - Enqueuer: what the maintenance scheduler needs from the queue (internal/scheduler/maintenance.go)
//
// # Adding a New Copy Ledger Backend
//
// The copy ledger must make MarkLoaned and MarkAvailable conditional on the
// current state and return a loans.ConflictError when the condition fails:
//
//	func (r *Repository) MarkLoaned(ctx context.Context, id string) error {
//		res := r.db.WithContext(ctx).Model(&entities.Copy{}).
//			Where("id = ? AND state = ?", id, entities.CopyStateAvailable).
//			Update("state", entities.CopyStateLoaned)
//		...
//	}
//
//	var _ loans.CopyLedger = (*Repository)(nil)
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the entity with the migration list in database.go
//
//  4. Add a compile-time check to checks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
