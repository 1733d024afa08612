package http

import (
	"context"

	activityRepo "github.com/vicabt/library/internal/database/activity"
	"github.com/vicabt/library/internal/database/copies"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// Each controller depends on the narrow interface below rather than on the
// concrete services, so tests can substitute fakes.

// LoanService is the loan lifecycle used by LoansController and CopiesController.
type LoanService interface {
	RequestLoan(ctx context.Context, p loans.Principal, in loans.RequestLoanInput) (*entities.Loan, error)
	UpdateLoan(ctx context.Context, p loans.Principal, id string, in loans.UpdateLoanInput) (*loans.UpdateResult, error)
	DeleteLoan(ctx context.Context, p loans.Principal, id string) error
	GetLoan(ctx context.Context, p loans.Principal, id string) (*entities.Loan, error)
	ListLoans(ctx context.Context, p loans.Principal) ([]entities.Loan, error)
	ListUserLoans(ctx context.Context, p loans.Principal) ([]entities.Loan, error)
	SetCopyState(ctx context.Context, p loans.Principal, copyID string, state entities.CopyState) (*loans.StateChange, error)
	ReconcileCopies(ctx context.Context) ([]loans.Discrepancy, error)
}

// BookStore provides read access to the catalogue.
type BookStore interface {
	GetBookByID(ctx context.Context, id string) (*entities.Book, error)
	ListBooks(ctx context.Context, query string, activeOnly bool) ([]entities.Book, error)
	GetStats(ctx context.Context) (totalBooks int64, totalCopies int64, err error)
}

// CopyStore manages copy records outside the loan lifecycle.
type CopyStore interface {
	GetCopy(ctx context.Context, id string) (*entities.Copy, error)
	ListByBook(ctx context.Context, bookID string) ([]entities.Copy, error)
	CreateCopy(ctx context.Context, c *entities.Copy) error
	UpdateCopy(ctx context.Context, id string, details copies.CopyDetails) (*entities.Copy, error)
	DeleteCopy(ctx context.Context, id string) error
}

// ActivityLog is the activity service as seen by controllers.
type ActivityLog interface {
	Record(actorID string, kind entities.ActivityKind, entityType, entityID, description string)
	LogStateChange(actorID, copyID string, from, to entities.CopyState)
	GetActivities(ctx context.Context, filter activityRepo.Filter, limit, offset int) ([]entities.Activity, int64, error)
}
