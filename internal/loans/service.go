package loans

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vicabt/library/internal/entities"
)

// UserDirectory resolves borrowers.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
	GetUserByDocumentNumber(ctx context.Context, documentNumber string) (*entities.User, error)
}

// CopyLedger is the copy availability ledger. MarkLoaned and MarkAvailable
// are conditional writes that fail with a ConflictError when the copy is
// not in the expected state.
type CopyLedger interface {
	GetCopy(ctx context.Context, id string) (*entities.Copy, error)
	ListCopies(ctx context.Context) ([]entities.Copy, error)
	SetState(ctx context.Context, id string, state entities.CopyState) error
	MarkLoaned(ctx context.Context, id string) error
	MarkAvailable(ctx context.Context, id string) error
}

// LoanStore persists loans.
type LoanStore interface {
	CreateLoan(ctx context.Context, loan *entities.Loan) error
	GetLoan(ctx context.Context, id string) (*entities.Loan, error)
	SaveLoan(ctx context.Context, loan *entities.Loan) error
	DeleteLoan(ctx context.Context, id string) error
	ListLoans(ctx context.Context) ([]entities.Loan, error)
	ListLoansByUser(ctx context.Context, userID string) ([]entities.Loan, error)
	ListOpenLoans(ctx context.Context) ([]entities.Loan, error)
	CountOpenLoansForCopy(ctx context.Context, copyID, excludeLoanID string) (int64, error)
}

// Repositories groups the stores the service works with. A transaction
// hands out a set bound to that transaction.
type Repositories struct {
	Users  UserDirectory
	Copies CopyLedger
	Loans  LoanStore
}

// Transactor provides repositories outside and inside a store transaction.
// InTx commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	Repositories() Repositories
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// ActivityRecorder receives activity log entries. Implementations must not
// block the caller.
type ActivityRecorder interface {
	Record(actorID string, kind entities.ActivityKind, entityType, entityID, description string)
}

// RequestLoanInput carries a loan request.
type RequestLoanInput struct {
	CopyID         string
	DocumentNumber string
	DueDate        time.Time
}

// UpdateResult is the outcome of UpdateLoan. Warning is set when the loan
// was updated but its copy could not be released.
type UpdateResult struct {
	Loan    *entities.Loan
	Warning *ReconciliationWarning
}

// Service orchestrates the loan lifecycle over the ledger and the stores.
type Service struct {
	store    Transactor
	activity ActivityRecorder
	now      func() time.Time
	loc      *time.Location
}

func NewService(store Transactor, activity ActivityRecorder) *Service {
	return &Service{
		store:    store,
		activity: activity,
		now:      time.Now,
		loc:      time.UTC,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetLocation sets the library's time zone. Due-date checks and overdue
// derivation compare calendar days in it. Defaults to UTC.
func (s *Service) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	s.loc = loc
}

// RequestLoan creates a loan in the requested status and marks the copy as
// loaned. Both writes happen in one transaction; if the ledger write fails
// the inserted loan is removed and the ledger error is returned.
func (s *Service) RequestLoan(ctx context.Context, p Principal, in RequestLoanInput) (*entities.Loan, error) {
	now := s.now()
	if err := validateRequest(in, now, s.loc); err != nil {
		return nil, err
	}

	var created *entities.Loan
	err := s.store.InTx(ctx, func(r Repositories) error {
		borrower, err := r.Users.GetUserByDocumentNumber(ctx, in.DocumentNumber)
		if err != nil {
			return err
		}
		if !borrower.Active {
			return NewValidationError("user %s is inactive", in.DocumentNumber)
		}
		if !p.IsStaff() && borrower.ID != p.UserID {
			return &ForbiddenError{Action: "request a loan for another user"}
		}

		cp, err := r.Copies.GetCopy(ctx, in.CopyID)
		if err != nil {
			return err
		}
		if cp.State != entities.CopyStateAvailable {
			return &CopyUnavailableError{CopyID: cp.ID, State: cp.State}
		}

		loan := &entities.Loan{
			CopyID:   cp.ID,
			BookID:   cp.BookID,
			UserID:   borrower.ID,
			LoanDate: now,
			DueDate:  in.DueDate,
			Status:   entities.LoanStatusRequested,
		}
		if err := r.Loans.CreateLoan(ctx, loan); err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		if err := r.Copies.MarkLoaned(ctx, cp.ID); err != nil {
			if delErr := r.Loans.DeleteLoan(ctx, loan.ID); delErr != nil {
				log.Printf("WARNING: failed to remove loan %s after ledger error: %v", loan.ID, delErr)
			}
			return err
		}

		loan.Book = cp.Book
		loan.User = borrower
		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(p.UserID, entities.ActivityLoanRequest, created.ID,
		fmt.Sprintf("Loan requested for copy %s by user %s", created.CopyID, in.DocumentNumber))

	created.EffectiveStatus = created.StatusAt(now, s.loc)
	return created, nil
}

func validateRequest(in RequestLoanInput, now time.Time, loc *time.Location) error {
	var missing []string
	if in.CopyID == "" {
		missing = append(missing, "copy_id")
	}
	if in.DocumentNumber == "" {
		missing = append(missing, "document_number")
	}
	if in.DueDate.IsZero() {
		missing = append(missing, "due_date")
	}
	if len(missing) > 0 {
		return NewValidationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if entities.DayIn(in.DueDate, loc).Before(entities.DayIn(now, loc)) {
		return NewValidationError("due_date cannot be in the past")
	}
	return nil
}

// UpdateLoan applies a status change and/or date edits to a loan.
//
// Closing an open loan releases its copy after the loan row has been
// committed; a failed release does not undo the update and is reported as a
// warning in the result. Reopening a closed loan occupies the copy again in
// the same transaction as the loan update.
func (s *Service) UpdateLoan(ctx context.Context, p Principal, id string, in UpdateLoanInput) (*UpdateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		updated *entities.Loan
		change  transition
	)
	err := s.store.InTx(ctx, func(r Repositories) error {
		loan, err := r.Loans.GetLoan(ctx, id)
		if err != nil {
			return err
		}

		change, err = applyUpdate(loan, in, now, s.loc)
		if err != nil {
			return err
		}
		if err := authorize(p, change, in, loan); err != nil {
			return err
		}

		if change.occupiesCopy {
			open, err := r.Loans.CountOpenLoansForCopy(ctx, loan.CopyID, loan.ID)
			if err != nil {
				return fmt.Errorf("failed to count open loans: %w", err)
			}
			if open > 0 {
				return NewConflictError("copy", loan.CopyID, "copy already has an open loan")
			}
			if err := r.Copies.MarkLoaned(ctx, loan.CopyID); err != nil {
				return err
			}
		}

		if err := r.Loans.SaveLoan(ctx, loan); err != nil {
			return fmt.Errorf("failed to save loan: %w", err)
		}
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Loan: updated}
	if change.releasesCopy {
		if err := s.store.Repositories().Copies.MarkAvailable(ctx, updated.CopyID); err != nil {
			warning := &ReconciliationWarning{LoanID: updated.ID, CopyID: updated.CopyID, Err: err}
			log.Printf("WARNING: %v", warning)
			result.Warning = warning
		}
	}

	s.record(p.UserID, activityKind(change.event), updated.ID, describeTransition(change, updated))

	updated.EffectiveStatus = updated.StatusAt(now, s.loc)
	return result, nil
}

func describeTransition(t transition, loan *entities.Loan) string {
	if t.from == t.to {
		return fmt.Sprintf("Loan %s edited", loan.ID)
	}
	return fmt.Sprintf("Loan %s moved from %s to %s", loan.ID, t.from, t.to)
}

// DeleteLoan removes a loan record. The copy state is not touched.
func (s *Service) DeleteLoan(ctx context.Context, p Principal, id string) error {
	if !p.IsStaff() {
		return &ForbiddenError{Action: "delete loans"}
	}

	repos := s.store.Repositories()
	loan, err := repos.Loans.GetLoan(ctx, id)
	if err != nil {
		return err
	}
	if err := repos.Loans.DeleteLoan(ctx, id); err != nil {
		return err
	}

	if loan.Status.IsOpen() {
		log.Printf("WARNING: deleted open loan %s; copy %s keeps its current state", loan.ID, loan.CopyID)
	}
	s.record(p.UserID, entities.ActivityDelete, loan.ID,
		fmt.Sprintf("Loan %s deleted (status %s)", loan.ID, loan.Status))
	return nil
}

// GetLoan returns a loan visible to the principal.
func (s *Service) GetLoan(ctx context.Context, p Principal, id string) (*entities.Loan, error) {
	loan, err := s.store.Repositories().Loans.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && loan.UserID != p.UserID {
		// Other members' loans are reported as missing.
		return nil, NewNotFoundError("loan", id)
	}
	loan.EffectiveStatus = loan.StatusAt(s.now(), s.loc)
	return loan, nil
}

// ListLoans returns every loan, newest first. Staff only.
func (s *Service) ListLoans(ctx context.Context, p Principal) ([]entities.Loan, error) {
	if !p.IsStaff() {
		return nil, &ForbiddenError{Action: "list all loans"}
	}
	loans, err := s.store.Repositories().Loans.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	s.withEffectiveStatus(loans)
	return loans, nil
}

// ListUserLoans returns the principal's own loans, newest first.
func (s *Service) ListUserLoans(ctx context.Context, p Principal) ([]entities.Loan, error) {
	if p.UserID == "" {
		return nil, NewValidationError("no user associated with this session")
	}
	loans, err := s.store.Repositories().Loans.ListLoansByUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user loans: %w", err)
	}
	s.withEffectiveStatus(loans)
	return loans, nil
}

func (s *Service) withEffectiveStatus(loans []entities.Loan) {
	now := s.now()
	for i := range loans {
		loans[i].EffectiveStatus = loans[i].StatusAt(now, s.loc)
	}
}

func (s *Service) record(actorID string, kind entities.ActivityKind, loanID, description string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(actorID, kind, "loan", loanID, description)
}
