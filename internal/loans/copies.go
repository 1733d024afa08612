package loans

import (
	"context"
	"fmt"

	"github.com/vicabt/library/internal/entities"
)

// StateChange is the outcome of an administrative copy state change.
type StateChange struct {
	Copy *entities.Copy
	From entities.CopyState
}

// SetCopyState lets staff mark a copy available, damaged or lost. The loaned
// state is owned by the loan lifecycle and cannot be set directly, and a copy
// with an open loan keeps its state until the loan is closed.
func (s *Service) SetCopyState(ctx context.Context, p Principal, copyID string, state entities.CopyState) (*StateChange, error) {
	if !p.IsStaff() {
		return nil, &ForbiddenError{Action: "change copy state"}
	}
	if !state.Valid() {
		return nil, NewValidationError("invalid copy state %q", state)
	}
	if state == entities.CopyStateLoaned {
		return nil, NewValidationError("copies are marked loaned by requesting a loan")
	}

	var change *StateChange
	err := s.store.InTx(ctx, func(r Repositories) error {
		cp, err := r.Copies.GetCopy(ctx, copyID)
		if err != nil {
			return err
		}
		open, err := r.Loans.CountOpenLoansForCopy(ctx, cp.ID, "")
		if err != nil {
			return fmt.Errorf("failed to count open loans: %w", err)
		}
		if open > 0 {
			return NewConflictError("copy", cp.ID, "copy has an open loan")
		}

		from := cp.State
		if from != state {
			if err := r.Copies.SetState(ctx, cp.ID, state); err != nil {
				return err
			}
			cp.State = state
		}
		change = &StateChange{Copy: cp, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}
