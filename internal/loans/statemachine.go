package loans

import (
	"time"

	"github.com/vicabt/library/internal/entities"
)

// Principal is the authenticated caller on whose behalf an operation runs.
type Principal struct {
	UserID string
	Role   entities.UserRole
}

func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

// Event names a transition of the loan lifecycle.
type Event string

const (
	EventRequest Event = "request"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventReturn  Event = "return"
	EventCancel  Event = "cancel"
	// EventEdit covers every change outside the regular lifecycle: date
	// corrections and explicit status overrides by staff.
	EventEdit Event = "edit"
)

// classify maps a status change onto the lifecycle event it represents.
func classify(from, to entities.LoanStatus) Event {
	if from == to {
		return EventEdit
	}
	switch from {
	case entities.LoanStatusRequested:
		switch to {
		case entities.LoanStatusApproved:
			return EventApprove
		case entities.LoanStatusRejected:
			return EventReject
		case entities.LoanStatusCancelled:
			return EventCancel
		case entities.LoanStatusRequested, entities.LoanStatusReturned, entities.LoanStatusOverdue:
			return EventEdit
		}
	case entities.LoanStatusApproved, entities.LoanStatusOverdue:
		switch to {
		case entities.LoanStatusReturned:
			return EventReturn
		case entities.LoanStatusCancelled:
			return EventCancel
		case entities.LoanStatusRequested, entities.LoanStatusApproved,
			entities.LoanStatusRejected, entities.LoanStatusOverdue:
			return EventEdit
		}
	case entities.LoanStatusRejected, entities.LoanStatusReturned, entities.LoanStatusCancelled:
		return EventEdit
	}
	return EventEdit
}

// transition is the outcome of applying an update to a loan in memory.
type transition struct {
	event Event
	from  entities.LoanStatus
	to    entities.LoanStatus
	// releasesCopy is set when the loan stops occupying its copy.
	releasesCopy bool
	// occupiesCopy is set when a closed loan is reopened.
	occupiesCopy bool
}

// UpdateLoanInput carries the optional fields of a loan update. Nil fields
// are left untouched.
type UpdateLoanInput struct {
	DueDate  *time.Time
	LoanDate *time.Time
	Status   *entities.LoanStatus
}

func (in UpdateLoanInput) validate() error {
	if in.DueDate == nil && in.LoanDate == nil && in.Status == nil {
		return NewValidationError("at least one of due_date, loan_date or status is required")
	}
	if in.Status != nil && !in.Status.Valid() {
		return NewValidationError("invalid status %q", *in.Status)
	}
	return nil
}

func (in UpdateLoanInput) changesDates() bool {
	return in.DueDate != nil || in.LoanDate != nil
}

// applyUpdate mutates loan according to in and reports the resulting
// transition. Date order is checked on calendar days in loc. The loan is
// left in an unspecified state on error.
func applyUpdate(loan *entities.Loan, in UpdateLoanInput, now time.Time, loc *time.Location) (transition, error) {
	from := loan.Status
	to := from
	if in.Status != nil {
		to = *in.Status
	}

	if in.LoanDate != nil {
		loan.LoanDate = *in.LoanDate
	}
	if in.DueDate != nil {
		loan.DueDate = *in.DueDate
	}
	if entities.DayIn(loan.DueDate, loc).Before(entities.DayIn(loan.LoanDate, loc)) {
		return transition{}, NewValidationError("due_date must be on or after loan_date")
	}

	t := transition{event: classify(from, to), from: from, to: to}
	if to == from {
		return t, nil
	}

	switch to {
	case entities.LoanStatusReturned:
		returned := now
		loan.ReturnDate = &returned
	case entities.LoanStatusRequested, entities.LoanStatusApproved, entities.LoanStatusRejected,
		entities.LoanStatusOverdue, entities.LoanStatusCancelled:
		loan.ReturnDate = nil
	}
	loan.Status = to

	t.releasesCopy = from.IsOpen() && !to.IsOpen()
	t.occupiesCopy = !from.IsOpen() && to.IsOpen()
	return t, nil
}

// authorize checks whether p may apply t to loan with the given input.
func authorize(p Principal, t transition, in UpdateLoanInput, loan *entities.Loan) error {
	if p.IsStaff() {
		return nil
	}
	switch t.event {
	case EventCancel:
		if loan.UserID != p.UserID {
			return &ForbiddenError{Action: "cancel another user's loan"}
		}
		if in.changesDates() {
			return &ForbiddenError{Action: "change loan dates"}
		}
		return nil
	case EventApprove:
		return &ForbiddenError{Action: "approve loans"}
	case EventReject:
		return &ForbiddenError{Action: "reject loans"}
	case EventReturn:
		return &ForbiddenError{Action: "register returns"}
	case EventRequest, EventEdit:
		return &ForbiddenError{Action: "edit loans"}
	}
	return &ForbiddenError{Action: "update loans"}
}

func activityKind(e Event) entities.ActivityKind {
	switch e {
	case EventRequest:
		return entities.ActivityLoanRequest
	case EventApprove:
		return entities.ActivityLoanApprove
	case EventReject:
		return entities.ActivityLoanReject
	case EventReturn:
		return entities.ActivityLoanReturn
	case EventCancel:
		return entities.ActivityLoanCancel
	case EventEdit:
		return entities.ActivityUpdate
	}
	return entities.ActivityUpdate
}
