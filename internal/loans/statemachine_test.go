package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vicabt/library/internal/entities"
)

func statusPtr(s entities.LoanStatus) *entities.LoanStatus {
	return &s
}

func TestClassify(t *testing.T) {
	tests := []struct {
		from, to entities.LoanStatus
		want     Event
	}{
		{entities.LoanStatusRequested, entities.LoanStatusApproved, EventApprove},
		{entities.LoanStatusRequested, entities.LoanStatusRejected, EventReject},
		{entities.LoanStatusRequested, entities.LoanStatusCancelled, EventCancel},
		{entities.LoanStatusApproved, entities.LoanStatusReturned, EventReturn},
		{entities.LoanStatusOverdue, entities.LoanStatusReturned, EventReturn},
		{entities.LoanStatusApproved, entities.LoanStatusCancelled, EventCancel},
		{entities.LoanStatusRequested, entities.LoanStatusReturned, EventEdit},
		{entities.LoanStatusApproved, entities.LoanStatusOverdue, EventEdit},
		{entities.LoanStatusReturned, entities.LoanStatusApproved, EventEdit},
		{entities.LoanStatusCancelled, entities.LoanStatusRequested, EventEdit},
		{entities.LoanStatusApproved, entities.LoanStatusApproved, EventEdit},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.from, tt.to))
		})
	}
}

func TestUpdateLoanInput_Validate(t *testing.T) {
	now := time.Now()

	assert.Error(t, UpdateLoanInput{}.validate())
	assert.Error(t, UpdateLoanInput{Status: statusPtr("lost")}.validate())
	assert.NoError(t, UpdateLoanInput{Status: statusPtr(entities.LoanStatusApproved)}.validate())
	assert.NoError(t, UpdateLoanInput{DueDate: &now}.validate())
	assert.NoError(t, UpdateLoanInput{LoanDate: &now}.validate())
}

func newLoan(status entities.LoanStatus) *entities.Loan {
	loanDate := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &entities.Loan{
		ID:       "loan-1",
		CopyID:   "copy-1",
		UserID:   "member-1",
		LoanDate: loanDate,
		DueDate:  loanDate.AddDate(0, 0, 14),
		Status:   status,
	}
}

func TestApplyUpdate_ReturnStampsDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	loan := newLoan(entities.LoanStatusApproved)

	tr, err := applyUpdate(loan, UpdateLoanInput{Status: statusPtr(entities.LoanStatusReturned)}, now, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, EventReturn, tr.event)
	assert.True(t, tr.releasesCopy)
	assert.False(t, tr.occupiesCopy)
	assert.Equal(t, entities.LoanStatusReturned, loan.Status)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, now, *loan.ReturnDate)
}

func TestApplyUpdate_ReturnedKeepsOriginalDate(t *testing.T) {
	returned := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	loan := newLoan(entities.LoanStatusReturned)
	loan.ReturnDate = &returned

	tr, err := applyUpdate(loan, UpdateLoanInput{Status: statusPtr(entities.LoanStatusReturned)}, time.Now(), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, EventEdit, tr.event)
	assert.False(t, tr.releasesCopy)
	assert.Equal(t, returned, *loan.ReturnDate)
}

func TestApplyUpdate_ReopenClearsReturnDate(t *testing.T) {
	returned := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	loan := newLoan(entities.LoanStatusReturned)
	loan.ReturnDate = &returned

	tr, err := applyUpdate(loan, UpdateLoanInput{Status: statusPtr(entities.LoanStatusApproved)}, time.Now(), time.UTC)
	require.NoError(t, err)

	assert.True(t, tr.occupiesCopy)
	assert.False(t, tr.releasesCopy)
	assert.Nil(t, loan.ReturnDate)
}

func TestApplyUpdate_ReleaseOnRejectAndCancel(t *testing.T) {
	for _, to := range []entities.LoanStatus{entities.LoanStatusRejected, entities.LoanStatusCancelled} {
		t.Run(string(to), func(t *testing.T) {
			loan := newLoan(entities.LoanStatusRequested)
			tr, err := applyUpdate(loan, UpdateLoanInput{Status: statusPtr(to)}, time.Now(), time.UTC)
			require.NoError(t, err)
			assert.True(t, tr.releasesCopy)
			assert.Nil(t, loan.ReturnDate)
		})
	}
}

func TestApplyUpdate_OpenToOpenKeepsCopy(t *testing.T) {
	loan := newLoan(entities.LoanStatusRequested)

	tr, err := applyUpdate(loan, UpdateLoanInput{Status: statusPtr(entities.LoanStatusApproved)}, time.Now(), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, EventApprove, tr.event)
	assert.False(t, tr.releasesCopy)
	assert.False(t, tr.occupiesCopy)
}

func TestApplyUpdate_DueDateBeforeLoanDate(t *testing.T) {
	loan := newLoan(entities.LoanStatusApproved)
	due := loan.LoanDate.AddDate(0, 0, -1)

	_, err := applyUpdate(loan, UpdateLoanInput{DueDate: &due}, time.Now(), time.UTC)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "due_date")
}

func TestApplyUpdate_SameDayDueDate(t *testing.T) {
	loan := newLoan(entities.LoanStatusApproved)
	// Earlier clock time on the same calendar day is still valid.
	due := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := applyUpdate(loan, UpdateLoanInput{DueDate: &due}, time.Now(), time.UTC)
	assert.NoError(t, err)
}

func TestApplyUpdate_DatesCompareInLibraryZone(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	loan := newLoan(entities.LoanStatusApproved)
	// Stamped at 20:00 in Bogota, which is the next day in UTC.
	loan.LoanDate = time.Date(2026, 3, 2, 20, 0, 0, 0, bogota)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, bogota)

	_, err := applyUpdate(loan, UpdateLoanInput{DueDate: &due}, time.Now(), bogota)
	assert.NoError(t, err)

	loan.LoanDate = time.Date(2026, 3, 2, 20, 0, 0, 0, bogota)
	_, err = applyUpdate(loan, UpdateLoanInput{DueDate: &due}, time.Now(), time.UTC)
	assert.True(t, IsValidation(err))
}

func TestAuthorize(t *testing.T) {
	owner := Principal{UserID: "member-1", Role: entities.UserRoleMember}
	stranger := Principal{UserID: "member-2", Role: entities.UserRoleMember}
	librarian := Principal{UserID: "lib-1", Role: entities.UserRoleLibrarian}

	cancel := transition{event: EventCancel}
	approve := transition{event: EventApprove}
	edit := transition{event: EventEdit}
	cancelInput := UpdateLoanInput{Status: statusPtr(entities.LoanStatusCancelled)}
	due := time.Now()

	loan := newLoan(entities.LoanStatusRequested)

	var fe *ForbiddenError
	assert.NoError(t, authorize(owner, cancel, cancelInput, loan))
	assert.ErrorAs(t, authorize(stranger, cancel, cancelInput, loan), &fe)
	assert.ErrorAs(t, authorize(owner, approve, UpdateLoanInput{}, loan), &fe)
	assert.ErrorAs(t, authorize(owner, edit, UpdateLoanInput{DueDate: &due}, loan), &fe)
	assert.ErrorAs(t, authorize(owner, cancel, UpdateLoanInput{Status: cancelInput.Status, DueDate: &due}, loan), &fe)

	assert.NoError(t, authorize(librarian, approve, UpdateLoanInput{}, loan))
	assert.NoError(t, authorize(librarian, edit, UpdateLoanInput{DueDate: &due}, loan))
}

func TestActivityKind(t *testing.T) {
	assert.Equal(t, entities.ActivityLoanReturn, activityKind(EventReturn))
	assert.Equal(t, entities.ActivityLoanCancel, activityKind(EventCancel))
	assert.Equal(t, entities.ActivityUpdate, activityKind(EventEdit))
}
