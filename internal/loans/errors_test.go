package loans

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vicabt/library/internal/entities"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "loan abc not found", NewNotFoundError("loan", "abc").Error())
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, "copy c1 is not available (state: loaned)",
		(&CopyUnavailableError{CopyID: "c1", State: entities.CopyStateLoaned}).Error())
	assert.Equal(t, "not allowed to approve loans", (&ForbiddenError{Action: "approve loans"}).Error())
}

func TestErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("request failed: %w", NewConflictError("copy", "c1", "expected state available, found loaned"))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))

	warning := &ReconciliationWarning{LoanID: "l1", CopyID: "c1", Err: NewNotFoundError("copy", "c1")}
	assert.True(t, IsNotFound(warning))
	assert.Contains(t, warning.Error(), "could not be released")

	assert.False(t, IsNotFound(errors.New("boom")))
	assert.True(t, IsValidation(fmt.Errorf("bad input: %w", NewValidationError("code is required"))))
	assert.False(t, IsValidation(wrapped))
}
