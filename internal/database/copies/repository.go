// Package copies is the copy availability ledger.
//
// Every change of a copy's state goes through this repository. MarkLoaned and
// MarkAvailable are single conditional UPDATE statements; when no row
// matches, the copy is re-read to tell a missing copy from a conflicting
// state.
//
// # Usage
//
//	repo := copies.NewRepository(db)
//	if err := repo.MarkLoaned(ctx, copyID); err != nil {
//		// *loans.NotFoundError or *loans.ConflictError
//	}
package copies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

const (
	maxCodeLength     = 50
	maxLocationLength = 100
)

// Repository handles copy persistence and state transitions.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new copies repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetCopy retrieves a copy with its book.
func (r *Repository) GetCopy(ctx context.Context, id string) (*entities.Copy, error) {
	var c entities.Copy
	err := r.db.WithContext(ctx).Preload("Book").Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loans.NewNotFoundError("copy", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get copy: %w", err)
	}
	return &c, nil
}

// ListCopies returns every copy ordered by code.
func (r *Repository) ListCopies(ctx context.Context) ([]entities.Copy, error) {
	var list []entities.Copy
	err := r.db.WithContext(ctx).Order("code ASC").Find(&list).Error
	return list, err
}

// ListByBook returns the copies of one book ordered by code.
func (r *Repository) ListByBook(ctx context.Context, bookID string) ([]entities.Copy, error) {
	var list []entities.Copy
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Order("code ASC").Find(&list).Error
	return list, err
}

// CreateCopy registers a new copy. Copies start available unless a state
// is given.
func (r *Repository) CreateCopy(ctx context.Context, c *entities.Copy) error {
	if c.BookID == "" || c.Code == "" {
		return loans.NewValidationError("book_id and code are required")
	}
	if c.State == "" {
		c.State = entities.CopyStateAvailable
	}
	if !c.State.Valid() {
		return loans.NewValidationError("invalid copy state %q", c.State)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", c.BookID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check book: %w", err)
	}
	if count == 0 {
		return loans.NewNotFoundError("book", c.BookID)
	}

	if err := r.db.WithContext(ctx).Where("code = ?", c.Code).Model(&entities.Copy{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check copy code: %w", err)
	}
	if count > 0 {
		return loans.NewConflictError("copy", c.Code, "a copy with this code already exists")
	}

	if err := r.db.WithContext(ctx).Omit("Book").Create(c).Error; err != nil {
		return fmt.Errorf("failed to create copy: %w", err)
	}
	return nil
}

// CopyDetails carries the editable catalogue fields of a copy. Nil fields
// are left unchanged. The state is not editable here.
type CopyDetails struct {
	Code     *string
	Location *string
}

// UpdateCopy changes the code and shelf location of a copy and returns the
// updated record.
func (r *Repository) UpdateCopy(ctx context.Context, id string, details CopyDetails) (*entities.Copy, error) {
	fields := map[string]any{}
	var code string
	if details.Code != nil {
		code = strings.TrimSpace(*details.Code)
		if code == "" || len(code) > maxCodeLength {
			return nil, loans.NewValidationError("code must be 1-%d characters", maxCodeLength)
		}
		fields["code"] = code
	}
	if details.Location != nil {
		location := strings.TrimSpace(*details.Location)
		if len(location) > maxLocationLength {
			return nil, loans.NewValidationError("location must be at most %d characters", maxLocationLength)
		}
		fields["location"] = location
	}
	if len(fields) == 0 {
		return nil, loans.NewValidationError("no fields to update")
	}

	if _, err := r.GetCopy(ctx, id); err != nil {
		return nil, err
	}
	if code != "" {
		var count int64
		err := r.db.WithContext(ctx).Model(&entities.Copy{}).
			Where("code = ? AND id <> ?", code, id).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check copy code: %w", err)
		}
		if count > 0 {
			return nil, loans.NewConflictError("copy", code, "a copy with this code already exists")
		}
	}

	if err := r.db.WithContext(ctx).Model(&entities.Copy{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("failed to update copy: %w", err)
	}
	return r.GetCopy(ctx, id)
}

// SetState overwrites the state of a copy. Used for administrative
// corrections such as marking a copy damaged or lost.
func (r *Repository) SetState(ctx context.Context, id string, state entities.CopyState) error {
	if !state.Valid() {
		return loans.NewValidationError("invalid copy state %q", state)
	}
	result := r.db.WithContext(ctx).Model(&entities.Copy{}).Where("id = ?", id).Update("state", state)
	if result.Error != nil {
		return fmt.Errorf("failed to update copy state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return loans.NewNotFoundError("copy", id)
	}
	return nil
}

// MarkLoaned moves a copy from available to loaned.
func (r *Repository) MarkLoaned(ctx context.Context, id string) error {
	return r.transition(ctx, id, entities.CopyStateAvailable, entities.CopyStateLoaned)
}

// MarkAvailable moves a copy from loaned back to available. A copy that is
// already available, damaged or lost is reported as a conflict.
func (r *Repository) MarkAvailable(ctx context.Context, id string) error {
	return r.transition(ctx, id, entities.CopyStateLoaned, entities.CopyStateAvailable)
}

func (r *Repository) transition(ctx context.Context, id string, from, to entities.CopyState) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Copy{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update copy state: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.GetCopy(ctx, id)
	if err != nil {
		return err
	}
	return loans.NewConflictError("copy", id,
		fmt.Sprintf("expected state %s, found %s", from, current.State))
}

// DeleteCopy removes a copy. A loaned copy cannot be deleted.
func (r *Repository) DeleteCopy(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND state <> ?", id, entities.CopyStateLoaned).
		Delete(&entities.Copy{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete copy: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	if _, err := r.GetCopy(ctx, id); err != nil {
		return err
	}
	return loans.NewConflictError("copy", id, "copy is on loan")
}
