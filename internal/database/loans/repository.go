// Package loans stores loan records.
//
// Listings preload the book and the borrower so API responses carry the
// joined summaries without extra round trips.
package loans

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vicabt/library/internal/entities"
	lending "github.com/vicabt/library/internal/loans"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateLoan(ctx context.Context, loan *entities.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(loan).Error
}

func (r *Repository) GetLoan(ctx context.Context, id string) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.withSummaries(ctx).Where("id = ?", id).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lending.NewNotFoundError("loan", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return &loan, nil
}

// SaveLoan writes every column of the loan. Associations are left alone.
func (r *Repository) SaveLoan(ctx context.Context, loan *entities.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(loan).Error
}

func (r *Repository) DeleteLoan(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Loan{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete loan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return lending.NewNotFoundError("loan", id)
	}
	return nil
}

// ListLoans returns all loans, newest first.
func (r *Repository) ListLoans(ctx context.Context) ([]entities.Loan, error) {
	var list []entities.Loan
	err := r.withSummaries(ctx).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListLoansByUser returns a borrower's loans, newest first.
func (r *Repository) ListLoansByUser(ctx context.Context, userID string) ([]entities.Loan, error) {
	var list []entities.Loan
	err := r.withSummaries(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListOpenLoans returns loans that still hold their copy.
func (r *Repository) ListOpenLoans(ctx context.Context) ([]entities.Loan, error) {
	var list []entities.Loan
	err := r.db.WithContext(ctx).
		Where("status IN ?", entities.OpenLoanStatuses()).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// CountOpenLoansForCopy counts open loans on a copy, ignoring excludeLoanID.
func (r *Repository) CountOpenLoansForCopy(ctx context.Context, copyID, excludeLoanID string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("copy_id = ? AND status IN ?", copyID, entities.OpenLoanStatuses())
	if excludeLoanID != "" {
		query = query.Where("id <> ?", excludeLoanID)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *Repository) withSummaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Book").Preload("User")
}
