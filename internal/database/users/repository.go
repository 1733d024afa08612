// Package users provides database operations for the user directory.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByDocumentNumber(ctx, "1012345678")
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. Document number and email must be unique.
func (r *Repository) CreateUser(ctx context.Context, user *entities.User) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("document_number = ? OR email = ?", user.DocumentNumber, user.Email).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return loans.NewConflictError("user", user.DocumentNumber, "a user with this document number or email already exists")
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	return r.first(ctx, id, "id = ?", id)
}

// GetUserByDocumentNumber retrieves a user by their identity document number.
func (r *Repository) GetUserByDocumentNumber(ctx context.Context, documentNumber string) (*entities.User, error) {
	return r.first(ctx, documentNumber, "document_number = ?", documentNumber)
}

// GetUserByTokenHash retrieves a user by their hashed API token.
func (r *Repository) GetUserByTokenHash(ctx context.Context, tokenHash string) (*entities.User, error) {
	if tokenHash == "" {
		return nil, loans.NewNotFoundError("user", "")
	}
	return r.first(ctx, "", "token_hash = ?", tokenHash)
}

// ListUsers returns all users ordered by name.
func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	var list []entities.User
	err := r.db.WithContext(ctx).Order("full_name ASC").Find(&list).Error
	return list, err
}

// SetToken stores the hash of a freshly issued API token.
func (r *Repository) SetToken(ctx context.Context, userID, tokenHash string, issuedAt time.Time) error {
	return r.updates(ctx, userID, map[string]any{
		"token_hash":       tokenHash,
		"token_created_at": issuedAt,
	})
}

// ClearToken revokes the user's API token.
func (r *Repository) ClearToken(ctx context.Context, userID string) error {
	return r.updates(ctx, userID, map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
}

// RecordLogin resets the failed login counter and stamps the login time.
func (r *Repository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return r.updates(ctx, userID, map[string]any{
		"last_login_at":      at,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
}

// RecordFailedLogin stores the failed login counter and an optional lock.
func (r *Repository) RecordFailedLogin(ctx context.Context, userID string, failures int, lockedUntil *time.Time) error {
	return r.updates(ctx, userID, map[string]any{
		"failed_login_count": failures,
		"locked_until":       lockedUntil,
	})
}

// SetActive enables or disables a user account.
func (r *Repository) SetActive(ctx context.Context, userID string, active bool) error {
	return r.updates(ctx, userID, map[string]any{"active": active})
}

func (r *Repository) first(ctx context.Context, key string, query string, args ...any) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loans.NewNotFoundError("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *Repository) updates(ctx context.Context, userID string, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return loans.NewNotFoundError("user", userID)
	}
	return nil
}
