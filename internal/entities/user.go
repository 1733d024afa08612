package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleLibrarian UserRole = "librarian"
	UserRoleMember    UserRole = "member"
)

// ParseUserRole accepts the role names used on the wire and in the CLI.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case UserRoleAdmin, UserRoleLibrarian, UserRoleMember:
		return UserRole(s), true
	}
	return "", false
}

// IsStaff reports whether the role may act on loans it does not own.
func (r UserRole) IsStaff() bool {
	switch r {
	case UserRoleAdmin, UserRoleLibrarian:
		return true
	case UserRoleMember:
		return false
	}
	return false
}

type User struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	DocumentNumber string     `gorm:"uniqueIndex;size:20;not null" json:"document_number"`
	FullName       string     `gorm:"size:100" json:"full_name"`
	Email          string     `gorm:"uniqueIndex;size:255" json:"email"`
	Phone          string     `gorm:"size:20" json:"phone,omitempty"`
	Role           UserRole   `gorm:"size:20;not null" json:"role"`
	Active         bool       `json:"active"`
	PasswordHash   string     `gorm:"size:255" json:"-"`
	TokenHash      string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt *time.Time `json:"-"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
