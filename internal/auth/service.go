package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/vicabt/library/internal/config"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

var (
	documentPattern = regexp.MustCompile(`^[a-zA-Z0-9]{6,20}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrInvalidCredentials = errors.New("invalid document number or password")
	ErrAccountInactive    = errors.New("account has been deactivated")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrDocumentInvalid    = errors.New("document number must be 6-20 letters or digits")
	ErrNameRequired       = errors.New("full name is required")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("invalid role")
)

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
	GetUserByDocumentNumber(ctx context.Context, documentNumber string) (*entities.User, error)
	GetUserByTokenHash(ctx context.Context, tokenHash string) (*entities.User, error)
	SetToken(ctx context.Context, userID, tokenHash string, issuedAt time.Time) error
	ClearToken(ctx context.Context, userID string) error
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	RecordFailedLogin(ctx context.Context, userID string, failures int, lockedUntil *time.Time) error
}

// NewUser carries the fields needed to register a user.
type NewUser struct {
	DocumentNumber string
	FullName       string
	Email          string
	Phone          string
	Role           string
	Password       string
}

// Service handles authentication and user registration.
type Service struct {
	users  UserStore
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(users UserStore, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		config: cfg,
		now:    time.Now,
	}
}

// CreateUser validates and stores a new active user. Duplicate document
// numbers or emails surface as a loans.ConflictError from the store.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*entities.User, error) {
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if !documentPattern.MatchString(in.DocumentNumber) {
		return nil, ErrDocumentInvalid
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, ErrNameRequired
	}
	// RFC 5321 caps addresses at 254 characters.
	if len(in.Email) > 254 || !emailPattern.MatchString(in.Email) {
		return nil, ErrEmailInvalid
	}
	role, ok := entities.ParseUserRole(in.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	passwordHash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		DocumentNumber: in.DocumentNumber,
		FullName:       strings.TrimSpace(in.FullName),
		Email:          in.Email,
		Phone:          in.Phone,
		Role:           role,
		Active:         true,
		PasswordHash:   passwordHash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate validates credentials and returns the user.
// Accounts are locked after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(ctx context.Context, documentNumber, password string) (*entities.User, error) {
	user, err := s.users.GetUserByDocumentNumber(ctx, strings.TrimSpace(documentNumber))
	if err != nil {
		if loans.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			s.recordFailedLogin(ctx, user, now)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrAccountInactive
	}

	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		log.Printf("WARNING: failed to record login for user %s: %v", user.ID, err)
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return user, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, user *entities.User, now time.Time) {
	failures := user.FailedLoginCount + 1

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	var lockedUntil *time.Time
	if failures >= maxAttempts {
		lockout := s.config.LockoutDuration
		if lockout == 0 {
			lockout = 30 * time.Minute
		}
		until := now.Add(lockout)
		lockedUntil = &until
	}

	if err := s.users.RecordFailedLogin(ctx, user.ID, failures, lockedUntil); err != nil {
		log.Printf("WARNING: failed to record failed login for user %s: %v", user.ID, err)
	}
}

// ValidateToken checks a plaintext token and returns the associated user.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	if !looksLikeToken(token) {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(ctx, HashToken(token))
	if err != nil {
		if loans.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// GenerateToken issues a new API token for a user, replacing any previous one.
// Only the hash is stored; the plaintext is returned once.
func (s *Service) GenerateToken(ctx context.Context, userID string) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.users.SetToken(ctx, userID, hash, s.now()); err != nil {
		return "", err
	}
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(ctx context.Context, userID string) error {
	return s.users.ClearToken(ctx, userID)
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// IsAuthEnabled returns true if requests must carry a bearer token.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode != config.AuthModeNone
}

func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}
