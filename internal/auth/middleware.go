package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/config"
	"github.com/vicabt/library/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyDocument = "auth_document_number"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type" // "bearer" or "none"
)

// AuthType indicates how the caller was authenticated
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
)

// DefaultUserID is the principal ID used when authentication is disabled.
const DefaultUserID = ""

// Middleware authenticates API requests with bearer tokens.
type Middleware struct {
	service     *Service
	config      config.Auth
	publicPaths map[string]bool
}

func NewMiddleware(service *Service, cfg config.Auth) *Middleware {
	return &Middleware{
		service: service,
		config:  cfg,
		publicPaths: map[string]bool{
			"/health":         true,
			"/ping":           true,
			"/api/auth/login": true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.tokenHandler()
}

// noAuthHandler lets every request act as an administrator.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, DefaultUserID)
		c.Set(ContextKeyRole, entities.UserRoleAdmin)
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) tokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		user, err := m.service.ValidateToken(c.Request.Context(), token)
		if err != nil {
			message := "invalid token"
			switch {
			case errors.Is(err, ErrTokenExpired):
				message = "token expired"
			case errors.Is(err, ErrAccountInactive):
				message = ErrAccountInactive.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyDocument, user.DocumentNumber)
		c.Set(ContextKeyRole, user.Role)
		c.Set(ContextKeyAuthType, AuthTypeBearer)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole returns a middleware that requires one of the given roles.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !roleSet[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// RequireStaff is RequireRole for administrators and librarians.
func (m *Middleware) RequireStaff() gin.HandlerFunc {
	return m.RequireRole(entities.UserRoleAdmin, entities.UserRoleLibrarian)
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns DefaultUserID if not authenticated or auth is disabled.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(string); ok {
			return userID
		}
	}
	return DefaultUserID
}

func GetDocumentNumber(c *gin.Context) string {
	return c.GetString(ContextKeyDocument)
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
