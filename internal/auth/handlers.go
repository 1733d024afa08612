package auth

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/entities"
)

// LoginRecorder receives login audit entries.
type LoginRecorder interface {
	LogAuth(userID, action, ipAddr string, success bool)
}

// AuthController serves the login and identity endpoints.
type AuthController struct {
	service     *Service
	rateLimiter *RateLimiter
	activity    LoginRecorder
}

func NewAuthController(service *Service, rateLimiter *RateLimiter, activity LoginRecorder) *AuthController {
	return &AuthController{
		service:     service,
		rateLimiter: rateLimiter,
		activity:    activity,
	}
}

func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/auth")
	group.POST("/login", ac.Login)
	group.GET("/me", ac.Me)
	group.POST("/logout", ac.Logout)
}

// Stop releases the rate limiter's background goroutine.
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type loginRequest struct {
	DocumentNumber string `json:"document_number"`
	Password       string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// Login exchanges a document number and password for a bearer token.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.DocumentNumber = strings.TrimSpace(req.DocumentNumber)
	if req.DocumentNumber == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_number and password are required"})
		return
	}

	clientIP := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.DocumentNumber); !allowed {
			tooManyAttempts(c, retryAfter)
			return
		}
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.DocumentNumber, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			if ac.activity != nil {
				ac.activity.LogAuth("", "login as "+req.DocumentNumber, clientIP, false)
			}
			if ac.rateLimiter != nil {
				if locked, retryAfter := ac.rateLimiter.RecordFailure(clientIP, req.DocumentNumber); locked {
					tooManyAttempts(c, retryAfter)
					return
				}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, ErrAccountLocked):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			log.Printf("Login failed for %s: %v", req.DocumentNumber, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.DocumentNumber)
	}

	token, err := ac.service.GenerateToken(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("Failed to issue token for user %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if ac.activity != nil {
		ac.activity.LogAuth(user.ID, "login", clientIP, true)
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

func tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "too many login attempts",
		"retry_after": retryAfter.String(),
	})
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.JSON(http.StatusOK, gin.H{
			"role":      GetUserRole(c),
			"auth_type": GetAuthType(c),
		})
		return
	}

	user, err := ac.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout revokes the caller's token.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID {
		c.Status(http.StatusNoContent)
		return
	}
	if err := ac.service.RevokeToken(c.Request.Context(), userID); err != nil {
		log.Printf("Failed to revoke token for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if ac.activity != nil {
		ac.activity.LogAuth(userID, "logout", c.ClientIP(), true)
	}
	c.Status(http.StatusNoContent)
}
