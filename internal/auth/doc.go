// Package auth provides authentication and authorization for the API.
//
// It supports two authentication modes:
//   - "token": users log in with their document number and password and
//     receive a bearer token (default)
//   - "none": no authentication, every request acts as an administrator
//
// # Configuration
//
//	AUTH_MODE=token                # or "none" for local development
//	AUTH_TOKEN_EXPIRY=720h         # API token lifetime (30 days default)
//	AUTH_BCRYPT_COST=12            # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5      # failures before an account is locked
//	AUTH_RATE_LIMIT_WINDOW=15m     # window for counting failures per client
//	AUTH_LOCKOUT_DURATION=30m      # lock duration
//
// # Usage
//
//	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c) // DefaultUserID in "none" mode
//	role := auth.GetUserRole(c)
//
// Tokens are stored as SHA-256 hashes; the plaintext is returned only once,
// at login.
package auth
