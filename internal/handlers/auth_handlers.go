package handlers

import (
	"net/http"
	"time"

	"ddqhub/internal/caching"
	"ddqhub/internal/common"
	"ddqhub/internal/repositories"
	"ddqhub/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
}

func NewAuthHandlers(authService services.AuthService, userRepo repositories.UserRepository, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
	}
}

// TokenResponse is the body both login endpoints return.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginRequest represents the JSON login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login with a JSON body.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return h.issueForCredentials(c, req.Email, req.Password)
}

// Token handles POST /auth/token, the OAuth2 password-grant form. The form's
// username field carries the email.
func (h *AuthHandlers) Token(c echo.Context) error {
	email := c.FormValue("username")
	password := c.FormValue("password")
	return h.issueForCredentials(c, email, password)
}

func (h *AuthHandlers) issueForCredentials(c echo.Context, email, password string) error {
	ctx := c.Request().Context()

	if email == "" || password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	if limited, err := h.cacheSvc.IsRateLimited(ctx, "login:"+email, loginRateLimit, loginRateWindow); err == nil && limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts")
	}

	user, err := h.userRepo.GetActiveByEmail(ctx, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	if !h.authService.VerifyPassword(password, user.PasswordHash) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := h.authService.IssueToken(ctx, user.ID, user.TenantID, user.Role, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me handles GET /me for the authenticated caller.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	user, err := h.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}
