package middleware

import (
	"net/http"
	"strings"

	"ddqhub/internal/common"
	"ddqhub/internal/repositories"
	"ddqhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware validates the bearer token, loads the referenced user and
// puts {user id, tenant id, role} on the request context. Any failure along
// the way is a 401; the caller never learns which check tripped.
func AuthMiddleware(authSvc services.AuthService, userRepo repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format")
			}

			claims, err := authSvc.ValidateToken(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid subject in token")
			}

			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid tenant in token")
			}

			// The token is only half the story; the user row must still
			// exist and be active.
			user, err := userRepo.GetActiveByID(c.Request().Context(), tenantID, userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found or inactive")
			}

			ctx := common.WithIdentity(c.Request().Context(), user.ID, user.TenantID, user.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
