package handlers

import (
	"net/http"
	"strconv"

	"ddqhub/internal/common"
	"ddqhub/internal/models"
	"ddqhub/internal/repositories"
	"ddqhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles tenant user administration
type UserHandlers struct {
	userRepo    repositories.UserRepository
	authService services.AuthService
}

func NewUserHandlers(userRepo repositories.UserRepository, authService services.AuthService) *UserHandlers {
	return &UserHandlers{
		userRepo:    userRepo,
		authService: authService,
	}
}

// ListUsers handles GET /users (admin).
func (h *UserHandlers) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	users, err := h.userRepo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list users")
	}
	if users == nil {
		users = []*models.User{}
	}

	return c.JSON(http.StatusOK, users)
}

// CreateUserRequest is the POST /users payload.
type CreateUserRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      string  `json:"role"`
}

// CreateUser handles POST /users (admin). The new user always lands in the
// caller's tenant.
func (h *UserHandlers) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email, password and first name are required")
	}

	if !models.ValidRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: admin, analyst, viewer")
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsActive:     true,
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already exists in this tenant")
	}

	return c.JSON(http.StatusCreated, user)
}
