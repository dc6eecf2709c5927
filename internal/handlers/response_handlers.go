package handlers

import (
	"errors"
	"net/http"

	"ddqhub/internal/common"
	"ddqhub/internal/models"
	"ddqhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// ResponseHandlers handles HTTP requests for responses
type ResponseHandlers struct {
	responseRepo repositories.ResponseRepository
	questionRepo repositories.QuestionRepository
}

func NewResponseHandlers(responseRepo repositories.ResponseRepository, questionRepo repositories.QuestionRepository) *ResponseHandlers {
	return &ResponseHandlers{
		responseRepo: responseRepo,
		questionRepo: questionRepo,
	}
}

// ListResponses handles GET /responses with an optional status filter.
func (h *ResponseHandlers) ListResponses(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var statusFilter *string
	if raw := c.QueryParam("status"); raw != "" {
		if !models.ValidResponseStatus(raw) {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be one of: draft, final, rejected")
		}
		statusFilter = &raw
	}

	responses, err := h.responseRepo.List(ctx, tenantID, statusFilter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list responses")
	}
	if responses == nil {
		responses = []*models.Response{}
	}

	return c.JSON(http.StatusOK, responses)
}

// GetResponse handles GET /responses/:question_id. A question in another
// tenant reads as not found.
func (h *ResponseHandlers) GetResponse(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	questionID, err := h.questionInTenant(c, tenantID)
	if err != nil {
		return err
	}

	response, err := h.responseRepo.GetByQuestion(ctx, tenantID, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Response not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get response")
	}

	return c.JSON(http.StatusOK, response)
}

// UpsertResponseRequest is the PUT /responses/:question_id payload.
type UpsertResponseRequest struct {
	Answer *string `json:"answer"`
	Status *string `json:"status"`
}

// UpsertResponse handles PUT /responses/:question_id (admin/analyst). The
// single response per (tenant, question) is created or updated atomically.
func (h *ResponseHandlers) UpsertResponse(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	questionID, err := h.questionInTenant(c, tenantID)
	if err != nil {
		return err
	}

	var req UpsertResponseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	status := models.ResponseDraft
	if req.Status != nil {
		if !models.ValidResponseStatus(*req.Status) {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be one of: draft, final, rejected")
		}
		status = *req.Status
	}

	response := &models.Response{
		ID:         uuid.New(),
		TenantID:   tenantID,
		QuestionID: questionID,
		Answer:     req.Answer,
		Status:     status,
		UpdatedBy:  &userID,
	}

	if err := h.responseRepo.Upsert(ctx, response); err != nil {
		// ON CONFLICT makes duplicates impossible; anything surfacing here
		// is a genuine conflict or storage fault
		return echo.NewHTTPError(http.StatusConflict, "Failed to save response")
	}

	saved, err := h.responseRepo.GetByQuestion(ctx, tenantID, questionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load saved response")
	}

	return c.JSON(http.StatusOK, saved)
}

// questionInTenant parses the path param and verifies the question belongs
// to the caller's tenant, returning 404 either way when it doesn't.
func (h *ResponseHandlers) questionInTenant(c echo.Context, tenantID uuid.UUID) (uuid.UUID, error) {
	questionID, err := common.ValidateUUID(c.Param("question_id"), "question_id")
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.questionRepo.GetByID(c.Request().Context(), tenantID, questionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, "Question not found")
		}
		return uuid.Nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to check question")
	}

	return questionID, nil
}
