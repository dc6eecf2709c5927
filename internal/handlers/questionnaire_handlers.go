package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ddqhub/internal/common"
	"ddqhub/internal/models"
	"ddqhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// QuestionnaireHandlers handles HTTP requests for questionnaires
type QuestionnaireHandlers struct {
	questionnaireRepo repositories.QuestionnaireRepository
}

func NewQuestionnaireHandlers(questionnaireRepo repositories.QuestionnaireRepository) *QuestionnaireHandlers {
	return &QuestionnaireHandlers{questionnaireRepo: questionnaireRepo}
}

// ListQuestionnaires handles GET /questionnaires.
func (h *QuestionnaireHandlers) ListQuestionnaires(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	questionnaires, err := h.questionnaireRepo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list questionnaires")
	}
	if questionnaires == nil {
		questionnaires = []*models.Questionnaire{}
	}

	return c.JSON(http.StatusOK, questionnaires)
}

// GetQuestionnaire handles GET /questionnaires/:id.
func (h *QuestionnaireHandlers) GetQuestionnaire(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	questionnaire, err := h.questionnaireRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Questionnaire not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get questionnaire")
	}

	return c.JSON(http.StatusOK, questionnaire)
}

// CreateQuestionnaireRequest is the POST /questionnaires payload.
type CreateQuestionnaireRequest struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// CreateQuestionnaire handles POST /questionnaires (admin).
func (h *QuestionnaireHandlers) CreateQuestionnaire(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req CreateQuestionnaireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	version := req.Version
	if version <= 0 {
		version = 1
	}

	questionnaire := &models.Questionnaire{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      req.Name,
		Status:    "draft",
		Version:   version,
		CreatedBy: userID,
	}

	if err := h.questionnaireRepo.Create(ctx, questionnaire); err != nil {
		// (tenant_id, name, version) is unique
		return echo.NewHTTPError(http.StatusConflict, "Questionnaire with this name and version already exists")
	}

	return c.JSON(http.StatusCreated, questionnaire)
}
