package handlers

import (
	"net/http"
	"time"

	"ddqhub/internal/common"
	"ddqhub/internal/models"
	"ddqhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// QuestionHandlers handles HTTP requests for questions
type QuestionHandlers struct {
	questionRepo      repositories.QuestionRepository
	questionnaireRepo repositories.QuestionnaireRepository
}

func NewQuestionHandlers(questionRepo repositories.QuestionRepository, questionnaireRepo repositories.QuestionnaireRepository) *QuestionHandlers {
	return &QuestionHandlers{
		questionRepo:      questionRepo,
		questionnaireRepo: questionnaireRepo,
	}
}

// ListQuestions handles GET /questions, optionally filtered by
// questionnaire_id, ordered by display_order.
func (h *QuestionHandlers) ListQuestions(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var questionnaireID *uuid.UUID
	if raw := c.QueryParam("questionnaire_id"); raw != "" {
		id, err := common.ValidateUUID(raw, "questionnaire_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		questionnaireID = &id
	}

	questions, err := h.questionRepo.List(ctx, tenantID, questionnaireID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list questions")
	}
	if questions == nil {
		questions = []*models.Question{}
	}

	return c.JSON(http.StatusOK, questions)
}

// CreateQuestionRequest is the POST /questions payload.
type CreateQuestionRequest struct {
	QuestionnaireID string  `json:"questionnaire_id"`
	Text            string  `json:"text"`
	Category        *string `json:"category"`
	IsRequired      bool    `json:"is_required"`
	DisplayOrder    *int    `json:"display_order"`
}

// CreateQuestion handles POST /questions (admin/analyst). The questionnaire
// must belong to the caller's tenant; a foreign id reads as not found.
func (h *QuestionHandlers) CreateQuestion(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req CreateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := common.ValidateRequiredString(req.Text, "text"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	questionnaireID, err := common.ValidateUUID(req.QuestionnaireID, "questionnaire_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	owned, err := h.questionnaireRepo.ExistsInTenant(ctx, tenantID, questionnaireID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check questionnaire")
	}
	if !owned {
		return echo.NewHTTPError(http.StatusNotFound, "Questionnaire not found")
	}

	question := &models.Question{
		ID:              uuid.New(),
		TenantID:        tenantID,
		QuestionnaireID: questionnaireID,
		Text:            req.Text,
		Category:        req.Category,
		DisplayOrder:    req.DisplayOrder,
		IsRequired:      req.IsRequired,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := h.questionRepo.Create(ctx, question); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create question")
	}

	return c.JSON(http.StatusCreated, question)
}
