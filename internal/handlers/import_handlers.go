package handlers

import (
	"io"
	"log"
	"net/http"

	"ddqhub/internal/common"
	"ddqhub/internal/jobs"
	"ddqhub/internal/jobs/background"
	"ddqhub/internal/models"
	"ddqhub/internal/services"

	"github.com/labstack/echo/v4"
)

// ImportHandlers handles bulk question imports
type ImportHandlers struct {
	importer   *jobs.QuestionImporter
	worker     *background.ImportWorker
	archiveSvc services.ArchiveService
}

func NewImportHandlers(importer *jobs.QuestionImporter, worker *background.ImportWorker, archiveSvc services.ArchiveService) *ImportHandlers {
	return &ImportHandlers{
		importer:   importer,
		worker:     worker,
		archiveSvc: archiveSvc,
	}
}

// ImportQuestionsResponse wraps the summary for the sync path.
type ImportQuestionsResponse struct {
	Mode   string `json:"mode"`
	Format string `json:"format"`
	models.ImportSummary
}

// ImportAccepted is the receipt for the async path.
type ImportAccepted struct {
	Mode   string `json:"mode"`
	Status string `json:"status"`
	Format string `json:"format"`
	Note   string `json:"note"`
}

// ImportQuestions handles POST /imports/questions?sync=true|false
// (admin/analyst), multipart file upload.
func (h *ImportHandlers) ImportQuestions(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File upload is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to open uploaded file")
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}

	format := jobs.DetectFormat(fileHeader.Filename, fileHeader.Header.Get("Content-Type"))

	// Keep the original bytes around for replay; never block the import on it
	if h.archiveSvc != nil {
		if _, err := h.archiveSvc.ArchiveImport(ctx, tenantID, fileHeader.Filename, payload); err != nil {
			log.Printf("Failed to archive import payload for tenant %s: %v", tenantID.String(), err)
		}
	}

	if c.QueryParam("sync") == "true" {
		rows, err := jobs.ParseRows(payload, format)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Parse error: "+err.Error())
		}

		summary := h.importer.Run(ctx, tenantID, rows)
		return c.JSON(http.StatusOK, ImportQuestionsResponse{
			Mode:          "sync",
			Format:        format,
			ImportSummary: *summary,
		})
	}

	job := background.ImportJob{
		TenantID: tenantID,
		Payload:  payload,
		Format:   format,
		Filename: fileHeader.Filename,
	}
	if err := h.worker.Enqueue(job); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Import queue is full, try again later")
	}

	return c.JSON(http.StatusAccepted, ImportAccepted{
		Mode:   "async",
		Status: "accepted",
		Format: format,
		Note:   "Job running in background",
	})
}
