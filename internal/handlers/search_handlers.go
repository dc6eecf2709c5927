package handlers

import (
	"errors"
	"net/http"

	"ddqhub/internal/common"
	"ddqhub/internal/services"

	"github.com/labstack/echo/v4"
)

// SearchHandlers handles tenant-scoped search
type SearchHandlers struct {
	searchService services.SearchService
}

func NewSearchHandlers(searchService services.SearchService) *SearchHandlers {
	return &SearchHandlers{searchService: searchService}
}

// Search handles GET /search?q=&scope=.
func (h *SearchHandlers) Search(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	query := c.QueryParam("q")
	scope := c.QueryParam("scope")
	if scope == "" {
		scope = services.ScopeAll
	}

	results, err := h.searchService.Search(ctx, tenantID, query, scope)
	if err != nil {
		if errors.Is(err, services.ErrNoMatches) {
			return echo.NewHTTPError(http.StatusNotFound, "No matches found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, results)
}
