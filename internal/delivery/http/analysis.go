package http

import (
	"market-insight/internal/dto"
	"market-insight/pkg/middleware"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAnalysis(base *echo.Group) {
	base.POST("/analyze", h.analyze, h.optionalAuth(), h.quota())
	base.POST("/competitor-analysis", h.competitorAnalysis, h.optionalAuth(), h.quota())
}

func (h *HttpAPIHandler) analyze(c echo.Context) error {
	req := new(dto.AnalyzeRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	resp, err := h.service.AnalysisService.Analyze(c.Request().Context(), *req, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *HttpAPIHandler) competitorAnalysis(c echo.Context) error {
	req := new(dto.CompetitorAnalysisRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	resp, err := h.service.CompetitorService.Compare(c.Request().Context(), *req, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// currentUser is nil for anonymous callers.
func currentUser(c echo.Context) *uint {
	if userID, ok := middleware.UserIDFromContext(c); ok {
		return &userID
	}
	return nil
}
