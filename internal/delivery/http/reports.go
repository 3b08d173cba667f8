package http

import (
	"market-insight/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

type dailyReportRequest struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type usageStatsRequest struct {
	Days int `query:"days" validate:"omitempty,min=1,max=90"`
}

func (h *HttpAPIHandler) SetupReports(base *echo.Group) {
	base.GET("/reports/daily", h.getDailyReport)
	base.GET("/usage/stats", h.getUsageStats)
}

func (h *HttpAPIHandler) getDailyReport(c echo.Context) error {
	req := new(dailyReportRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	report, err := h.service.ReportService.GetDailyReport(c.Request().Context(), req.Date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Daily report retrieved", report))
}

func (h *HttpAPIHandler) getUsageStats(c echo.Context) error {
	req := new(usageStatsRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	stats, err := h.service.ReportService.GetUsageStats(c.Request().Context(), req.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Usage stats retrieved", stats))
}
