package http

import (
	"market-insight/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupHealth(base *echo.Group) {
	base.GET("/health", h.health)
}

func (h *HttpAPIHandler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.ServiceInfo{
		Message: h.cfg.App.Name,
		Version: h.cfg.App.Version,
		Status:  "running",
	})
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	resp, healthy := h.service.HealthService.Check(c.Request().Context())
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
