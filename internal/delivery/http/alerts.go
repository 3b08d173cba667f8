package http

import (
	"fmt"
	"market-insight/internal/dto"
	"market-insight/pkg/common"
	"market-insight/pkg/middleware"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAlerts(base *echo.Group) {
	auth := h.requireAuth()
	base.POST("/alerts", h.createAlert, auth)
	base.GET("/alerts", h.listAlerts, auth)
	base.DELETE("/alerts/:id", h.deleteAlert, auth)
}

func (h *HttpAPIHandler) createAlert(c echo.Context) error {
	req := new(dto.CreateAlertRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	resp, err := h.service.AlertService.Create(c.Request().Context(), userID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Alert created", resp))
}

func (h *HttpAPIHandler) listAlerts(c echo.Context) error {
	req := new(dto.ListAlertsRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	alerts, err := h.service.AlertService.List(c.Request().Context(), userID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Alerts retrieved", alerts))
}

func (h *HttpAPIHandler) deleteAlert(c echo.Context) error {
	alertID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	if err := h.service.AlertService.Delete(c.Request().Context(), userID, alertID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Alert deleted", nil))
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", common.ErrInvalidInput, name)
	}
	return uint(id), nil
}
