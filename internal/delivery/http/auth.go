package http

import (
	"market-insight/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAuth(base *echo.Group) {
	group := base.Group("/auth")
	group.POST("/register", h.register)
	group.POST("/login", h.login)
}

func (h *HttpAPIHandler) register(c echo.Context) error {
	req := new(dto.RegisterRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	resp, err := h.service.AuthService.Register(c.Request().Context(), *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("User registered", resp))
}

func (h *HttpAPIHandler) login(c echo.Context) error {
	req := new(dto.LoginRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	resp, err := h.service.AuthService.Login(c.Request().Context(), *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Login successful", resp))
}
