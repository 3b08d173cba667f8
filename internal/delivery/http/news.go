package http

import (
	"market-insight/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupNews(base *echo.Group) {
	base.POST("/companies/:ticker/news-sentiment", h.analyzeNews, h.requireAuth(), h.quota())
	base.GET("/companies/:ticker/news-sentiment", h.listNewsSentiment)
}

func (h *HttpAPIHandler) analyzeNews(c echo.Context) error {
	req := new(dto.AnalyzeNewsRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	resp, err := h.service.NewsService.Analyze(c.Request().Context(), *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("News sentiment analyzed", resp))
}

func (h *HttpAPIHandler) listNewsSentiment(c echo.Context) error {
	req := new(dto.ListNewsSentimentRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	resp, err := h.service.NewsService.List(c.Request().Context(), *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("News sentiment retrieved", resp))
}
