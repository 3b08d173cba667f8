package http

import (
	"market-insight/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupMarket(base *echo.Group) {
	base.GET("/market-data/:ticker", h.getMarketData)
	base.GET("/companies", h.listCompanies)
}

func (h *HttpAPIHandler) getMarketData(c echo.Context) error {
	req := new(dto.GetMarketDataRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	data, err := h.service.MarketDataService.GetMarketData(c.Request().Context(), req.Ticker, req.Period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Market data retrieved", data))
}

func (h *HttpAPIHandler) listCompanies(c echo.Context) error {
	req := new(dto.ListCompaniesRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	companies, err := h.service.CompanyService.List(c.Request().Context(), *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Companies retrieved", companies))
}
