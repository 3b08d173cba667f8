package http

import (
	"market-insight/internal/dto"
	"market-insight/pkg/middleware"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupWatchlists(base *echo.Group) {
	auth := h.requireAuth()
	base.GET("/watchlists", h.listWatchlists, auth)
	base.POST("/watchlists", h.createWatchlist, auth)
	base.DELETE("/watchlists/:id", h.deleteWatchlist, auth)
	base.POST("/watchlists/:id/items", h.addWatchlistItem, auth)
	base.DELETE("/watchlists/:id/items/:ticker", h.removeWatchlistItem, auth)
}

func (h *HttpAPIHandler) listWatchlists(c echo.Context) error {
	userID, _ := middleware.UserIDFromContext(c)
	watchlists, err := h.service.WatchlistService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Watchlists retrieved", watchlists))
}

func (h *HttpAPIHandler) createWatchlist(c echo.Context) error {
	req := new(dto.CreateWatchlistRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	watchlist, err := h.service.WatchlistService.Create(c.Request().Context(), userID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Watchlist created", watchlist))
}

func (h *HttpAPIHandler) deleteWatchlist(c echo.Context) error {
	watchlistID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	if err := h.service.WatchlistService.Delete(c.Request().Context(), userID, watchlistID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Watchlist deleted", nil))
}

func (h *HttpAPIHandler) addWatchlistItem(c echo.Context) error {
	watchlistID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req := new(dto.AddWatchlistItemRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	item, err := h.service.WatchlistService.AddItem(c.Request().Context(), userID, watchlistID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Item added", item))
}

func (h *HttpAPIHandler) removeWatchlistItem(c echo.Context) error {
	watchlistID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	userID, _ := middleware.UserIDFromContext(c)
	if err := h.service.WatchlistService.RemoveItem(c.Request().Context(), userID, watchlistID, c.Param("ticker")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Item removed", nil))
}
