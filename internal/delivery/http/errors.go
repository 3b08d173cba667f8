package http

import (
	"errors"
	"market-insight/internal/dto"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// serverErrorMessage is the only text a caller sees for a 5xx; the cause is logged.
func serverErrorMessage(code int) string {
	switch code {
	case http.StatusBadGateway:
		return "upstream provider request failed"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	case http.StatusGatewayTimeout:
		return "upstream provider timed out"
	}
	return "internal server error"
}

// NewHTTPErrorHandler writes every error in the BaseResponse envelope. Server
// errors are logged and their detail is hidden from the caller.
func NewHTTPErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			code    int
			message string
		)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = http.StatusText(code)
			if m, ok := he.Message.(string); ok {
				message = m
			}
		} else {
			code = StatusFor(err)
			message = err.Error()
		}

		ctx := c.Request().Context()
		if code >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "Request failed",
				logger.ErrorField(err),
				logger.StringField("path", c.Path()),
				logger.IntField("status", code))
			message = serverErrorMessage(code)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, dto.NewErrorResponse(code, message))
		}
		if writeErr != nil {
			log.ErrorContext(ctx, "Failed to write error response", logger.ErrorField(writeErr))
		}
	}
}
