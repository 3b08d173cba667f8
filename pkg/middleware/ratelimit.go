package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"market-insight/pkg/ratelimit"

	"github.com/labstack/echo/v4"
)

// Response mirrors the API envelope for errors raised before a handler runs.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// NewRateLimiterMiddleware gives every client ip its own bucket from store.
// Requests whose path starts with one of skipPrefixes are never throttled.
func NewRateLimiterMiddleware(store *ratelimit.LimiterStore, skipPrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}
			if ok, retryAfter := store.Take("ip:" + c.RealIP()); !ok {
				return tooManyRequests(c, "Too many requests: Rate limit exceeded. Please try again later", retryAfter)
			}
			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, message string, retryAfter time.Duration) error {
	if retryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	return c.JSON(http.StatusTooManyRequests, Response{
		Code:    http.StatusTooManyRequests,
		Message: message,
	})
}
