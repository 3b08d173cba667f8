package middleware

import (
	"fmt"

	"market-insight/pkg/ratelimit"

	"github.com/labstack/echo/v4"
)

// NewAIQuotaMiddleware applies a stricter per-caller budget to endpoints that
// reach the LLM. Authenticated callers are keyed by user id, others by ip.
func NewAIQuotaMiddleware(store *ratelimit.LimiterStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if userID, ok := UserIDFromContext(c); ok {
				key = fmt.Sprintf("user:%d", userID)
			}
			if ok, retryAfter := store.Take(key); !ok {
				return tooManyRequests(c, "AI quota exceeded. Please try again later", retryAfter)
			}
			return next(c)
		}
	}
}
