package middleware

import (
	"net/http"
	"strings"

	"market-insight/pkg/common"
	"market-insight/pkg/security"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// JWTAuth rejects requests without a valid bearer token.
func JWTAuth(tokens *security.TokenManager) echo.MiddlewareFunc {
	return jwtAuth(tokens, true)
}

// OptionalJWTAuth attaches the user when a valid token is sent and lets
// anonymous requests through. An invalid token is still rejected.
func OptionalJWTAuth(tokens *security.TokenManager) echo.MiddlewareFunc {
	return jwtAuth(tokens, false)
}

func jwtAuth(tokens *security.TokenManager, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				if required {
					return unauthorized(c, "missing bearer token")
				}
				return next(c)
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				return unauthorized(c, "malformed authorization header")
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
			if err != nil {
				return unauthorized(c, "invalid or expired token")
			}

			c.Set(common.CONTEXT_KEY_USER_ID, claims.UserID)
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(c echo.Context) (uint, bool) {
	userID, ok := c.Get(common.CONTEXT_KEY_USER_ID).(uint)
	return userID, ok && userID > 0
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, Response{
		Code:    http.StatusUnauthorized,
		Message: message,
	})
}
