package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"market-insight/pkg/logger"
	"market-insight/pkg/ratelimit"
	"market-insight/pkg/security"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newAuthServer(tokens *security.TokenManager, required bool) *echo.Echo {
	e := echo.New()
	mw := OptionalJWTAuth(tokens)
	if required {
		mw = JWTAuth(tokens)
	}
	e.GET("/me", func(c echo.Context) error {
		userID, ok := UserIDFromContext(c)
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.JSON(http.StatusOK, map[string]uint{"user_id": userID})
	}, mw)
	return e
}

func TestJWTAuth(t *testing.T) {
	tokens := security.NewTokenManager("secret", "test", time.Hour)
	token, _, err := tokens.GenerateToken(5, "u@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		required   bool
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "required without token", required: true, wantStatus: http.StatusUnauthorized},
		{name: "required with token", required: true, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: `{"user_id":5}`},
		{name: "required with garbage", required: true, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "malformed scheme", required: true, header: "Token " + token, wantStatus: http.StatusUnauthorized},
		{name: "optional anonymous", required: false, wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "optional with token", required: false, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: `{"user_id":5}`},
		{name: "optional with bad token", required: false, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAuthServer(tokens, tt.required)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAIQuotaMiddleware(t *testing.T) {
	e := echo.New()
	store := ratelimit.NewLimiterStore(rate.Every(time.Hour), 1, time.Minute)
	e.POST("/analyze", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewAIQuotaMiddleware(store))

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	store := ratelimit.NewLimiterStore(rate.Every(time.Minute), 1, time.Minute)
	e.Use(NewRateLimiterMiddleware(store, "/api/v2/health"))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/api/v2/companies", ok)
	e.GET("/api/v2/health", ok)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("/api/v2/companies").Code)

	denied := do("/api/v2/companies")
	assert.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Equal(t, "60", denied.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"Too many requests: Rate limit exceeded. Please try again later","data":null}`, denied.Body.String())

	assert.Equal(t, http.StatusOK, do("/api/v2/health").Code)
	assert.Equal(t, http.StatusOK, do("/api/v2/health").Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	e := echo.New()
	log := &logger.Logger{Logger: zap.NewNop()}
	e.Use(NewRequestID(), NewRequestLogger(log))
	e.GET("/ping", func(c echo.Context) error {
		ctxLog := log.FromContext(c.Request().Context())
		assert.NotSame(t, log, ctxLog)
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}
