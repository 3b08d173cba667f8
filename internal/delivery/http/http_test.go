package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/service"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/security"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalysis struct {
	err      error
	lastReq  dto.AnalyzeRequest
	lastUser *uint
}

func (f *fakeAnalysis) Analyze(ctx context.Context, req dto.AnalyzeRequest, userID *uint) (*dto.AnalyzeResponse, error) {
	f.lastReq = req
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AnalyzeResponse{Analysis: "Apple looks steady.", Cached: true}, nil
}

type fakeNews struct {
	lastReq dto.AnalyzeNewsRequest
}

func (f *fakeNews) Analyze(ctx context.Context, req dto.AnalyzeNewsRequest) (*dto.NewsSentimentResponse, error) {
	f.lastReq = req
	return &dto.NewsSentimentResponse{Ticker: req.Ticker, Analyzed: len(req.Items), Stored: int64(len(req.Items))}, nil
}

func (f *fakeNews) List(ctx context.Context, req dto.ListNewsSentimentRequest) (*dto.NewsSentimentListResponse, error) {
	return &dto.NewsSentimentListResponse{Ticker: req.Ticker}, nil
}

type fakeHealth struct {
	healthy bool
}

func (f fakeHealth) Check(ctx context.Context) (*dto.HealthResponse, bool) {
	status := dto.HealthStatusHealthy
	if !f.healthy {
		status = dto.HealthStatusDegraded
	}
	return &dto.HealthResponse{Status: status}, f.healthy
}

func newTestServer(svc *service.Service) (*echo.Echo, *security.TokenManager) {
	cfg := &config.Config{
		App: config.App{Name: "Market Insight AI API", Version: "2.0.0"},
		API: config.API{AllowOrigins: []string{"*"}, RateLimitPerSec: 100, RateLimitBurst: 100, AIQuotaPerMinute: 2},
	}
	tokens := security.NewTokenManager("secret", "test", time.Hour)
	e := echo.New()
	h := NewHttpAPIHandler(context.Background(), cfg, logger.NewNop(), e, NewValidator(), svc, tokens)
	h.SetupRoutes()
	return e, tokens
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", common.ErrInvalidInput), http.StatusBadRequest},
		{common.ErrUnauthorized, http.StatusUnauthorized},
		{common.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: job 3", common.ErrNotFound), http.StatusNotFound},
		{common.ErrConflict, http.StatusConflict},
		{common.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{common.ErrUpstream, http.StatusBadGateway},
		{common.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHTTPErrorHandler_HidesServerErrorDetail(t *testing.T) {
	dbErr := "failed to connect to host=db.internal user=postgres database=marketdb: FATAL: password authentication failed"
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{name: "database unavailable", err: fmt.Errorf("%w: %v", common.ErrUnavailable, dbErr), wantCode: http.StatusServiceUnavailable, wantMessage: "service unavailable"},
		{name: "upstream failure", err: fmt.Errorf("%w: %v", common.ErrUpstream, dbErr), wantCode: http.StatusBadGateway, wantMessage: "upstream provider request failed"},
		{name: "upstream timeout", err: fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, dbErr), wantCode: http.StatusGatewayTimeout, wantMessage: "upstream provider timed out"},
		{name: "internal", err: errors.New(dbErr), wantCode: http.StatusInternalServerError, wantMessage: "internal server error"},
		{name: "client error keeps detail", err: fmt.Errorf("%w: ticker ZZZZ", common.ErrNotFound), wantCode: http.StatusNotFound, wantMessage: "not found: ticker ZZZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v2/alerts", nil), rec)

			NewHTTPErrorHandler(logger.NewNop())(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db.internal")
			var resp dto.BaseResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("anonymous request", func(t *testing.T) {
		analysis := &fakeAnalysis{}
		e, _ := newTestServer(&service.Service{AnalysisService: analysis})

		rec := do(e, http.MethodPost, "/api/v2/analyze", `{"query":"How is Apple doing?","company":"aapl"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.AnalyzeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Cached)
		assert.Equal(t, "Apple looks steady.", resp.Analysis)
		assert.Equal(t, "How is Apple doing?", analysis.lastReq.Query)
		assert.Nil(t, analysis.lastUser)
	})

	t.Run("authenticated request carries user", func(t *testing.T) {
		analysis := &fakeAnalysis{}
		e, tokens := newTestServer(&service.Service{AnalysisService: analysis})
		token, _, err := tokens.GenerateToken(42, "jane@example.com")
		require.NoError(t, err)

		rec := do(e, http.MethodPost, "/api/v2/analyze", `{"query":"How is Apple doing?","company":"AAPL"}`, token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, analysis.lastUser)
		assert.Equal(t, uint(42), *analysis.lastUser)
	})

	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
		wantMsg  string
	}{
		{name: "missing query", body: `{"company":"AAPL"}`, wantCode: http.StatusBadRequest, wantMsg: "query is required"},
		{name: "bad ticker", body: `{"query":"How is it doing?","company":"not a ticker!"}`, wantCode: http.StatusBadRequest, wantMsg: "company must be a valid ticker symbol"},
		{name: "bad period", body: `{"query":"How is it doing?","company":"AAPL","time_range":"2w"}`, wantCode: http.StatusBadRequest},
		{name: "malformed json", body: `{"query":`, wantCode: http.StatusBadRequest},
		{name: "upstream failure", body: `{"query":"How is it doing?","company":"AAPL"}`, svcErr: fmt.Errorf("%w: gemini", common.ErrUpstream), wantCode: http.StatusBadGateway},
		{name: "internal error hidden", body: `{"query":"How is it doing?","company":"AAPL"}`, svcErr: errors.New("secret detail"), wantCode: http.StatusInternalServerError, wantMsg: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestServer(&service.Service{AnalysisService: &fakeAnalysis{err: tt.svcErr}})

			rec := do(e, http.MethodPost, "/api/v2/analyze", tt.body, "")
			assert.Equal(t, tt.wantCode, rec.Code)

			var resp dto.BaseResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantMsg != "" {
				assert.Contains(t, resp.Message, tt.wantMsg)
			}
		})
	}
}

func TestNewsSentimentEndpoint(t *testing.T) {
	news := &fakeNews{}
	e, tokens := newTestServer(&service.Service{NewsService: news})
	// the AI quota is per user, so each request below uses its own caller
	tokenFor := func(userID uint) string {
		token, _, err := tokens.GenerateToken(userID, "ops@example.com")
		require.NoError(t, err)
		return token
	}
	path := "/api/v2/companies/AAPL/news-sentiment"
	body := `{"items":[{"title":"Apple beats estimates","source":"Reuters","url":"https://example.com/a"}]}`

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, path, body, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, path, `{"items":[]}`, tokenFor(1)).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, path, `{"items":[{"title":"x","url":"not a url"}]}`, tokenFor(2)).Code)

	rec := do(e, http.MethodPost, path, body, tokenFor(3))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "AAPL", news.lastReq.Ticker)
	require.Len(t, news.lastReq.Items, 1)
	assert.Equal(t, "Reuters", news.lastReq.Items[0].Source)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, path+"?limit=5", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, path+"?limit=500", "", "").Code)
}

func TestAnalyzeEndpoint_Quota(t *testing.T) {
	e, _ := newTestServer(&service.Service{AnalysisService: &fakeAnalysis{}})
	body := `{"query":"How is Apple doing?","company":"AAPL"}`

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v2/analyze", body, "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v2/analyze", body, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/api/v2/analyze", body, "").Code)
}

func TestHealthAndRoot(t *testing.T) {
	e, _ := newTestServer(&service.Service{HealthService: fakeHealth{healthy: false}})

	rec := do(e, http.MethodGet, "/api/v2/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.HealthStatusDegraded)

	rec = do(e, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info dto.ServiceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "running", info.Status)
	assert.Equal(t, "2.0.0", info.Version)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newTestServer(&service.Service{})

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v2/alerts"},
		{http.MethodPost, "/api/v2/watchlists"},
		{http.MethodGet, "/api/v2/jobs"},
		{http.MethodPost, "/api/v2/jobs/1/run"},
	} {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := do(e, route.method, route.path, "{}", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e, _ := newTestServer(&service.Service{})

	rec := do(e, http.MethodGet, "/api/v2/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp dto.BaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
