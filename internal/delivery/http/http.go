package http

import (
	"context"
	"market-insight/config"
	"market-insight/internal/service"
	"market-insight/pkg/logger"
	"market-insight/pkg/middleware"
	"market-insight/pkg/ratelimit"
	"market-insight/pkg/security"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type HttpAPIHandler struct {
	cfg       *config.Config
	log       *logger.Logger
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
	tokens    *security.TokenManager
	apiLimit  *ratelimit.LimiterStore
	aiQuota   *ratelimit.LimiterStore
}

func NewHttpAPIHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	echo *echo.Echo,
	validator *goValidator.Validate,
	service *service.Service,
	tokens *security.TokenManager,
) *HttpAPIHandler {
	perMinute := cfg.API.AIQuotaPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	return &HttpAPIHandler{
		cfg:       cfg,
		log:       log,
		echo:      echo,
		validator: validator,
		service:   service,
		tokens:    tokens,
		apiLimit:  ratelimit.NewLimiterStore(rate.Limit(cfg.API.RateLimitPerSec), cfg.API.RateLimitBurst, 3*time.Minute),
		aiQuota:   ratelimit.NewLimiterStore(rate.Every(time.Minute/time.Duration(perMinute)), perMinute, 10*time.Minute),
	}
}

func (h *HttpAPIHandler) SetupMiddleware() {
	h.echo.HideBanner = true
	h.echo.HTTPErrorHandler = NewHTTPErrorHandler(h.log)
	h.echo.Use(
		echoMiddleware.Recover(),
		middleware.NewRequestID(),
		middleware.NewRequestLogger(h.log),
		echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
			AllowOrigins: h.cfg.API.AllowOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}),
		middleware.NewRateLimiterMiddleware(h.apiLimit, "/api/v2/health", "/api/v2/telegram/"),
	)
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.SetupMiddleware()
	h.echo.GET("/", h.root)

	base := h.echo.Group("/api/v2")
	h.SetupHealth(base)
	h.SetupMarket(base)
	h.SetupAnalysis(base)
	h.SetupAuth(base)
	h.SetupAlerts(base)
	h.SetupNews(base)
	h.SetupWatchlists(base)
	h.SetupReports(base)
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) requireAuth() echo.MiddlewareFunc {
	return middleware.JWTAuth(h.tokens)
}

func (h *HttpAPIHandler) optionalAuth() echo.MiddlewareFunc {
	return middleware.OptionalJWTAuth(h.tokens)
}

func (h *HttpAPIHandler) quota() echo.MiddlewareFunc {
	return middleware.NewAIQuotaMiddleware(h.aiQuota)
}
