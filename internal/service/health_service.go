package service

import (
	"context"
	"market-insight/internal/dto"
	"market-insight/internal/repository"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthService interface {
	// Check reports dependency status; healthy is false when a required dependency is down.
	Check(ctx context.Context) (resp *dto.HealthResponse, healthy bool)
}

type healthService struct {
	log         *logger.Logger
	db          Pinger
	marketCache repository.MarketCacheRepository
	llmRepo     repository.LLMRepository
}

func NewHealthService(log *logger.Logger, db Pinger, marketCache repository.MarketCacheRepository, llmRepo repository.LLMRepository) HealthService {
	return &healthService{
		log:         log,
		db:          db,
		marketCache: marketCache,
		llmRepo:     llmRepo,
	}
}

func (s *healthService) Check(ctx context.Context) (*dto.HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	healthy := true
	checks := make(map[string]string, 3)

	if err := s.db.PingContext(ctx); err != nil {
		s.log.WarnContext(ctx, "Database health check failed", logger.ErrorField(err))
		checks["database"] = dto.CheckUnreachable
		healthy = false
	} else {
		checks["database"] = dto.CheckOK
	}

	cacheKey := "cache_" + s.marketCache.Backend()
	if err := s.marketCache.Ping(ctx); err != nil {
		s.log.WarnContext(ctx, "Cache health check failed", logger.ErrorField(err))
		checks[cacheKey] = dto.CheckUnreachable
		healthy = false
	} else {
		checks[cacheKey] = dto.CheckOK
	}

	if s.llmRepo.Configured() {
		checks["llm_api_key"] = dto.CheckOK
	} else {
		checks["llm_api_key"] = dto.CheckMissing
		healthy = false
	}

	status := dto.HealthStatusHealthy
	if !healthy {
		status = dto.HealthStatusDegraded
	}
	return &dto.HealthResponse{
		Status:      status,
		Checks:      checks,
		LLMProvider: s.llmRepo.Provider(),
		Timestamp:   utils.TimeNow(),
	}, healthy
}
