package service

import (
	"context"
	"errors"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/internal/repository/mocks"
	"market-insight/pkg/cache"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}

func TestReportService_GetDailyReport(t *testing.T) {
	marketCache := repository.NewMemoryMarketCache(cache.NewCache(time.Minute, time.Minute))
	svc := NewReportService(logger.NewNop(), marketCache, new(mocks.UsageRepository)).(*reportService)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }

	report := dto.DailyReport{Date: "2024-05-02", TopGainers: []dto.Mover{{Ticker: "NVDA", ChangePercent: 4.2}}}
	require.NoError(t, marketCache.Set(context.Background(), "daily_report:2024-05-02", report, time.Hour))

	got, err := svc.GetDailyReport(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "NVDA", got.TopGainers[0].Ticker)

	_, err = svc.GetDailyReport(context.Background(), "2024-05-01")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.GetDailyReport(context.Background(), "05/01/2024")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestReportService_GetUsageStats(t *testing.T) {
	now := time.Date(2024, 5, 7, 15, 30, 0, 0, time.UTC)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	usage := new(mocks.UsageRepository)
	usage.On("GetDailyQueryStats", mock.Anything, since).Return([]model.DailyQueryStat{
		{Day: since, Kind: model.AnalysisKindMarket, TotalQueries: 6, CacheHits: 3},
		{Day: since.AddDate(0, 0, 1), Kind: model.AnalysisKindCompetitor, TotalQueries: 2, CacheHits: 0, Failures: 1},
	}, nil)
	usage.On("GetProviderUsage", mock.Anything, since).Return(nil, nil)

	svc := NewReportService(logger.NewNop(), nil, usage).(*reportService)
	svc.now = func() time.Time { return now }

	resp, err := svc.GetUsageStats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Days)
	assert.Equal(t, int64(8), resp.TotalQueries)
	assert.Equal(t, int64(3), resp.CacheHits)
	assert.Equal(t, 0.375, resp.HitRatio)
	assert.Equal(t, "2024-05-02", resp.Daily[1].Day)
	assert.NotNil(t, resp.Providers)

	for _, days := range []int{-1, 91} {
		_, err := svc.GetUsageStats(context.Background(), days)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	}
}

type failingPingCache struct {
	repository.MarketCacheRepository
	err error
}

func (f failingPingCache) Ping(ctx context.Context) error {
	return f.err
}

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name        string
		dbErr       error
		cacheErr    error
		configured  bool
		wantHealthy bool
		wantChecks  map[string]string
	}{
		{
			name:        "healthy",
			configured:  true,
			wantHealthy: true,
			wantChecks:  map[string]string{"database": "ok", "cache_memory": "ok", "llm_api_key": "ok"},
		},
		{
			name:        "database down",
			dbErr:       errors.New("dial tcp db.internal:5432: connection refused"),
			configured:  true,
			wantChecks:  map[string]string{"database": "unreachable", "cache_memory": "ok", "llm_api_key": "ok"},
		},
		{
			name:       "cache down",
			cacheErr:   errors.New("dial tcp redis.internal:6379: i/o timeout"),
			configured: true,
			wantChecks: map[string]string{"database": "ok", "cache_memory": "unreachable", "llm_api_key": "ok"},
		},
		{
			name:       "missing llm key",
			wantChecks: map[string]string{"database": "ok", "cache_memory": "ok", "llm_api_key": "missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(mocks.LLMRepository)
			llm.On("Configured").Return(tt.configured)
			marketCache := failingPingCache{
				MarketCacheRepository: repository.NewMemoryMarketCache(cache.NewCache(time.Minute, time.Minute)),
				err:                   tt.cacheErr,
			}
			svc := NewHealthService(logger.NewNop(), stubPinger{err: tt.dbErr}, marketCache, llm)

			resp, healthy := svc.Check(context.Background())
			assert.Equal(t, tt.wantHealthy, healthy)
			assert.Equal(t, tt.wantChecks, resp.Checks)
			assert.Equal(t, "fake", resp.LLMProvider)
			if tt.wantHealthy {
				assert.Equal(t, dto.HealthStatusHealthy, resp.Status)
			} else {
				assert.Equal(t, dto.HealthStatusDegraded, resp.Status)
			}
		})
	}
}
