package service

import (
	"context"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"time"
)

const (
	defaultUsageDays = 7
	maxUsageDays     = 90
)

type ReportService interface {
	// GetDailyReport returns the report generated for date (YYYY-MM-DD, default today).
	GetDailyReport(ctx context.Context, date string) (*dto.DailyReport, error)
	GetUsageStats(ctx context.Context, days int) (*dto.UsageStatsResponse, error)
}

type reportService struct {
	log         *logger.Logger
	marketCache repository.MarketCacheRepository
	usageRepo   repository.UsageRepository
	now         func() time.Time
}

func NewReportService(log *logger.Logger, marketCache repository.MarketCacheRepository, usageRepo repository.UsageRepository) ReportService {
	return &reportService{
		log:         log,
		marketCache: marketCache,
		usageRepo:   usageRepo,
		now:         utils.TimeNow,
	}
}

func (s *reportService) GetDailyReport(ctx context.Context, date string) (*dto.DailyReport, error) {
	if date == "" {
		date = utils.DateKey(s.now())
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrInvalidInput)
	}

	var report dto.DailyReport
	found, err := s.marketCache.Get(ctx, fmt.Sprintf(common.KEY_DAILY_REPORT, date), &report)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to read daily report", logger.StringField("date", date), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: no daily report for %s", common.ErrNotFound, date)
	}
	return &report, nil
}

func (s *reportService) GetUsageStats(ctx context.Context, days int) (*dto.UsageStatsResponse, error) {
	if days == 0 {
		days = defaultUsageDays
	}
	if days < 1 || days > maxUsageDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", common.ErrInvalidInput, maxUsageDays)
	}
	since := utils.StartOfDay(s.now()).AddDate(0, 0, -(days - 1))

	stats, err := s.usageRepo.GetDailyQueryStats(ctx, since)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load query stats", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	providers, err := s.usageRepo.GetProviderUsage(ctx, since)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load provider usage", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	resp := &dto.UsageStatsResponse{
		Days:      days,
		Daily:     make([]dto.DailyUsage, 0, len(stats)),
		Providers: providers,
	}
	if resp.Providers == nil {
		resp.Providers = []dto.ProviderUsage{}
	}
	for _, st := range stats {
		resp.TotalQueries += st.TotalQueries
		resp.CacheHits += st.CacheHits
		resp.Daily = append(resp.Daily, dto.DailyUsage{
			Day:          utils.DateKey(st.Day),
			Kind:         st.Kind,
			TotalQueries: st.TotalQueries,
			CacheHits:    st.CacheHits,
			Failures:     st.Failures,
			HitRatio:     st.HitRatio,
			AvgResponse:  st.AvgResponse,
		})
	}
	if resp.TotalQueries > 0 {
		resp.HitRatio = round(float64(resp.CacheHits)/float64(resp.TotalQueries), 4)
	}
	return resp, nil
}
