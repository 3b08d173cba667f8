package service

import (
	"market-insight/config"
	"market-insight/internal/repository"
	"market-insight/internal/strategy"
	"market-insight/pkg/logger"
	"market-insight/pkg/security"
)

type Service struct {
	MarketDataService MarketDataService
	AnalysisService   AnalysisService
	CompetitorService CompetitorService
	CompanyService    CompanyService
	AlertService      AlertService
	NewsService       NewsSentimentService
	WatchlistService  WatchlistService
	AuthService       AuthService
	ReportService     ReportService
	HealthService     HealthService
	SchedulerService  SchedulerService
	TaskExecutor      TaskExecutor
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	db Pinger,
	tokens *security.TokenManager,
	notifier strategy.Notifier,
) *Service {
	marketDataService := NewMarketDataService(cfg, log, repo.YahooFinanceRepo, repo.MarketCacheRepo, repo.CompanyRepo, repo.UsageRepo)
	companyService := NewCompanyService(log, repo.CompanyRepo, repo.YahooFinanceRepo, repo.UsageRepo)

	taskExecutor := NewTaskExecutor(cfg, log, repo.JobRepo,
		strategy.NewMarketDataCollectorStrategy(cfg, log, repo.CompanyRepo, repo.MarketDataRepo, repo.YahooFinanceRepo, repo.UsageRepo),
		strategy.NewPriceAlertStrategy(log, repo.AlertRepo, repo.MarketDataRepo, notifier),
		strategy.NewCacheCleanUpStrategy(log, repo.AnalysisCacheRepo),
		strategy.NewDailyReportStrategy(cfg, log, repo.MarketDataRepo, repo.LLMRepo, repo.MarketCacheRepo, repo.UsageRepo),
		strategy.NewRefreshViewsStrategy(log, repo.MarketDataRepo),
		strategy.NewDataCleanUpStrategy(cfg, log, repo.UsageRepo, repo.JobRepo),
	)

	return &Service{
		MarketDataService: marketDataService,
		AnalysisService:   NewAnalysisService(cfg, log, marketDataService, repo.AnalysisCacheRepo, repo.UsageRepo, repo.LLMRepo, repo.SystemParamRepo),
		CompetitorService: NewCompetitorService(cfg, log, marketDataService, repo.AnalysisCacheRepo, repo.UsageRepo, repo.LLMRepo, repo.SystemParamRepo),
		CompanyService:    companyService,
		AlertService:      NewAlertService(log, repo.AlertRepo, companyService),
		NewsService:       NewNewsSentimentService(log, repo.NewsSentimentRepo, repo.CompanyRepo, companyService, repo.LLMRepo, repo.UsageRepo),
		WatchlistService:  NewWatchlistService(log, repo.WatchlistRepo, repo.CompanyRepo, repo.MarketDataRepo, companyService),
		AuthService:       NewAuthService(log, repo.UserRepo, repo.WatchlistRepo, repo.UnitOfWork, tokens),
		ReportService:     NewReportService(log, repo.MarketCacheRepo, repo.UsageRepo),
		HealthService:     NewHealthService(log, db, repo.MarketCacheRepo, repo.LLMRepo),
		SchedulerService:  NewSchedulerService(cfg, log, repo.JobRepo, taskExecutor),
		TaskExecutor:      taskExecutor,
	}
}
