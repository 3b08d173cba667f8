package repository

import (
	"market-insight/config"
	"market-insight/pkg/cache"
	"market-insight/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	JobRepo           JobRepository
	CompanyRepo       CompanyRepository
	MarketDataRepo    MarketDataRepository
	AnalysisCacheRepo AnalysisCacheRepository
	UsageRepo         UsageRepository
	WatchlistRepo     WatchlistRepository
	AlertRepo         AlertRepository
	NewsSentimentRepo NewsSentimentRepository
	UserRepo          UserRepository
	SystemParamRepo   SystemParamRepository
	YahooFinanceRepo  YahooFinanceRepository
	MarketCacheRepo   MarketCacheRepository
	LLMRepo           LLMRepository
	UnitOfWork        UnitOfWork
}

// NewRepository wires every repository. marketCache decides where market data
// and daily reports are kept (redis or the in-process cache).
func NewRepository(cfg *config.Config, db *gorm.DB, inmemoryCache cache.Cache, marketCache MarketCacheRepository, log *logger.Logger) (*Repository, error) {
	llmRepo, err := NewLLMRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		JobRepo:           NewJobRepository(db),
		CompanyRepo:       NewCompanyRepository(db),
		MarketDataRepo:    NewMarketDataRepository(db),
		AnalysisCacheRepo: NewAnalysisCacheRepository(db),
		UsageRepo:         NewUsageRepository(db),
		WatchlistRepo:     NewWatchlistRepository(db),
		AlertRepo:         NewAlertRepository(db),
		NewsSentimentRepo: NewNewsSentimentRepository(db),
		UserRepo:          NewUserRepository(db),
		SystemParamRepo:   NewSystemParamRepository(cfg, inmemoryCache, db),
		YahooFinanceRepo:  NewYahooFinanceRepository(cfg, log),
		MarketCacheRepo:   marketCache,
		LLMRepo:           llmRepo,
		UnitOfWork:        NewUnitOfWork(db),
	}, nil
}

// NewLLMRepository picks the provider named by llm.provider.
func NewLLMRepository(cfg *config.Config, log *logger.Logger) (LLMRepository, error) {
	if cfg.LLM.Provider == config.LLMProviderOpenAI {
		return NewOpenAIRepository(cfg, log)
	}
	return NewGeminiAIRepository(cfg, log)
}
