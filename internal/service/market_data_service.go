package service

import (
	"context"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"math"
	"time"
)

type MarketDataService interface {
	GetMarketData(ctx context.Context, ticker, period string) (*dto.MarketData, error)
}

type marketDataService struct {
	cfg              *config.Config
	log              *logger.Logger
	yahooFinanceRepo repository.YahooFinanceRepository
	marketCache      repository.MarketCacheRepository
	companyRepo      repository.CompanyRepository
	usageRepo        repository.UsageRepository
}

func NewMarketDataService(
	cfg *config.Config,
	log *logger.Logger,
	yahooFinanceRepo repository.YahooFinanceRepository,
	marketCache repository.MarketCacheRepository,
	companyRepo repository.CompanyRepository,
	usageRepo repository.UsageRepository,
) MarketDataService {
	return &marketDataService{
		cfg:              cfg,
		log:              log,
		yahooFinanceRepo: yahooFinanceRepo,
		marketCache:      marketCache,
		companyRepo:      companyRepo,
		usageRepo:        usageRepo,
	}
}

// GetMarketData serves the series and summary for ticker over period, reading
// through the market cache.
func (s *marketDataService) GetMarketData(ctx context.Context, ticker, period string) (*dto.MarketData, error) {
	ticker = dto.NormalizeTicker(ticker)
	if !dto.IsValidTicker(ticker) {
		return nil, fmt.Errorf("%w: invalid ticker %q", common.ErrInvalidInput, ticker)
	}
	if period == "" {
		period = dto.DefaultPeriod
	}
	if !dto.IsValidPeriod(period) {
		return nil, fmt.Errorf("%w: invalid period %q", common.ErrInvalidInput, period)
	}

	key := fmt.Sprintf(common.KEY_MARKET_DATA, ticker, period)
	var cached dto.MarketData
	found, err := s.marketCache.Get(ctx, key, &cached)
	if err != nil {
		s.log.WarnContext(ctx, "Market cache read failed", logger.StringField("key", key), logger.ErrorField(err))
	}
	if found {
		return &cached, nil
	}

	interval := dto.IntervalForPeriod(period)
	started := time.Now()
	stock, err := s.yahooFinanceRepo.Get(ctx, dto.GetStockDataParam{Ticker: ticker, Range: period, Interval: interval})
	if usageErr := s.usageRepo.RecordProviderCall(ctx, common.PROVIDER_YAHOO, "market_data", time.Since(started), 0, err); usageErr != nil {
		s.log.WarnContext(ctx, "Failed to record provider usage", logger.ErrorField(usageErr))
	}
	if err != nil {
		return nil, err
	}

	data := BuildMarketData(stock, period, interval, utils.TimeNow())
	company, err := s.companyRepo.GetByTicker(ctx, ticker)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to load company", logger.StringField("ticker", ticker), logger.ErrorField(err))
	}
	if company != nil {
		data.Summary.MarketCap = company.MarketCap
		data.Summary.Sector = company.Sector
		if company.Name != "" {
			data.Summary.Name = company.Name
		}
	}

	if err := s.marketCache.Set(ctx, key, data, s.cfg.Cache.MarketDataTTL); err != nil {
		s.log.WarnContext(ctx, "Market cache write failed", logger.StringField("key", key), logger.ErrorField(err))
	}
	return data, nil
}

// BuildMarketData derives the summary fields from a provider series.
func BuildMarketData(stock *dto.StockData, period, interval string, fetchedAt time.Time) *dto.MarketData {
	summary := dto.MarketSummary{
		Name:             stock.Name,
		Currency:         stock.Currency,
		Exchange:         stock.Exchange,
		CurrentPrice:     stock.MarketPrice,
		PreviousClose:    stock.PreviousClose,
		FiftyTwoWeekHigh: stock.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  stock.FiftyTwoWeekLow,
		Volume:           stock.Volume,
	}

	var volumeSum int64
	for i, bar := range stock.OHLCV {
		if i == 0 || bar.High > summary.PeriodHigh {
			summary.PeriodHigh = bar.High
		}
		if i == 0 || bar.Low < summary.PeriodLow {
			summary.PeriodLow = bar.Low
		}
		volumeSum += bar.Volume
	}
	if n := len(stock.OHLCV); n > 0 {
		summary.AverageVolume = volumeSum / int64(n)
		last := stock.OHLCV[n-1]
		if summary.CurrentPrice <= 0 {
			summary.CurrentPrice = last.Close
		}
		if summary.Volume == 0 {
			summary.Volume = last.Volume
		}
		if summary.PreviousClose <= 0 {
			summary.PreviousClose = stock.OHLCV[0].Open
		}
	}
	if summary.PreviousClose > 0 {
		summary.Change = round(summary.CurrentPrice-summary.PreviousClose, 4)
		summary.ChangePercent = round((summary.CurrentPrice-summary.PreviousClose)/summary.PreviousClose*100, 4)
	}

	return &dto.MarketData{
		Ticker:    stock.Ticker,
		Period:    period,
		Interval:  interval,
		Summary:   summary,
		History:   stock.OHLCV,
		FetchedAt: fetchedAt,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
