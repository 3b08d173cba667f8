package service

import (
	"context"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"time"
)

type CompanyService interface {
	List(ctx context.Context, req dto.ListCompaniesRequest) ([]model.Company, error)
	// Resolve returns the stored company for ticker, registering it from provider
	// metadata the first time a valid symbol is seen.
	Resolve(ctx context.Context, ticker string) (*model.Company, error)
}

type companyService struct {
	log              *logger.Logger
	companyRepo      repository.CompanyRepository
	yahooFinanceRepo repository.YahooFinanceRepository
	usageRepo        repository.UsageRepository
}

func NewCompanyService(
	log *logger.Logger,
	companyRepo repository.CompanyRepository,
	yahooFinanceRepo repository.YahooFinanceRepository,
	usageRepo repository.UsageRepository,
) CompanyService {
	return &companyService{
		log:              log,
		companyRepo:      companyRepo,
		yahooFinanceRepo: yahooFinanceRepo,
		usageRepo:        usageRepo,
	}
}

func (s *companyService) List(ctx context.Context, req dto.ListCompaniesRequest) ([]model.Company, error) {
	companies, err := s.companyRepo.Get(ctx, model.GetCompaniesParam{
		IsActive: req.Active,
		Sector:   req.Sector,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list companies", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return companies, nil
}

func (s *companyService) Resolve(ctx context.Context, ticker string) (*model.Company, error) {
	ticker = dto.NormalizeTicker(ticker)
	if !dto.IsValidTicker(ticker) {
		return nil, fmt.Errorf("%w: invalid ticker %q", common.ErrInvalidInput, ticker)
	}

	company, err := s.companyRepo.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if company != nil {
		return company, nil
	}

	started := time.Now()
	stock, err := s.yahooFinanceRepo.Get(ctx, dto.GetStockDataParam{Ticker: ticker, Range: dto.Period5Day, Interval: dto.Interval1Day})
	if usageErr := s.usageRepo.RecordProviderCall(ctx, common.PROVIDER_YAHOO, "resolve_company", time.Since(started), 0, err); usageErr != nil {
		s.log.WarnContext(ctx, "Failed to record provider usage", logger.ErrorField(usageErr))
	}
	if err != nil {
		return nil, err
	}

	company = &model.Company{
		Ticker:   ticker,
		Name:     stock.Name,
		Currency: stock.Currency,
		Exchange: stock.Exchange,
		IsActive: true,
	}
	if err := s.companyRepo.Ensure(ctx, company); err != nil {
		s.log.ErrorContext(ctx, "Failed to register company", logger.StringField("ticker", ticker), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	s.log.InfoContext(ctx, "Registered new company", logger.StringField("ticker", ticker), logger.UintField("id", company.ID))
	return company, nil
}
