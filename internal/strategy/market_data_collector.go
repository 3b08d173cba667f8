package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type MarketDataCollectorPayload struct {
	Range   string   `json:"range"`
	Tickers []string `json:"tickers"`
}

type MarketDataCollectorResult struct {
	Ticker string `json:"ticker"`
	Rows   int64  `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// MarketDataCollectorStrategy pulls recent daily bars for every active company into market_data.
type MarketDataCollectorStrategy struct {
	cfg              *config.Config
	log              *logger.Logger
	companyRepo      repository.CompanyRepository
	marketDataRepo   repository.MarketDataRepository
	yahooFinanceRepo repository.YahooFinanceRepository
	usageRepo        repository.UsageRepository
}

func NewMarketDataCollectorStrategy(
	cfg *config.Config,
	log *logger.Logger,
	companyRepo repository.CompanyRepository,
	marketDataRepo repository.MarketDataRepository,
	yahooFinanceRepo repository.YahooFinanceRepository,
	usageRepo repository.UsageRepository,
) JobExecutionStrategy {
	return &MarketDataCollectorStrategy{
		cfg:              cfg,
		log:              log,
		companyRepo:      companyRepo,
		marketDataRepo:   marketDataRepo,
		yahooFinanceRepo: yahooFinanceRepo,
		usageRepo:        usageRepo,
	}
}

func (s *MarketDataCollectorStrategy) GetType() model.JobType {
	return model.JobTypeCollectMarketData
}

func (s *MarketDataCollectorStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	payload := MarketDataCollectorPayload{Range: dto.Period5Day}
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.UintField("job_id", job.ID))
			return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
		}
	}
	if !dto.IsValidPeriod(payload.Range) {
		payload.Range = dto.Period5Day
	}

	param := model.GetCompaniesParam{IsActive: utils.ToPointer(true), Tickers: utils.UniqueUpper(payload.Tickers)}
	companies, err := s.companyRepo.Get(ctx, param)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load companies", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to load companies: %w", err)
	}
	if len(companies) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no active companies"}, nil
	}

	var (
		mu      sync.Mutex
		results = make([]MarketDataCollectorResult, 0, len(companies))
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Analysis.FetchConcurrency, 1))
	for _, company := range companies {
		g.Go(func() error {
			if !utils.ShouldContinue(gctx, s.log) {
				return gctx.Err()
			}
			rows, err := s.collect(gctx, company, payload.Range)

			mu.Lock()
			defer mu.Unlock()
			result := MarketDataCollectorResult{Ticker: company.Ticker, Rows: rows}
			if err != nil {
				failed++
				result.Error = err.Error()
				s.log.WarnContext(gctx, "Failed to collect market data",
					logger.StringField("ticker", company.Ticker), logger.ErrorField(err))
			}
			results = append(results, result)
			// one bad ticker must not stop the rest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, err
	}

	output, _ := json.Marshal(results)
	switch {
	case failed == 0:
		return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(output)}, nil
	case failed == len(companies):
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: string(output)}, fmt.Errorf("market data collection failed for every company")
	default:
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(output)}, nil
	}
}

func (s *MarketDataCollectorStrategy) collect(ctx context.Context, company model.Company, period string) (int64, error) {
	started := time.Now()
	data, err := s.yahooFinanceRepo.Get(ctx, dto.GetStockDataParam{
		Ticker:   company.Ticker,
		Range:    period,
		Interval: dto.Interval1Day,
	})
	if usageErr := s.usageRepo.RecordProviderCall(ctx, common.PROVIDER_YAHOO, "collect_market_data", time.Since(started), 0, err); usageErr != nil {
		s.log.WarnContext(ctx, "Failed to record provider usage", logger.ErrorField(usageErr))
	}
	if err != nil {
		return 0, err
	}

	points := ToMarketDataPoints(company.ID, data.OHLCV)
	rows, err := s.marketDataRepo.UpsertBatch(ctx, points)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert market data: %w", err)
	}

	if company.Currency == "" || company.Exchange == "" {
		company.Currency = data.Currency
		company.Exchange = data.Exchange
		if err := s.companyRepo.UpdateMetadata(ctx, &company); err != nil {
			s.log.WarnContext(ctx, "Failed to update company metadata", logger.StringField("ticker", company.Ticker), logger.ErrorField(err))
		}
	}
	return rows, nil
}

// ToMarketDataPoints maps provider bars onto daily rows; several bars on the same
// UTC day collapse into the last one.
func ToMarketDataPoints(companyID uint, bars []dto.StockOHLCV) []model.MarketDataPoint {
	byDay := make(map[time.Time]int, len(bars))
	points := make([]model.MarketDataPoint, 0, len(bars))
	for _, bar := range bars {
		day := utils.StartOfDay(time.Unix(bar.Timestamp, 0))
		point := model.MarketDataPoint{
			CompanyID:     companyID,
			Date:          day,
			OpenPrice:     bar.Open,
			HighPrice:     bar.High,
			LowPrice:      bar.Low,
			ClosePrice:    bar.Close,
			AdjustedClose: bar.AdjustedClose,
			Volume:        bar.Volume,
		}
		if idx, ok := byDay[day]; ok {
			points[idx] = point
			continue
		}
		byDay[day] = len(points)
		points = append(points, point)
	}
	return points
}
