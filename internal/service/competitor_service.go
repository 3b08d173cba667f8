package service

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
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type CompetitorService interface {
	Compare(ctx context.Context, req dto.CompetitorAnalysisRequest, userID *uint) (*dto.CompetitorAnalysisResponse, error)
}

type competitorService struct {
	*analysisCache
	marketDataService MarketDataService
}

func NewCompetitorService(
	cfg *config.Config,
	log *logger.Logger,
	marketDataService MarketDataService,
	analysisCacheRepo repository.AnalysisCacheRepository,
	usageRepo repository.UsageRepository,
	llmRepo repository.LLMRepository,
	systemParamRepo repository.SystemParamRepository,
) CompetitorService {
	return &competitorService{
		analysisCache:     newAnalysisCache(cfg, log, analysisCacheRepo, usageRepo, llmRepo, systemParamRepo),
		marketDataService: marketDataService,
	}
}

func (s *competitorService) Compare(ctx context.Context, req dto.CompetitorAnalysisRequest, userID *uint) (*dto.CompetitorAnalysisResponse, error) {
	req, err := s.normalizeRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	key := CacheKey(model.AnalysisKindCompetitor, competitorQuery(req), req.Company, req.TimeRange)
	queryText := fmt.Sprintf("compare %s with %s", req.Company, strings.Join(req.Competitors, ", "))

	if cached, ok := s.lookup(ctx, key); ok {
		s.logQuery(ctx, userID, model.AnalysisKindCompetitor, queryText, req.Company, true, started, nil)
		return toCompetitorResponse(req, cached, true), nil
	}

	payload, err := s.compute(ctx, req)
	s.logQuery(ctx, userID, model.AnalysisKindCompetitor, queryText, req.Company, false, started, err)
	if err != nil {
		return nil, err
	}

	params, _ := json.Marshal(map[string]interface{}{
		"company":     req.Company,
		"competitors": req.Competitors,
		"metrics":     req.Metrics,
		"time_range":  req.TimeRange,
	})
	s.store(ctx, key, model.AnalysisKindCompetitor, req.Company, queryText, params, payload)
	return toCompetitorResponse(req, payload, false), nil
}

// normalizeRequest upper-cases tickers and falls back to the configured peer set
// when the request names no competitors.
func (s *competitorService) normalizeRequest(ctx context.Context, req dto.CompetitorAnalysisRequest) (dto.CompetitorAnalysisRequest, error) {
	req.Company = dto.NormalizeTicker(req.Company)
	if !dto.IsValidTicker(req.Company) {
		return req, fmt.Errorf("%w: invalid company ticker %q", common.ErrInvalidInput, req.Company)
	}
	if req.TimeRange == "" {
		req.TimeRange = dto.DefaultPeriod
	}
	if !dto.IsValidPeriod(req.TimeRange) {
		return req, fmt.Errorf("%w: invalid time_range %q", common.ErrInvalidInput, req.TimeRange)
	}

	competitors := req.Competitors
	if len(competitors) == 0 {
		competitors = s.defaultCompetitors(ctx, req.Company)
	}

	seen := make(map[string]struct{}, len(competitors))
	normalized := make([]string, 0, len(competitors))
	for _, c := range competitors {
		ticker := dto.NormalizeTicker(c)
		if !dto.IsValidTicker(ticker) {
			return req, fmt.Errorf("%w: invalid competitor ticker %q", common.ErrInvalidInput, c)
		}
		if ticker == req.Company {
			return req, fmt.Errorf("%w: company %s cannot be its own competitor", common.ErrInvalidInput, ticker)
		}
		if _, dup := seen[ticker]; dup {
			return req, fmt.Errorf("%w: duplicate competitor %s", common.ErrInvalidInput, ticker)
		}
		seen[ticker] = struct{}{}
		normalized = append(normalized, ticker)
	}

	maxCompetitors := s.cfg.Analysis.MaxCompetitors
	if maxCompetitors <= 0 {
		maxCompetitors = 10
	}
	if len(normalized) == 0 || len(normalized) > maxCompetitors {
		return req, fmt.Errorf("%w: between 1 and %d competitors are required", common.ErrInvalidInput, maxCompetitors)
	}
	req.Competitors = normalized
	return req, nil
}

func (s *competitorService) defaultCompetitors(ctx context.Context, company string) []string {
	defaults, err := s.systemParamRepo.GetDefaultCompetitors(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to load default competitors", logger.ErrorField(err))
	}
	if peers := defaults[company]; len(peers) > 0 {
		return peers
	}

	peers := make([]string, 0, len(s.cfg.Analysis.DefaultCompetitors))
	for _, t := range s.cfg.Analysis.DefaultCompetitors {
		if dto.NormalizeTicker(t) != company {
			peers = append(peers, t)
		}
	}
	return peers
}

func (s *competitorService) compute(ctx context.Context, req dto.CompetitorAnalysisRequest) (*dto.CachedAnalysis, error) {
	tickers := append([]string{req.Company}, req.Competitors...)
	rows := make([]dto.CompetitorRow, len(tickers))

	limit := s.cfg.Analysis.FetchConcurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			data, err := s.marketDataService.GetMarketData(gctx, ticker, req.TimeRange)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", ticker, err)
			}
			rows[i] = BuildCompetitorRow(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := s.generate(ctx, model.AnalysisKindCompetitor, BuildCompetitorPrompt(req.Company, rows, req.Metrics))
	if err != nil {
		return nil, err
	}

	return &dto.CachedAnalysis{
		Result:     *result,
		Comparison: rows,
		CreatedAt:  s.now(),
	}, nil
}

// competitorQuery is the order-independent part of a comparison used in its cache key.
func competitorQuery(req dto.CompetitorAnalysisRequest) string {
	sorted := append([]string(nil), req.Competitors...)
	sort.Strings(sorted)
	metrics := "{}"
	if len(req.Metrics) > 0 {
		if raw, err := json.Marshal(req.Metrics); err == nil {
			metrics = string(raw)
		}
	}
	return strings.Join(sorted, ",") + "|" + metrics
}

// BuildCompetitorRow flattens one ticker's market data into a comparison row.
func BuildCompetitorRow(data *dto.MarketData) dto.CompetitorRow {
	row := dto.CompetitorRow{
		Ticker:        data.Ticker,
		Name:          data.Summary.Name,
		Price:         data.Summary.CurrentPrice,
		MarketCap:     data.Summary.MarketCap,
		Volume:        data.Summary.Volume,
		AverageVolume: data.Summary.AverageVolume,
		PeriodHigh:    data.Summary.PeriodHigh,
		PeriodLow:     data.Summary.PeriodLow,
		Volatility:    round(AnnualizedVolatility(data.History, data.Interval), 4),
	}
	if n := len(data.History); n > 0 && data.History[0].Close > 0 {
		first := data.History[0].Close
		row.ChangePercent = round((data.History[n-1].Close-first)/first*100, 4)
	}
	return row
}

// AnnualizedVolatility is the sample standard deviation of simple close-to-close
// returns scaled by the square root of the interval's bars per year. Fewer than
// two returns yield zero.
func AnnualizedVolatility(history []dto.StockOHLCV, interval string) float64 {
	returns := make([]float64, 0, len(history))
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, history[i].Close/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance) * math.Sqrt(dto.BarsPerYear(interval))
}

func toCompetitorResponse(req dto.CompetitorAnalysisRequest, cached *dto.CachedAnalysis, hit bool) *dto.CompetitorAnalysisResponse {
	return &dto.CompetitorAnalysisResponse{
		Company:         req.Company,
		Competitors:     req.Competitors,
		Comparison:      cached.Comparison,
		Summary:         cached.Result.ExecutiveSummary,
		Insights:        cached.Result.KeyInsights,
		Recommendations: cached.Result.Recommendations,
		RiskFactors:     cached.Result.RiskFactors,
		ConfidenceScore: cached.Result.ConfidenceScore,
		Cached:          hit,
		Timestamp:       cached.CreatedAt,
	}
}
