package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minQueryLength = 3
	maxQueryLength = 2000
)

type AnalysisService interface {
	Analyze(ctx context.Context, req dto.AnalyzeRequest, userID *uint) (*dto.AnalyzeResponse, error)
}

// analysisCache is the cache-aside layer shared by the analysis and competitor services.
type analysisCache struct {
	cfg               *config.Config
	log               *logger.Logger
	analysisCacheRepo repository.AnalysisCacheRepository
	usageRepo         repository.UsageRepository
	llmRepo           repository.LLMRepository
	systemParamRepo   repository.SystemParamRepository
	now               func() time.Time
}

type analysisService struct {
	*analysisCache
	marketDataService MarketDataService
}

func NewAnalysisService(
	cfg *config.Config,
	log *logger.Logger,
	marketDataService MarketDataService,
	analysisCacheRepo repository.AnalysisCacheRepository,
	usageRepo repository.UsageRepository,
	llmRepo repository.LLMRepository,
	systemParamRepo repository.SystemParamRepository,
) AnalysisService {
	return &analysisService{
		analysisCache:     newAnalysisCache(cfg, log, analysisCacheRepo, usageRepo, llmRepo, systemParamRepo),
		marketDataService: marketDataService,
	}
}

func newAnalysisCache(
	cfg *config.Config,
	log *logger.Logger,
	analysisCacheRepo repository.AnalysisCacheRepository,
	usageRepo repository.UsageRepository,
	llmRepo repository.LLMRepository,
	systemParamRepo repository.SystemParamRepository,
) *analysisCache {
	return &analysisCache{
		cfg:               cfg,
		log:               log,
		analysisCacheRepo: analysisCacheRepo,
		usageRepo:         usageRepo,
		llmRepo:           llmRepo,
		systemParamRepo:   systemParamRepo,
		now:               utils.TimeNow,
	}
}

// NormalizeQuery lower-cases, trims and collapses whitespace so equivalent questions share a key.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// CacheKey is the SHA-256 hex digest identifying one analysis request.
func CacheKey(kind, query, ticker, timeRange string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{kind, NormalizeQuery(query), dto.NormalizeTicker(ticker), timeRange}, "|")))
	return hex.EncodeToString(sum[:])
}

func (s *analysisService) Analyze(ctx context.Context, req dto.AnalyzeRequest, userID *uint) (*dto.AnalyzeResponse, error) {
	req, err := normalizeAnalyzeRequest(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	key := CacheKey(model.AnalysisKindMarket, req.Query, req.Company, req.TimeRange)

	if cached, ok := s.lookup(ctx, key); ok {
		s.logQuery(ctx, userID, model.AnalysisKindMarket, req.Query, req.Company, true, started, nil)
		return toAnalyzeResponse(cached, true), nil
	}

	payload, err := s.compute(ctx, req)
	s.logQuery(ctx, userID, model.AnalysisKindMarket, req.Query, req.Company, false, started, err)
	if err != nil {
		return nil, err
	}

	params, _ := json.Marshal(map[string]string{"company": req.Company, "time_range": req.TimeRange})
	s.store(ctx, key, model.AnalysisKindMarket, req.Company, req.Query, params, payload)
	return toAnalyzeResponse(payload, false), nil
}

func (s *analysisService) compute(ctx context.Context, req dto.AnalyzeRequest) (*dto.CachedAnalysis, error) {
	data, err := s.marketDataService.GetMarketData(ctx, req.Company, req.TimeRange)
	if err != nil {
		return nil, err
	}

	result, err := s.generate(ctx, model.AnalysisKindMarket, BuildMarketAnalysisPrompt(req.Query, data))
	if err != nil {
		return nil, err
	}

	return &dto.CachedAnalysis{
		Result:    *result,
		Data:      data,
		CreatedAt: s.now(),
	}, nil
}

func normalizeAnalyzeRequest(req dto.AnalyzeRequest) (dto.AnalyzeRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if n := utf8.RuneCountInString(req.Query); n < minQueryLength || n > maxQueryLength {
		return req, fmt.Errorf("%w: query must be between %d and %d characters", common.ErrInvalidInput, minQueryLength, maxQueryLength)
	}
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
	return req, nil
}

// lookup returns the stored payload for key when a live entry exists and counts the hit.
func (c *analysisCache) lookup(ctx context.Context, key string) (*dto.CachedAnalysis, bool) {
	now := c.now()
	entry, err := c.analysisCacheRepo.FindValid(ctx, key, now)
	if err != nil {
		c.log.WarnContext(ctx, "Analysis cache lookup failed", logger.ErrorField(err))
		return nil, false
	}
	if entry == nil || entry.IsExpired(now) {
		return nil, false
	}

	var cached dto.CachedAnalysis
	if err := json.Unmarshal(entry.Response, &cached); err != nil {
		c.log.WarnContext(ctx, "Discarding undecodable analysis cache entry", logger.ErrorField(err), logger.UintField("id", entry.ID))
		return nil, false
	}

	if err := c.analysisCacheRepo.RecordHit(ctx, entry.ID, now); err != nil {
		c.log.WarnContext(ctx, "Failed to record analysis cache hit", logger.ErrorField(err))
	}
	return &cached, true
}

func (c *analysisCache) store(ctx context.Context, key, kind, company, query string, params []byte, payload *dto.CachedAnalysis) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to encode analysis for cache", logger.ErrorField(err))
		return
	}
	entry := &model.AnalysisCacheEntry{
		QueryHash:       key,
		Kind:            kind,
		Company:         company,
		QueryText:       query,
		Parameters:      params,
		Response:        raw,
		ConfidenceScore: payload.Result.ConfidenceScore,
		ExpiresAt:       c.now().Add(c.cfg.Analysis.CacheTTL),
	}
	if err := c.analysisCacheRepo.Upsert(ctx, entry); err != nil {
		c.log.WarnContext(ctx, "Failed to store analysis cache entry", logger.ErrorField(err))
	}
}

// generate calls the model in JSON mode, records the call and parses the answer.
func (c *analysisCache) generate(ctx context.Context, operation, userPrompt string) (*dto.LLMAnalysis, error) {
	systemPrompt, err := c.systemParamRepo.GetAnalysisSystemPrompt(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to load analysis prompt, using default", logger.ErrorField(err))
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	started := time.Now()
	res, err := c.llmRepo.Generate(ctx, dto.LLMRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Operation:    operation,
	})
	tokens := 0
	if res != nil {
		tokens = res.Tokens
	}
	if usageErr := c.usageRepo.RecordProviderCall(ctx, c.llmRepo.Provider(), operation, time.Since(started), tokens, err); usageErr != nil {
		c.log.WarnContext(ctx, "Failed to record provider usage", logger.ErrorField(usageErr))
	}
	if err != nil {
		c.log.ErrorContext(ctx, "LLM request failed", logger.ErrorField(err), logger.StringField("operation", operation))
		return nil, err
	}

	analysis, err := dto.ParseLLMAnalysis(res.Text)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to parse LLM response", logger.ErrorField(err),
			logger.StringField("response", utils.TruncateString(res.Text, 500)))
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	return &analysis, nil
}

func (c *analysisCache) logQuery(ctx context.Context, userID *uint, kind, query, company string, hit bool, started time.Time, callErr error) {
	entry := &model.UserQueryLog{
		UserID:     userID,
		Kind:       kind,
		QueryText:  query,
		Company:    company,
		CacheHit:   hit,
		ResponseMs: time.Since(started).Milliseconds(),
		Status:     model.QueryStatusSuccess,
	}
	if callErr != nil {
		entry.Status = model.QueryStatusFailed
		entry.ErrorMessage = utils.TruncateString(callErr.Error(), 1000)
	}
	if err := c.usageRepo.CreateQueryLog(ctx, entry); err != nil {
		c.log.WarnContext(ctx, "Failed to write query log", logger.ErrorField(err))
	}
}

func toAnalyzeResponse(cached *dto.CachedAnalysis, hit bool) *dto.AnalyzeResponse {
	return &dto.AnalyzeResponse{
		Analysis:        cached.Result.ExecutiveSummary,
		Insights:        cached.Result.KeyInsights,
		Recommendations: cached.Result.Recommendations,
		RiskFactors:     cached.Result.RiskFactors,
		ConfidenceScore: cached.Result.ConfidenceScore,
		Data:            cached.Data,
		Cached:          hit,
		Timestamp:       cached.CreatedAt,
	}
}
