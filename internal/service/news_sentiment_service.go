package service

import (
	"context"
	"encoding/json"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"strings"
	"time"
)

const (
	maxNewsPerPrompt       = 10
	defaultNewsListLimit   = 20
	defaultNewsSource      = "Unknown"
	newsSentimentOperation = "news_sentiment"
)

const newsSentimentSystemPrompt = `You are a financial sentiment analyst. Analyze the news articles and provide:
1. Overall sentiment score (-1.0 to 1.0)
2. Sentiment label (positive/negative/neutral)
3. Key themes or concerns

Respond with a single JSON object:
{"sentiment_score": 0.5, "sentiment_label": "positive", "key_themes": ["growth", "innovation"]}`

type NewsSentimentService interface {
	// Analyze scores a batch of articles for one ticker and stores them.
	Analyze(ctx context.Context, req dto.AnalyzeNewsRequest) (*dto.NewsSentimentResponse, error)
	List(ctx context.Context, req dto.ListNewsSentimentRequest) (*dto.NewsSentimentListResponse, error)
}

type newsSentimentService struct {
	log               *logger.Logger
	newsSentimentRepo repository.NewsSentimentRepository
	companyRepo       repository.CompanyRepository
	companyService    CompanyService
	llmRepo           repository.LLMRepository
	usageRepo         repository.UsageRepository
	now               func() time.Time
}

func NewNewsSentimentService(
	log *logger.Logger,
	newsSentimentRepo repository.NewsSentimentRepository,
	companyRepo repository.CompanyRepository,
	companyService CompanyService,
	llmRepo repository.LLMRepository,
	usageRepo repository.UsageRepository,
) NewsSentimentService {
	return &newsSentimentService{
		log:               log,
		newsSentimentRepo: newsSentimentRepo,
		companyRepo:       companyRepo,
		companyService:    companyService,
		llmRepo:           llmRepo,
		usageRepo:         usageRepo,
		now:               utils.TimeNow,
	}
}

func (s *newsSentimentService) Analyze(ctx context.Context, req dto.AnalyzeNewsRequest) (*dto.NewsSentimentResponse, error) {
	ticker := dto.NormalizeTicker(req.Ticker)
	if !dto.IsValidTicker(ticker) {
		return nil, fmt.Errorf("%w: invalid ticker %q", common.ErrInvalidInput, req.Ticker)
	}
	items := make([]dto.NewsItem, 0, len(req.Items))
	for _, item := range req.Items {
		item.Title = strings.TrimSpace(item.Title)
		if item.Title == "" {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one news item with a title is required", common.ErrInvalidInput)
	}

	company, err := s.companyService.Resolve(ctx, ticker)
	if err != nil {
		return nil, err
	}

	sentiment, err := s.score(ctx, ticker, items)
	if err != nil {
		return nil, err
	}

	themes, _ := json.Marshal(sentiment.KeyThemes)
	now := s.now()
	rows := make([]model.NewsSentiment, 0, len(items))
	for _, item := range items {
		row := model.NewsSentiment{
			CompanyID:      company.ID,
			Title:          item.Title,
			Source:         strings.TrimSpace(item.Source),
			URL:            strings.TrimSpace(item.URL),
			PublishedAt:    now,
			SentimentScore: sentiment.SentimentScore,
			SentimentLabel: model.SentimentLabel(sentiment.SentimentLabel),
			KeyThemes:      themes,
			Summary:        strings.TrimSpace(item.Summary),
		}
		if row.Source == "" {
			row.Source = defaultNewsSource
		}
		if item.PublishedAt != nil {
			row.PublishedAt = item.PublishedAt.UTC()
		}
		rows = append(rows, row)
	}

	stored, err := s.newsSentimentRepo.CreateBatch(ctx, rows)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to store news sentiment", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	s.log.InfoContext(ctx, "Analyzed news sentiment",
		logger.StringField("ticker", ticker),
		logger.IntField("analyzed", len(rows)),
		logger.IntField("stored", int(stored)),
		logger.StringField("label", sentiment.SentimentLabel))
	return &dto.NewsSentimentResponse{
		Ticker:    ticker,
		Analyzed:  len(rows),
		Stored:    stored,
		Sentiment: *sentiment,
		Timestamp: now,
	}, nil
}

// score sends at most maxNewsPerPrompt articles to the model in one request.
func (s *newsSentimentService) score(ctx context.Context, ticker string, items []dto.NewsItem) (*dto.NewsSentimentResult, error) {
	started := time.Now()
	res, err := s.llmRepo.Generate(ctx, dto.LLMRequest{
		SystemPrompt: newsSentimentSystemPrompt,
		UserPrompt:   BuildNewsSentimentPrompt(ticker, items),
		Operation:    newsSentimentOperation,
	})
	tokens := 0
	if res != nil {
		tokens = res.Tokens
	}
	if usageErr := s.usageRepo.RecordProviderCall(ctx, s.llmRepo.Provider(), newsSentimentOperation, time.Since(started), tokens, err); usageErr != nil {
		s.log.WarnContext(ctx, "Failed to record provider usage", logger.ErrorField(usageErr))
	}
	if err != nil {
		s.log.ErrorContext(ctx, "LLM request failed", logger.ErrorField(err), logger.StringField("operation", newsSentimentOperation))
		return nil, err
	}

	sentiment, err := dto.ParseNewsSentiment(res.Text)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to parse LLM response", logger.ErrorField(err),
			logger.StringField("response", utils.TruncateString(res.Text, 500)))
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	return &sentiment, nil
}

// BuildNewsSentimentPrompt renders the user turn for a news batch.
func BuildNewsSentimentPrompt(ticker string, items []dto.NewsItem) string {
	if len(items) > maxNewsPerPrompt {
		items = items[:maxNewsPerPrompt]
	}
	articles := make([]string, 0, len(items))
	for _, item := range items {
		articles = append(articles, fmt.Sprintf("Title: %s\nSummary: %s", item.Title, item.Summary))
	}
	return fmt.Sprintf("Analyze sentiment for %s:\n\n%s", ticker, strings.Join(articles, "\n\n"))
}

func (s *newsSentimentService) List(ctx context.Context, req dto.ListNewsSentimentRequest) (*dto.NewsSentimentListResponse, error) {
	ticker := dto.NormalizeTicker(req.Ticker)
	if !dto.IsValidTicker(ticker) {
		return nil, fmt.Errorf("%w: invalid ticker %q", common.ErrInvalidInput, req.Ticker)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultNewsListLimit
	}

	company, err := s.companyRepo.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %s", common.ErrNotFound, ticker)
	}

	items, err := s.newsSentimentRepo.ListByCompany(ctx, company.ID, limit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list news sentiment", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	resp := &dto.NewsSentimentListResponse{Ticker: ticker, Items: items}
	if len(items) > 0 {
		var total float64
		for _, item := range items {
			total += item.SentimentScore
		}
		resp.AverageScore = round(total/float64(len(items)), 3)
	}
	if resp.Items == nil {
		resp.Items = []model.NewsSentiment{}
	}
	return resp, nil
}
