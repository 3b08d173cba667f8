package service

import (
	"context"
	"encoding/json"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository/mocks"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type newsFixture struct {
	news      *mocks.NewsSentimentRepository
	companies *mocks.CompanyRepository
	llm       *mocks.LLMRepository
	usage     *mocks.UsageRepository
	svc       *newsSentimentService
	now       time.Time
}

func newNewsFixture() *newsFixture {
	f := &newsFixture{
		news:      new(mocks.NewsSentimentRepository),
		companies: new(mocks.CompanyRepository),
		llm:       new(mocks.LLMRepository),
		usage:     new(mocks.UsageRepository),
		now:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	companyService := NewCompanyService(logger.NewNop(), f.companies, new(mocks.YahooFinanceRepository), f.usage)
	f.svc = NewNewsSentimentService(logger.NewNop(), f.news, f.companies, companyService, f.llm, f.usage).(*newsSentimentService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func newsItems(n int) []dto.NewsItem {
	items := make([]dto.NewsItem, n)
	for i := range items {
		items[i] = dto.NewsItem{Title: "Headline " + string(rune('A'+i)), Summary: "summary"}
	}
	return items
}

func TestNewsSentimentService_Analyze(t *testing.T) {
	f := newNewsFixture()
	published := time.Date(2024, 4, 30, 14, 0, 0, 0, time.UTC)
	items := newsItems(12)
	items[0].Source = "Reuters"
	items[0].PublishedAt = &published

	f.companies.On("GetByTicker", mock.Anything, "AAPL").Return(&model.Company{ID: 4, Ticker: "AAPL"}, nil)
	f.llm.On("Generate", mock.Anything, mock.MatchedBy(func(req dto.LLMRequest) bool {
		return req.Operation == "news_sentiment" &&
			strings.Contains(req.UserPrompt, "Headline J") &&
			!strings.Contains(req.UserPrompt, "Headline K")
	})).Return(&dto.LLMResult{Text: `{"sentiment_score": 1.4, "sentiment_label": "Positive", "key_themes": ["growth", " "]}`, Tokens: 90}, nil)
	f.usage.On("RecordProviderCall", mock.Anything, "fake", "news_sentiment", mock.Anything, 90, nil).Return(nil)

	var stored []model.NewsSentiment
	f.news.On("CreateBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).([]model.NewsSentiment)
	}).Return(int64(11), nil)

	resp, err := f.svc.Analyze(context.Background(), dto.AnalyzeNewsRequest{Ticker: "aapl", Items: items})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", resp.Ticker)
	assert.Equal(t, 12, resp.Analyzed)
	assert.Equal(t, int64(11), resp.Stored)
	assert.Equal(t, 1.0, resp.Sentiment.SentimentScore)
	assert.Equal(t, "positive", resp.Sentiment.SentimentLabel)
	assert.Equal(t, []string{"growth"}, resp.Sentiment.KeyThemes)

	require.Len(t, stored, 12)
	assert.Equal(t, uint(4), stored[0].CompanyID)
	assert.Equal(t, "Reuters", stored[0].Source)
	assert.True(t, stored[0].PublishedAt.Equal(published))
	assert.Equal(t, "Unknown", stored[1].Source)
	assert.True(t, stored[1].PublishedAt.Equal(f.now))
	assert.Equal(t, model.SentimentPositive, stored[11].SentimentLabel)

	var themes []string
	require.NoError(t, json.Unmarshal(stored[0].KeyThemes, &themes))
	assert.Equal(t, []string{"growth"}, themes)
}

func TestNewsSentimentService_AnalyzeRejectsBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name string
		req  dto.AnalyzeNewsRequest
	}{
		{name: "bad ticker", req: dto.AnalyzeNewsRequest{Ticker: "not a ticker", Items: newsItems(1)}},
		{name: "no items", req: dto.AnalyzeNewsRequest{Ticker: "AAPL"}},
		{name: "blank titles", req: dto.AnalyzeNewsRequest{Ticker: "AAPL", Items: []dto.NewsItem{{Title: "  "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNewsFixture()

			_, err := f.svc.Analyze(context.Background(), tt.req)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			f.llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
			f.news.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
			f.companies.AssertNotCalled(t, "GetByTicker", mock.Anything, mock.Anything)
		})
	}
}

func TestNewsSentimentService_UnparseableAnswerStoresNothing(t *testing.T) {
	f := newNewsFixture()
	f.companies.On("GetByTicker", mock.Anything, "MSFT").Return(&model.Company{ID: 2, Ticker: "MSFT"}, nil)
	f.llm.On("Generate", mock.Anything, mock.Anything).Return(&dto.LLMResult{Text: "not json"}, nil)
	f.usage.On("RecordProviderCall", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Analyze(context.Background(), dto.AnalyzeNewsRequest{Ticker: "MSFT", Items: newsItems(2)})
	assert.ErrorIs(t, err, common.ErrUpstream)
	f.news.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestNewsSentimentService_List(t *testing.T) {
	t.Run("averages stored scores", func(t *testing.T) {
		f := newNewsFixture()
		f.companies.On("GetByTicker", mock.Anything, "AAPL").Return(&model.Company{ID: 4, Ticker: "AAPL"}, nil)
		f.news.On("ListByCompany", mock.Anything, uint(4), 20).Return([]model.NewsSentiment{
			{SentimentScore: 0.5}, {SentimentScore: -0.2}, {SentimentScore: 0.3},
		}, nil)

		resp, err := f.svc.List(context.Background(), dto.ListNewsSentimentRequest{Ticker: "AAPL"})
		require.NoError(t, err)
		assert.Equal(t, 0.2, resp.AverageScore)
		assert.Len(t, resp.Items, 3)
	})

	t.Run("unknown company", func(t *testing.T) {
		f := newNewsFixture()
		f.companies.On("GetByTicker", mock.Anything, "ZZZZ").Return(nil, nil)

		_, err := f.svc.List(context.Background(), dto.ListNewsSentimentRequest{Ticker: "ZZZZ", Limit: 5})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
