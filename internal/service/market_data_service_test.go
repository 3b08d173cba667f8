package service

import (
	"context"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/internal/repository/mocks"
	"market-insight/pkg/cache"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleStock() *dto.StockData {
	return &dto.StockData{
		Ticker:           "AAPL",
		Name:             "Apple Inc.",
		Currency:         "USD",
		Exchange:         "NMS",
		MarketPrice:      192,
		PreviousClose:    190,
		FiftyTwoWeekHigh: 200,
		FiftyTwoWeekLow:  150,
		OHLCV: []dto.StockOHLCV{
			{Open: 185, High: 188, Low: 184, Close: 187, Volume: 100},
			{Open: 187, High: 195, Low: 186, Close: 190, Volume: 300},
			{Open: 190, High: 193, Low: 189, Close: 192, Volume: 200},
		},
	}
}

func TestBuildMarketData(t *testing.T) {
	fetchedAt := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	data := BuildMarketData(sampleStock(), "5d", "30m", fetchedAt)

	assert.Equal(t, "AAPL", data.Ticker)
	assert.Equal(t, "5d", data.Period)
	assert.Equal(t, "30m", data.Interval)
	assert.Equal(t, 195.0, data.Summary.PeriodHigh)
	assert.Equal(t, 184.0, data.Summary.PeriodLow)
	assert.Equal(t, int64(200), data.Summary.AverageVolume)
	assert.Equal(t, int64(200), data.Summary.Volume)
	assert.Equal(t, 2.0, data.Summary.Change)
	assert.InDelta(t, 1.0526, data.Summary.ChangePercent, 1e-4)
	assert.Len(t, data.History, 3)
}

func TestBuildMarketData_FallsBackToSeries(t *testing.T) {
	stock := sampleStock()
	stock.MarketPrice = 0
	stock.PreviousClose = 0

	data := BuildMarketData(stock, "1mo", "1d", time.Now())

	assert.Equal(t, 192.0, data.Summary.CurrentPrice)
	assert.Equal(t, 185.0, data.Summary.PreviousClose)
}

func TestMarketDataService_ReadsThroughCache(t *testing.T) {
	yahoo := new(mocks.YahooFinanceRepository)
	companies := new(mocks.CompanyRepository)
	usage := new(mocks.UsageRepository)
	marketCache := repository.NewMemoryMarketCache(cache.NewCache(time.Minute, time.Minute))
	svc := NewMarketDataService(testConfig(), logger.NewNop(), yahoo, marketCache, companies, usage)

	yahoo.On("Get", mock.Anything, dto.GetStockDataParam{Ticker: "AAPL", Range: "1mo", Interval: "1d"}).Return(sampleStock(), nil).Once()
	usage.On("RecordProviderCall", mock.Anything, common.PROVIDER_YAHOO, "market_data", mock.Anything, 0, nil).Return(nil).Once()
	companies.On("GetByTicker", mock.Anything, "AAPL").Return(&model.Company{Ticker: "AAPL", Name: "Apple", Sector: "Technology", MarketCap: 3_000_000_000_000}, nil).Once()

	first, err := svc.GetMarketData(context.Background(), "aapl", "")
	require.NoError(t, err)
	second, err := svc.GetMarketData(context.Background(), "AAPL", "1mo")
	require.NoError(t, err)

	assert.Equal(t, "Technology", first.Summary.Sector)
	assert.Equal(t, int64(3_000_000_000_000), first.Summary.MarketCap)
	assert.Equal(t, first.Summary, second.Summary)
	yahoo.AssertNumberOfCalls(t, "Get", 1)
	usage.AssertExpectations(t)

	found, err := marketCache.Get(context.Background(), "stock:AAPL:1mo", &dto.MarketData{})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMarketDataService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		ticker   string
		period   string
		provider error
		wantErr  error
	}{
		{name: "invalid ticker", ticker: "$$$", wantErr: common.ErrInvalidInput},
		{name: "invalid period", ticker: "AAPL", period: "2w", wantErr: common.ErrInvalidInput},
		{name: "unknown symbol", ticker: "NOPE", provider: common.ErrNotFound, wantErr: common.ErrNotFound},
		{name: "provider timeout", ticker: "AAPL", provider: common.ErrUpstreamTimeout, wantErr: common.ErrUpstreamTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yahoo := new(mocks.YahooFinanceRepository)
			usage := new(mocks.UsageRepository)
			marketCache := repository.NewMemoryMarketCache(cache.NewCache(time.Minute, time.Minute))
			svc := NewMarketDataService(testConfig(), logger.NewNop(), yahoo, marketCache, new(mocks.CompanyRepository), usage)

			yahoo.On("Get", mock.Anything, mock.Anything).Return(nil, tt.provider).Maybe()
			usage.On("RecordProviderCall", mock.Anything, common.PROVIDER_YAHOO, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

			_, err := svc.GetMarketData(context.Background(), tt.ticker, tt.period)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.provider == nil {
				yahoo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
			}
		})
	}
}
