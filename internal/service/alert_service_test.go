package service

import (
	"context"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository/mocks"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompanyService_Resolve(t *testing.T) {
	t.Run("known ticker skips the provider", func(t *testing.T) {
		companies := new(mocks.CompanyRepository)
		yahoo := new(mocks.YahooFinanceRepository)
		svc := NewCompanyService(logger.NewNop(), companies, yahoo, new(mocks.UsageRepository))
		companies.On("GetByTicker", mock.Anything, "MSFT").Return(&model.Company{ID: 3, Ticker: "MSFT"}, nil)

		company, err := svc.Resolve(context.Background(), "msft")
		require.NoError(t, err)
		assert.Equal(t, uint(3), company.ID)
		yahoo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("new ticker is registered from provider metadata", func(t *testing.T) {
		companies := new(mocks.CompanyRepository)
		yahoo := new(mocks.YahooFinanceRepository)
		usage := new(mocks.UsageRepository)
		svc := NewCompanyService(logger.NewNop(), companies, yahoo, usage)

		companies.On("GetByTicker", mock.Anything, "SHOP").Return(nil, nil)
		yahoo.On("Get", mock.Anything, mock.Anything).Return(&dto.StockData{Ticker: "SHOP", Name: "Shopify Inc.", Currency: "USD", Exchange: "NYQ"}, nil)
		usage.On("RecordProviderCall", mock.Anything, common.PROVIDER_YAHOO, "resolve_company", mock.Anything, 0, nil).Return(nil)
		companies.On("Ensure", mock.Anything, mock.MatchedBy(func(c *model.Company) bool {
			return c.Ticker == "SHOP" && c.Name == "Shopify Inc." && c.IsActive
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*model.Company).ID = 21
		}).Return(nil)

		company, err := svc.Resolve(context.Background(), "SHOP")
		require.NoError(t, err)
		assert.Equal(t, uint(21), company.ID)
		companies.AssertExpectations(t)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		companies := new(mocks.CompanyRepository)
		yahoo := new(mocks.YahooFinanceRepository)
		usage := new(mocks.UsageRepository)
		svc := NewCompanyService(logger.NewNop(), companies, yahoo, usage)

		companies.On("GetByTicker", mock.Anything, "ZZZZ").Return(nil, nil)
		yahoo.On("Get", mock.Anything, mock.Anything).Return(nil, common.ErrNotFound)
		usage.On("RecordProviderCall", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Resolve(context.Background(), "ZZZZ")
		assert.ErrorIs(t, err, common.ErrNotFound)
		companies.AssertNotCalled(t, "Ensure", mock.Anything, mock.Anything)
	})
}

func TestAlertService_Create(t *testing.T) {
	alerts := new(mocks.AlertRepository)
	companies := new(mocks.CompanyRepository)
	companyService := NewCompanyService(logger.NewNop(), companies, new(mocks.YahooFinanceRepository), new(mocks.UsageRepository))
	svc := NewAlertService(logger.NewNop(), alerts, companyService)

	companies.On("GetByTicker", mock.Anything, "AAPL").Return(&model.Company{ID: 1, Ticker: "AAPL", Name: "Apple Inc."}, nil)
	alerts.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Alert) bool {
		return a.UserID == 7 && a.CompanyID == 1 && a.AlertType == model.AlertTypePriceAbove && a.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Alert).ID = 99
	}).Return(nil)

	resp, err := svc.Create(context.Background(), 7, dto.CreateAlertRequest{
		Company:        "aapl",
		AlertType:      "price_above",
		ConditionValue: decimal.RequireFromString("200.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, uint(99), resp.ID)
	assert.Equal(t, "AAPL", resp.Company)
	assert.True(t, resp.ConditionValue.Equal(decimal.RequireFromString("200.5")))
	alerts.AssertExpectations(t)
}

func TestAlertService_CreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  dto.CreateAlertRequest
	}{
		{name: "unknown type", req: dto.CreateAlertRequest{Company: "AAPL", AlertType: "price_sideways", ConditionValue: decimal.NewFromInt(1)}},
		{name: "zero value", req: dto.CreateAlertRequest{Company: "AAPL", AlertType: "price_below", ConditionValue: decimal.Zero}},
		{name: "negative value", req: dto.CreateAlertRequest{Company: "AAPL", AlertType: "volume_above", ConditionValue: decimal.NewFromInt(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := new(mocks.AlertRepository)
			companies := new(mocks.CompanyRepository)
			companyService := NewCompanyService(logger.NewNop(), companies, new(mocks.YahooFinanceRepository), new(mocks.UsageRepository))
			svc := NewAlertService(logger.NewNop(), alerts, companyService)

			_, err := svc.Create(context.Background(), 1, tt.req)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			companies.AssertNotCalled(t, "GetByTicker", mock.Anything, mock.Anything)
			alerts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAlertService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		alert   *model.Alert
		wantErr error
	}{
		{name: "own alert", alert: &model.Alert{ID: 5, UserID: 1}},
		{name: "missing alert", alert: nil, wantErr: common.ErrNotFound},
		{name: "someone else's alert", alert: &model.Alert{ID: 5, UserID: 2}, wantErr: common.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := new(mocks.AlertRepository)
			svc := NewAlertService(logger.NewNop(), alerts, nil)
			alerts.On("GetByID", mock.Anything, uint(5)).Return(tt.alert, nil)
			alerts.On("Delete", mock.Anything, uint(5)).Return(nil).Maybe()

			err := svc.Delete(context.Background(), 1, 5)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				alerts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			alerts.AssertCalled(t, "Delete", mock.Anything, uint(5))
		})
	}
}
