package strategy

import (
	"context"
	"errors"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository/mocks"
	"market-insight/pkg/logger"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	enabled bool
	sent    map[int64]string
	err     error
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) SendMessageUser(_ context.Context, message string, chatID int64) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = map[int64]string{}
	}
	f.sent[chatID] = message
	return nil
}

func newAlert(id, companyID uint, alertType model.AlertType, value string, chat *int64) model.Alert {
	return model.Alert{
		ID:             id,
		CompanyID:      companyID,
		AlertType:      alertType,
		ConditionValue: decimal.RequireFromString(value),
		IsActive:       true,
		Company:        model.Company{ID: companyID, Ticker: "AAPL", Name: "Apple Inc."},
		User:           model.User{TelegramID: chat},
	}
}

func TestPriceAlertStrategy_Execute(t *testing.T) {
	chat := int64(42)
	alertRepo := new(mocks.AlertRepository)
	marketRepo := new(mocks.MarketDataRepository)
	notifier := &fakeNotifier{enabled: true}

	alerts := []model.Alert{
		newAlert(1, 10, model.AlertTypePriceAbove, "190", &chat),
		newAlert(2, 10, model.AlertTypePriceBelow, "150", &chat),
		newAlert(3, 10, model.AlertTypeVolumeAbove, "1000", nil),
	}
	alertRepo.On("FindPending", mock.Anything).Return(alerts, nil)
	marketRepo.On("GetLatestPoints", mock.Anything, []uint{10}).Return(map[uint]model.MarketDataPoint{
		10: {CompanyID: 10, ClosePrice: 195.5, Volume: 5000},
	}, nil)
	alertRepo.On("MarkTriggered", mock.Anything, uint(1), mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("195.5"))
	})).Return(true, nil)
	alertRepo.On("MarkTriggered", mock.Anything, uint(3), mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(5000))
	})).Return(true, nil)

	s := NewPriceAlertStrategy(logger.NewNop(), alertRepo, marketRepo, notifier)
	result, err := s.Execute(context.Background(), &model.Job{ID: 7})
	require.NoError(t, err)

	assert.Equal(t, int32(JOB_EXIT_CODE_SUCCESS), result.ExitCode)
	assert.Contains(t, result.Output, `"alert_id":1`)
	assert.Contains(t, result.Output, `"alert_id":3`)
	assert.NotContains(t, result.Output, `"alert_id":2`)
	assert.Contains(t, result.Output, `"notify":"no_chat"`)
	assert.Contains(t, notifier.sent[42], "AAPL")

	alertRepo.AssertNotCalled(t, "MarkTriggered", mock.Anything, uint(2), mock.Anything, mock.Anything)
	alertRepo.AssertExpectations(t)
	marketRepo.AssertExpectations(t)
}

func TestPriceAlertStrategy_NoPending(t *testing.T) {
	alertRepo := new(mocks.AlertRepository)
	alertRepo.On("FindPending", mock.Anything).Return([]model.Alert{}, nil)

	s := NewPriceAlertStrategy(logger.NewNop(), alertRepo, new(mocks.MarketDataRepository), nil)
	result, err := s.Execute(context.Background(), &model.Job{})
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_SKIPPED), result.ExitCode)
}

func TestPriceAlertStrategy_RaceLostIsNotReported(t *testing.T) {
	alertRepo := new(mocks.AlertRepository)
	marketRepo := new(mocks.MarketDataRepository)
	alertRepo.On("FindPending", mock.Anything).Return([]model.Alert{newAlert(1, 10, model.AlertTypePriceAbove, "100", nil)}, nil)
	marketRepo.On("GetLatestPoints", mock.Anything, []uint{10}).Return(map[uint]model.MarketDataPoint{10: {ClosePrice: 120}}, nil)
	alertRepo.On("MarkTriggered", mock.Anything, uint(1), mock.Anything, mock.Anything).Return(false, nil)

	s := NewPriceAlertStrategy(logger.NewNop(), alertRepo, marketRepo, &fakeNotifier{enabled: true})
	result, err := s.Execute(context.Background(), &model.Job{})
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_SKIPPED), result.ExitCode)
}

func TestPriceAlertStrategy_LoadFailure(t *testing.T) {
	alertRepo := new(mocks.AlertRepository)
	alertRepo.On("FindPending", mock.Anything).Return(nil, errors.New("db down"))

	s := NewPriceAlertStrategy(logger.NewNop(), alertRepo, new(mocks.MarketDataRepository), nil)
	result, err := s.Execute(context.Background(), &model.Job{})
	require.Error(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_FAILED), result.ExitCode)
}

func TestToMarketDataPoints_CollapsesSameDay(t *testing.T) {
	bars := []dto.StockOHLCV{
		{Timestamp: 1700000000, Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10},
		{Timestamp: 1700003600, Open: 1.5, High: 2.5, Low: 1.4, Close: 2, Volume: 20},
		{Timestamp: 1700086400, Open: 2, High: 3, Low: 2, Close: 2.5, Volume: 30},
	}
	points := ToMarketDataPoints(9, bars)
	require.Len(t, points, 2)
	assert.Equal(t, 2.0, points[0].ClosePrice)
	assert.Equal(t, uint(9), points[1].CompanyID)
	assert.Equal(t, 0, points[1].Date.Hour())
}
