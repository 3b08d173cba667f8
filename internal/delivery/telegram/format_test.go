package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/service"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubMarketData struct {
	data *dto.MarketData
	err  error
}

func (s stubMarketData) GetMarketData(ctx context.Context, ticker, period string) (*dto.MarketData, error) {
	return s.data, s.err
}

type stubReports struct {
	report *dto.DailyReport
	err    error
}

func (s stubReports) GetDailyReport(ctx context.Context, date string) (*dto.DailyReport, error) {
	return s.report, s.err
}

func (s stubReports) GetUsageStats(ctx context.Context, days int) (*dto.UsageStatsResponse, error) {
	return nil, nil
}

func newTestHandler(svc *service.Service) *TelegramBotHandler {
	cfg := &config.Config{Telegram: config.TelegramConfig{ChatID: 99}}
	return NewTelegramBotHandler(context.Background(), cfg, logger.NewNop(), nil, nil, nil, svc)
}

func TestItemText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"plain"`, "plain"},
		{`{"insight":"Revenue grew"}`, "Revenue grew"},
		{`{"risk":"FX","severity":"high"}`, "risk: FX; severity: high"},
		{`42`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, itemText(json.RawMessage(tt.raw)))
		})
	}
}

func TestFormatAnalysis(t *testing.T) {
	resp := &dto.AnalyzeResponse{
		Analysis: "Apple <strong> quarter",
		Insights: []json.RawMessage{
			json.RawMessage(`{"insight":"one"}`),
			json.RawMessage(`{"insight":"two"}`),
			json.RawMessage(`{"insight":"three"}`),
			json.RawMessage(`{"insight":"four"}`),
		},
		ConfidenceScore: 0.75,
		Cached:          true,
	}

	msg := formatAnalysis("AAPL", resp)
	assert.Contains(t, msg, "AAPL analysis</b> <i>(cached)</i>")
	assert.Contains(t, msg, "Apple &lt;strong&gt; quarter")
	assert.Contains(t, msg, "• three")
	assert.NotContains(t, msg, "• four")
	assert.Contains(t, msg, "… and 1 more")
	assert.Contains(t, msg, "Confidence: 75%")
	assert.NotContains(t, msg, "Recommendations")
}

func TestFormatJobs(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	jobs := []model.Job{{
		ID:   3,
		Name: "Refresh views",
		Type: model.JobTypeRefreshViews,
		Schedules: []model.TaskSchedule{{
			CronExpression: "*/15 * * * *",
			IsActive:       true,
			NextExecution:  sql.NullTime{Time: started.Add(15 * time.Minute), Valid: true},
		}},
		Histories: []model.TaskExecutionHistory{{
			Status:      model.StatusCompleted,
			StartedAt:   started,
			CompletedAt: sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true},
			ExitCode:    sql.NullInt32{Int32: 200, Valid: true},
		}},
	}}

	msg := formatJobs(jobs)
	assert.Contains(t, msg, "#3 Refresh views")
	assert.Contains(t, msg, "*/15 * * * * (active), next 05/01 10:15")
	assert.Contains(t, msg, "🟢 05/01 10:00 COMPLETED exit 200 (1.5s)")
	assert.Equal(t, "No jobs are configured.", formatJobs(nil))
}

func TestPriceMessage(t *testing.T) {
	data := &dto.MarketData{
		Ticker: "NVDA",
		Period: "5d",
		Summary: dto.MarketSummary{
			Name:          "NVIDIA Corporation",
			Currency:      "USD",
			CurrentPrice:  120.5,
			ChangePercent: -1.25,
			PeriodLow:     118,
			PeriodHigh:    125,
		},
		FetchedAt: time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		args []string
		svc  stubMarketData
		want string
	}{
		{name: "usage", args: nil, want: "Usage: /price"},
		{name: "ok", args: []string{"nvda", "5d"}, svc: stubMarketData{data: data}, want: "🔴 <b>NVDA</b> NVIDIA Corporation"},
		{name: "unknown ticker", args: []string{"ZZZZ"}, svc: stubMarketData{err: fmt.Errorf("%w: ZZZZ", common.ErrNotFound)}, want: "⚠️ not found: ZZZZ"},
		{name: "provider down", args: []string{"AAPL"}, svc: stubMarketData{err: common.ErrUpstream}, want: "data provider is not responding"},
		{name: "internal", args: []string{"AAPL"}, svc: stubMarketData{err: fmt.Errorf("boom")}, want: commonErrorInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&service.Service{MarketDataService: tt.svc})
			assert.Contains(t, h.priceMessage(context.Background(), tt.args), tt.want)
		})
	}
}

func TestReportMessage(t *testing.T) {
	h := newTestHandler(&service.Service{ReportService: stubReports{err: common.ErrNotFound}})
	assert.Equal(t, "No daily report has been generated for that date yet.", h.reportMessage(context.Background(), nil))

	h = newTestHandler(&service.Service{ReportService: stubReports{report: &dto.DailyReport{
		Date:       "2024-05-01",
		TopGainers: []dto.Mover{{Ticker: "NVDA", Close: 120.5, ChangePercent: 3.2}},
		Narrative:  &dto.LLMAnalysis{ExecutiveSummary: "Chips led the rally."},
	}}})
	msg := h.reportMessage(context.Background(), []string{"2024-05-01"})
	assert.Contains(t, msg, "• NVDA 120.50 (+3.20%)")
	assert.Contains(t, msg, "Top losers</b>\nnone")
	assert.Contains(t, msg, "Chips led the rally.")
}

func TestRunJobMessageArgs(t *testing.T) {
	h := newTestHandler(&service.Service{})
	assert.Equal(t, "Usage: /runjob JOB_ID", h.runJobMessage(context.Background(), nil))
	assert.Equal(t, "Job id must be a positive number.", h.runJobMessage(context.Background(), []string{"abc"}))
	assert.True(t, h.isOperator(99))
	assert.False(t, h.isOperator(100))
}
