// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/pkg/utils"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type YahooFinanceRepository struct {
	mock.Mock
}

func (m *YahooFinanceRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	args := m.Called(ctx, param)
	data, _ := args.Get(0).(*dto.StockData)
	return data, args.Error(1)
}

type LLMRepository struct {
	mock.Mock
}

func (m *LLMRepository) Generate(ctx context.Context, req dto.LLMRequest) (*dto.LLMResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dto.LLMResult)
	return res, args.Error(1)
}

func (m *LLMRepository) Provider() string {
	return "fake"
}

func (m *LLMRepository) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

type AnalysisCacheRepository struct {
	mock.Mock
}

func (m *AnalysisCacheRepository) FindValid(ctx context.Context, queryHash string, now time.Time) (*model.AnalysisCacheEntry, error) {
	args := m.Called(ctx, queryHash, now)
	entry, _ := args.Get(0).(*model.AnalysisCacheEntry)
	return entry, args.Error(1)
}

func (m *AnalysisCacheRepository) RecordHit(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *AnalysisCacheRepository) Upsert(ctx context.Context, entry *model.AnalysisCacheEntry, opts ...utils.DBOption) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *AnalysisCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type UsageRepository struct {
	mock.Mock
}

func (m *UsageRepository) CreateQueryLog(ctx context.Context, log *model.UserQueryLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *UsageRepository) CreateApiUsage(ctx context.Context, usage *model.ApiUsage) error {
	return m.Called(ctx, usage).Error(0)
}

func (m *UsageRepository) RecordProviderCall(ctx context.Context, provider, operation string, latency time.Duration, tokens int, callErr error) error {
	return m.Called(ctx, provider, operation, latency, tokens, callErr).Error(0)
}

func (m *UsageRepository) GetDailyQueryStats(ctx context.Context, since time.Time) ([]model.DailyQueryStat, error) {
	args := m.Called(ctx, since)
	stats, _ := args.Get(0).([]model.DailyQueryStat)
	return stats, args.Error(1)
}

func (m *UsageRepository) GetProviderUsage(ctx context.Context, since time.Time) ([]dto.ProviderUsage, error) {
	args := m.Called(ctx, since)
	rows, _ := args.Get(0).([]dto.ProviderUsage)
	return rows, args.Error(1)
}

func (m *UsageRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

type CompanyRepository struct {
	mock.Mock
}

func (m *CompanyRepository) Get(ctx context.Context, param model.GetCompaniesParam, opts ...utils.DBOption) ([]model.Company, error) {
	args := m.Called(ctx, param)
	companies, _ := args.Get(0).([]model.Company)
	return companies, args.Error(1)
}

func (m *CompanyRepository) GetByTicker(ctx context.Context, ticker string, opts ...utils.DBOption) (*model.Company, error) {
	args := m.Called(ctx, ticker)
	company, _ := args.Get(0).(*model.Company)
	return company, args.Error(1)
}

func (m *CompanyRepository) Ensure(ctx context.Context, company *model.Company, opts ...utils.DBOption) error {
	return m.Called(ctx, company).Error(0)
}

func (m *CompanyRepository) UpdateMetadata(ctx context.Context, company *model.Company, opts ...utils.DBOption) error {
	return m.Called(ctx, company).Error(0)
}

type MarketDataRepository struct {
	mock.Mock
}

func (m *MarketDataRepository) UpsertBatch(ctx context.Context, points []model.MarketDataPoint, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, points)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MarketDataRepository) GetLatestPoints(ctx context.Context, companyIDs []uint) (map[uint]model.MarketDataPoint, error) {
	args := m.Called(ctx, companyIDs)
	points, _ := args.Get(0).(map[uint]model.MarketDataPoint)
	return points, args.Error(1)
}

func (m *MarketDataRepository) GetLatestPrices(ctx context.Context, companyIDs []uint) (map[uint]model.CompanyLatestPrice, error) {
	args := m.Called(ctx, companyIDs)
	prices, _ := args.Get(0).(map[uint]model.CompanyLatestPrice)
	return prices, args.Error(1)
}

func (m *MarketDataRepository) GetMovers(ctx context.Context, limit int) ([]model.CompanyLatestPrice, []model.CompanyLatestPrice, error) {
	args := m.Called(ctx, limit)
	gainers, _ := args.Get(0).([]model.CompanyLatestPrice)
	losers, _ := args.Get(1).([]model.CompanyLatestPrice)
	return gainers, losers, args.Error(2)
}

func (m *MarketDataRepository) RefreshMaterializedViews(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type AlertRepository struct {
	mock.Mock
}

func (m *AlertRepository) Create(ctx context.Context, alert *model.Alert, opts ...utils.DBOption) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *AlertRepository) Get(ctx context.Context, param model.GetAlertsParam, opts ...utils.DBOption) ([]model.Alert, error) {
	args := m.Called(ctx, param)
	alerts, _ := args.Get(0).([]model.Alert)
	return alerts, args.Error(1)
}

func (m *AlertRepository) GetByID(ctx context.Context, id uint) (*model.Alert, error) {
	args := m.Called(ctx, id)
	alert, _ := args.Get(0).(*model.Alert)
	return alert, args.Error(1)
}

func (m *AlertRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AlertRepository) FindPending(ctx context.Context) ([]model.Alert, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]model.Alert)
	return alerts, args.Error(1)
}

func (m *AlertRepository) MarkTriggered(ctx context.Context, id uint, at time.Time, value decimal.Decimal, opts ...utils.DBOption) (bool, error) {
	args := m.Called(ctx, id, at, value)
	return args.Bool(0), args.Error(1)
}

type WatchlistRepository struct {
	mock.Mock
}

func (m *WatchlistRepository) Create(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error {
	return m.Called(ctx, watchlist).Error(0)
}

func (m *WatchlistRepository) ListByUser(ctx context.Context, userID uint) ([]model.Watchlist, error) {
	args := m.Called(ctx, userID)
	lists, _ := args.Get(0).([]model.Watchlist)
	return lists, args.Error(1)
}

func (m *WatchlistRepository) GetByID(ctx context.Context, id uint) (*model.Watchlist, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).(*model.Watchlist)
	return list, args.Error(1)
}

func (m *WatchlistRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	return m.Called(ctx, id).Error(0)
}

func (m *WatchlistRepository) AddItem(ctx context.Context, item *model.WatchlistItem, opts ...utils.DBOption) error {
	return m.Called(ctx, item).Error(0)
}

func (m *WatchlistRepository) RemoveItem(ctx context.Context, watchlistID, companyID uint, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, watchlistID, companyID)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetUserByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetUserByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) CreateUser(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	return m.Called(ctx, user).Error(0)
}

type SystemParamRepository struct {
	mock.Mock
}

func (m *SystemParamRepository) Get(ctx context.Context, name string, destValue interface{}) error {
	return m.Called(ctx, name, destValue).Error(0)
}

func (m *SystemParamRepository) GetDefaultCompetitors(ctx context.Context) (map[string][]string, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(map[string][]string)
	return v, args.Error(1)
}

func (m *SystemParamRepository) GetAnalysisSystemPrompt(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type JobRepository struct {
	mock.Mock
}

func (m *JobRepository) FindJobsToSchedule(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.TaskSchedule, error) {
	args := m.Called(ctx, now)
	schedules, _ := args.Get(0).([]model.TaskSchedule)
	return schedules, args.Error(1)
}

func (m *JobRepository) CreateTaskExecutionHistory(ctx context.Context, history *model.TaskExecutionHistory, opts ...utils.DBOption) error {
	return m.Called(ctx, history).Error(0)
}

func (m *JobRepository) UpdateTaskSchedule(ctx context.Context, schedule *model.TaskSchedule, opts ...utils.DBOption) error {
	return m.Called(ctx, schedule).Error(0)
}

func (m *JobRepository) FindByID(ctx context.Context, id uint) (*model.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*model.Job)
	return job, args.Error(1)
}

func (m *JobRepository) UpdateTaskExecutionHistory(ctx context.Context, history *model.TaskExecutionHistory, opts ...utils.DBOption) error {
	return m.Called(ctx, history).Error(0)
}

func (m *JobRepository) Get(ctx context.Context, param *model.GetJobParam, opts ...utils.DBOption) ([]model.Job, error) {
	args := m.Called(ctx, param)
	jobs, _ := args.Get(0).([]model.Job)
	return jobs, args.Error(1)
}

func (m *JobRepository) DeleteTaskHistoryOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

type NewsSentimentRepository struct {
	mock.Mock
}

func (m *NewsSentimentRepository) CreateBatch(ctx context.Context, items []model.NewsSentiment, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, items)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NewsSentimentRepository) ListByCompany(ctx context.Context, companyID uint, limit int) ([]model.NewsSentiment, error) {
	args := m.Called(ctx, companyID, limit)
	items, _ := args.Get(0).([]model.NewsSentiment)
	return items, args.Error(1)
}

// UnitOfWork runs fn directly without a transaction.
type UnitOfWork struct{}

func (UnitOfWork) Run(_ context.Context, fn func(opts ...utils.DBOption) error) error {
	return fn()
}
