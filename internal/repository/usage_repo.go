package repository

import (
	"context"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"time"

	"gorm.io/gorm"
)

type UsageRepository interface {
	CreateQueryLog(ctx context.Context, log *model.UserQueryLog) error
	CreateApiUsage(ctx context.Context, usage *model.ApiUsage) error
	RecordProviderCall(ctx context.Context, provider, operation string, latency time.Duration, tokens int, callErr error) error
	GetDailyQueryStats(ctx context.Context, since time.Time) ([]model.DailyQueryStat, error)
	GetProviderUsage(ctx context.Context, since time.Time) ([]dto.ProviderUsage, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (queryLogs int64, apiUsage int64, err error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) CreateQueryLog(ctx context.Context, log *model.UserQueryLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *usageRepository) CreateApiUsage(ctx context.Context, usage *model.ApiUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// RecordProviderCall appends one api_usage row for an outbound provider call.
func (r *usageRepository) RecordProviderCall(ctx context.Context, provider, operation string, latency time.Duration, tokens int, callErr error) error {
	status := model.QueryStatusSuccess
	if callErr != nil {
		status = model.QueryStatusFailed
	}
	return r.CreateApiUsage(ctx, &model.ApiUsage{
		Provider:  provider,
		Operation: operation,
		Status:    status,
		LatencyMs: latency.Milliseconds(),
		Tokens:    tokens,
	})
}

func (r *usageRepository) GetDailyQueryStats(ctx context.Context, since time.Time) ([]model.DailyQueryStat, error) {
	var stats []model.DailyQueryStat
	err := r.db.WithContext(ctx).
		Where("day >= ?", since).
		Order("day DESC, kind ASC").
		Find(&stats).Error
	return stats, err
}

func (r *usageRepository) GetProviderUsage(ctx context.Context, since time.Time) ([]dto.ProviderUsage, error) {
	var rows []dto.ProviderUsage
	err := r.db.WithContext(ctx).
		Model(&model.ApiUsage{}).
		Select(`provider,
			COUNT(*) AS calls,
			COUNT(*) FILTER (WHERE status <> ?) AS failures,
			COALESCE(AVG(latency_ms), 0) AS avg_ms,
			COALESCE(SUM(tokens), 0) AS tokens`, model.QueryStatusSuccess).
		Where("created_at >= ?", since).
		Group("provider").
		Order("provider ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *usageRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, int64, error) {
	var logs, usage int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("created_at < ?", before).Delete(&model.UserQueryLog{})
		if res.Error != nil {
			return res.Error
		}
		logs = res.RowsAffected

		res = tx.Where("created_at < ?", before).Delete(&model.ApiUsage{})
		if res.Error != nil {
			return res.Error
		}
		usage = res.RowsAffected
		return nil
	})
	return logs, usage, err
}
