package repository

import (
	"context"
	"market-insight/internal/model"
	"market-insight/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NewsSentimentRepository interface {
	// CreateBatch inserts articles, skipping ones already stored, and reports how many were new.
	CreateBatch(ctx context.Context, items []model.NewsSentiment, opts ...utils.DBOption) (int64, error)
	ListByCompany(ctx context.Context, companyID uint, limit int) ([]model.NewsSentiment, error)
}

type newsSentimentRepository struct {
	db *gorm.DB
}

func NewNewsSentimentRepository(db *gorm.DB) NewsSentimentRepository {
	return &newsSentimentRepository{db: db}
}

func (r *newsSentimentRepository) CreateBatch(ctx context.Context, items []model.NewsSentiment, opts ...utils.DBOption) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&items)
	return result.RowsAffected, result.Error
}

func (r *newsSentimentRepository) ListByCompany(ctx context.Context, companyID uint, limit int) ([]model.NewsSentiment, error) {
	var items []model.NewsSentiment
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("published_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
