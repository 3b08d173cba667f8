package repository

import (
	"context"
	"errors"
	"market-insight/internal/model"
	"market-insight/pkg/utils"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalysisCacheRepository interface {
	FindValid(ctx context.Context, queryHash string, now time.Time) (*model.AnalysisCacheEntry, error)
	RecordHit(ctx context.Context, id uint, at time.Time) error
	Upsert(ctx context.Context, entry *model.AnalysisCacheEntry, opts ...utils.DBOption) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type analysisCacheRepository struct {
	db *gorm.DB
}

func NewAnalysisCacheRepository(db *gorm.DB) AnalysisCacheRepository {
	return &analysisCacheRepository{db: db}
}

// FindValid returns the entry for queryHash if it has not expired at now, nil otherwise.
func (r *analysisCacheRepository) FindValid(ctx context.Context, queryHash string, now time.Time) (*model.AnalysisCacheEntry, error) {
	var entry model.AnalysisCacheEntry
	err := r.db.WithContext(ctx).
		Where("query_hash = ? AND expires_at > ?", queryHash, now).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *analysisCacheRepository) RecordHit(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.AnalysisCacheEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"hit_count":   gorm.Expr("hit_count + 1"),
			"last_hit_at": at,
		}).Error
}

// Upsert stores a fresh computation; an expired row under the same hash is replaced and its counter reset.
func (r *analysisCacheRepository) Upsert(ctx context.Context, entry *model.AnalysisCacheEntry, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "query_hash"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"kind":             entry.Kind,
				"company":          entry.Company,
				"query_text":       entry.QueryText,
				"parameters":       entry.Parameters,
				"response":         entry.Response,
				"confidence_score": entry.ConfidenceScore,
				"expires_at":       entry.ExpiresAt,
				"hit_count":        0,
				"last_hit_at":      nil,
			}),
		}).
		Create(entry).Error
}

func (r *analysisCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.AnalysisCacheEntry{})
	return result.RowsAffected, result.Error
}
