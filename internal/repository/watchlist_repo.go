package repository

import (
	"context"
	"errors"
	"market-insight/internal/model"
	"market-insight/pkg/utils"

	"gorm.io/gorm"
)

type WatchlistRepository interface {
	Create(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error
	ListByUser(ctx context.Context, userID uint) ([]model.Watchlist, error)
	GetByID(ctx context.Context, id uint) (*model.Watchlist, error)
	Delete(ctx context.Context, id uint, opts ...utils.DBOption) error
	AddItem(ctx context.Context, item *model.WatchlistItem, opts ...utils.DBOption) error
	RemoveItem(ctx context.Context, watchlistID, companyID uint, opts ...utils.DBOption) (int64, error)
}

type watchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) Create(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(watchlist).Error
}

func (r *watchlistRepository) ListByUser(ctx context.Context, userID uint) ([]model.Watchlist, error) {
	var watchlists []model.Watchlist
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC")
		}).
		Preload("Items.Company").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&watchlists).Error
	return watchlists, err
}

// GetByID returns nil when the watchlist does not exist.
func (r *watchlistRepository) GetByID(ctx context.Context, id uint) (*model.Watchlist, error) {
	var watchlist model.Watchlist
	if err := r.db.WithContext(ctx).First(&watchlist, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &watchlist, nil
}

func (r *watchlistRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Delete(&model.Watchlist{}, id).Error
}

func (r *watchlistRepository) AddItem(ctx context.Context, item *model.WatchlistItem, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Omit("Company").Create(item).Error
}

func (r *watchlistRepository) RemoveItem(ctx context.Context, watchlistID, companyID uint, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("watchlist_id = ? AND company_id = ?", watchlistID, companyID).
		Delete(&model.WatchlistItem{})
	return result.RowsAffected, result.Error
}
