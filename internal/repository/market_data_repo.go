package repository

import (
	"context"
	"market-insight/internal/model"
	"market-insight/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

type MarketDataRepository interface {
	UpsertBatch(ctx context.Context, points []model.MarketDataPoint, opts ...utils.DBOption) (int64, error)
	GetLatestPoints(ctx context.Context, companyIDs []uint) (map[uint]model.MarketDataPoint, error)
	GetLatestPrices(ctx context.Context, companyIDs []uint) (map[uint]model.CompanyLatestPrice, error)
	GetMovers(ctx context.Context, limit int) (gainers, losers []model.CompanyLatestPrice, err error)
	RefreshMaterializedViews(ctx context.Context) error
}

type marketDataRepository struct {
	db *gorm.DB
}

func NewMarketDataRepository(db *gorm.DB) MarketDataRepository {
	return &marketDataRepository{db: db}
}

// UpsertBatch writes daily rows; an existing (company_id, date) row is overwritten.
func (r *marketDataRepository) UpsertBatch(ctx context.Context, points []model.MarketDataPoint, opts ...utils.DBOption) (int64, error) {
	if len(points) == 0 {
		return 0, nil
	}
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"open_price", "high_price", "low_price", "close_price", "adjusted_close", "volume",
			}),
		}).
		CreateInBatches(points, upsertBatchSize)
	return result.RowsAffected, result.Error
}

// GetLatestPoints reads the newest stored row per company straight from market_data.
func (r *marketDataRepository) GetLatestPoints(ctx context.Context, companyIDs []uint) (map[uint]model.MarketDataPoint, error) {
	out := make(map[uint]model.MarketDataPoint, len(companyIDs))
	if len(companyIDs) == 0 {
		return out, nil
	}
	var points []model.MarketDataPoint
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (company_id) *
			FROM market_data
			WHERE company_id IN ?
			ORDER BY company_id, date DESC`, companyIDs).
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		out[p.CompanyID] = p
	}
	return out, nil
}

func (r *marketDataRepository) GetLatestPrices(ctx context.Context, companyIDs []uint) (map[uint]model.CompanyLatestPrice, error) {
	out := make(map[uint]model.CompanyLatestPrice, len(companyIDs))
	if len(companyIDs) == 0 {
		return out, nil
	}
	var rows []model.CompanyLatestPrice
	if err := r.db.WithContext(ctx).Where("company_id IN ?", companyIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CompanyID] = row
	}
	return out, nil
}

func (r *marketDataRepository) GetMovers(ctx context.Context, limit int) ([]model.CompanyLatestPrice, []model.CompanyLatestPrice, error) {
	var gainers, losers []model.CompanyLatestPrice
	base := r.db.WithContext(ctx).Model(&model.CompanyLatestPrice{}).Where("change_percent IS NOT NULL")
	if err := base.Session(&gorm.Session{}).Where("change_percent > 0").
		Order("change_percent DESC").Limit(limit).Find(&gainers).Error; err != nil {
		return nil, nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("change_percent < 0").
		Order("change_percent ASC").Limit(limit).Find(&losers).Error; err != nil {
		return nil, nil, err
	}
	return gainers, losers, nil
}

// RefreshMaterializedViews refreshes the views without blocking readers.
func (r *marketDataRepository) RefreshMaterializedViews(ctx context.Context) error {
	for _, view := range []string{"mv_company_latest_prices", "mv_daily_query_stats"} {
		if err := r.db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY " + view).Error; err != nil {
			return err
		}
	}
	return nil
}
