package repository

import (
	"context"
	"errors"
	"market-insight/internal/model"
	"market-insight/pkg/utils"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert, opts ...utils.DBOption) error
	Get(ctx context.Context, param model.GetAlertsParam, opts ...utils.DBOption) ([]model.Alert, error)
	GetByID(ctx context.Context, id uint) (*model.Alert, error)
	Delete(ctx context.Context, id uint, opts ...utils.DBOption) error
	FindPending(ctx context.Context) ([]model.Alert, error)
	MarkTriggered(ctx context.Context, id uint, at time.Time, value decimal.Decimal, opts ...utils.DBOption) (bool, error)
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Omit("Company", "User").Create(alert).Error
}

func (r *alertRepository) Get(ctx context.Context, param model.GetAlertsParam, opts ...utils.DBOption) ([]model.Alert, error) {
	var alerts []model.Alert
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Preload("Company")
	if param.UserID != nil {
		db = db.Where("user_id = ?", *param.UserID)
	}
	if param.IsActive != nil {
		db = db.Where("is_active = ?", *param.IsActive)
	}
	if err := db.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// GetByID returns nil when the alert does not exist.
func (r *alertRepository) GetByID(ctx context.Context, id uint) (*model.Alert, error) {
	var alert model.Alert
	if err := r.db.WithContext(ctx).Preload("Company").First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Delete(&model.Alert{}, id).Error
}

// FindPending returns active alerts that have not fired yet, with company and owner loaded.
func (r *alertRepository) FindPending(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("User").
		Where("is_active = ? AND triggered_at IS NULL", true).
		Order("id ASC").
		Find(&alerts).Error
	return alerts, err
}

// MarkTriggered deactivates the alert; it reports false if another run got there first.
func (r *alertRepository) MarkTriggered(ctx context.Context, id uint, at time.Time, value decimal.Decimal, opts ...utils.DBOption) (bool, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Alert{}).
		Where("id = ? AND is_active = ? AND triggered_at IS NULL", id, true).
		Updates(map[string]interface{}{
			"is_active":       false,
			"triggered_at":    at,
			"triggered_value": value,
		})
	return result.RowsAffected > 0, result.Error
}
