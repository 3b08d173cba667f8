package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertTypePriceAbove  AlertType = "price_above"
	AlertTypePriceBelow  AlertType = "price_below"
	AlertTypeVolumeAbove AlertType = "volume_above"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertTypePriceAbove, AlertTypePriceBelow, AlertTypeVolumeAbove:
		return true
	}
	return false
}

type Alert struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"not null;index" json:"user_id"`
	CompanyID      uint             `gorm:"not null;index" json:"company_id"`
	AlertType      AlertType        `gorm:"type:varchar(32);not null" json:"alert_type"`
	ConditionValue decimal.Decimal  `gorm:"type:numeric(20,4);not null" json:"condition_value"`
	IsActive       bool             `gorm:"not null;default:true" json:"is_active"`
	TriggeredAt    *time.Time       `json:"triggered_at,omitempty"`
	TriggeredValue *decimal.Decimal `gorm:"type:numeric(20,4)" json:"triggered_value,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Company Company `gorm:"foreignKey:CompanyID;references:ID" json:"company"`
	User    User    `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (Alert) TableName() string {
	return "alerts"
}

// Evaluate reports whether the alert fires for the latest close price and volume.
func (a *Alert) Evaluate(price decimal.Decimal, volume int64) (bool, decimal.Decimal) {
	switch a.AlertType {
	case AlertTypePriceAbove:
		return price.GreaterThanOrEqual(a.ConditionValue), price
	case AlertTypePriceBelow:
		return price.LessThanOrEqual(a.ConditionValue), price
	case AlertTypeVolumeAbove:
		v := decimal.NewFromInt(volume)
		return v.GreaterThanOrEqual(a.ConditionValue), v
	}
	return false, decimal.Zero
}

type GetAlertsParam struct {
	UserID   *uint
	IsActive *bool
}
