package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateAlertRequest struct {
	Company        string          `json:"company" validate:"required,ticker"`
	AlertType      string          `json:"alert_type" validate:"required,oneof=price_above price_below volume_above"`
	ConditionValue decimal.Decimal `json:"condition_value" validate:"gt=0"`
}

type AlertResponse struct {
	ID             uint             `json:"id"`
	Company        string           `json:"company"`
	CompanyName    string           `json:"company_name"`
	AlertType      string           `json:"alert_type"`
	ConditionValue decimal.Decimal  `json:"condition_value"`
	IsActive       bool             `json:"is_active"`
	TriggeredAt    *time.Time       `json:"triggered_at,omitempty"`
	TriggeredValue *decimal.Decimal `json:"triggered_value,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type ListAlertsRequest struct {
	Active *bool `query:"active"`
}
