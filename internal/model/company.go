package model

import "time"

type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"ticker"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Sector    string    `gorm:"type:varchar(100)" json:"sector,omitempty"`
	Industry  string    `gorm:"type:varchar(150)" json:"industry,omitempty"`
	MarketCap int64     `gorm:"not null;default:0" json:"market_cap"`
	Currency  string    `gorm:"type:varchar(8)" json:"currency,omitempty"`
	Exchange  string    `gorm:"type:varchar(32)" json:"exchange,omitempty"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Company) TableName() string {
	return "companies"
}

type GetCompaniesParam struct {
	Tickers  []string
	IsActive *bool
	Sector   string
}
