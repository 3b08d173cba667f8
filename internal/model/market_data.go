package model

import "time"

// MarketDataPoint is one daily OHLCV row; (company_id, date) is unique.
type MarketDataPoint struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyID     uint      `gorm:"not null;uniqueIndex:uq_market_data_company_date" json:"company_id"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:uq_market_data_company_date" json:"date"`
	OpenPrice     float64   `gorm:"not null" json:"open"`
	HighPrice     float64   `gorm:"not null" json:"high"`
	LowPrice      float64   `gorm:"not null" json:"low"`
	ClosePrice    float64   `gorm:"not null" json:"close"`
	AdjustedClose float64   `gorm:"not null" json:"adjusted_close"`
	Volume        int64     `gorm:"not null" json:"volume"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MarketDataPoint) TableName() string {
	return "market_data"
}

// CompanyLatestPrice is a row of the mv_company_latest_prices materialized view.
type CompanyLatestPrice struct {
	CompanyID     uint      `json:"company_id"`
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name"`
	Date          time.Time `json:"date"`
	ClosePrice    float64   `json:"close"`
	PreviousClose *float64  `json:"previous_close,omitempty"`
	ChangePercent *float64  `json:"change_percent,omitempty"`
	Volume        int64     `json:"volume"`
}

func (CompanyLatestPrice) TableName() string {
	return "mv_company_latest_prices"
}
