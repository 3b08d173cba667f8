package model

import "time"

type Watchlist struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:uq_watchlists_user_name" json:"user_id"`
	Name      string          `gorm:"type:varchar(100);not null;uniqueIndex:uq_watchlists_user_name" json:"name"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Items     []WatchlistItem `gorm:"foreignKey:WatchlistID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Watchlist) TableName() string {
	return "watchlists"
}

type WatchlistItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WatchlistID uint      `gorm:"not null;uniqueIndex:uq_watchlist_items_pair" json:"watchlist_id"`
	CompanyID   uint      `gorm:"not null;uniqueIndex:uq_watchlist_items_pair" json:"company_id"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	AddedAt     time.Time `gorm:"autoCreateTime" json:"added_at"`
	Company     Company   `gorm:"foreignKey:CompanyID;references:ID" json:"company"`
}

func (WatchlistItem) TableName() string {
	return "watchlist_items"
}
