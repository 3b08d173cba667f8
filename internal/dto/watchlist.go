package dto

import "time"

type CreateWatchlistRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type AddWatchlistItemRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
	Notes  string `json:"notes" validate:"max=500"`
}

type WatchlistItemResponse struct {
	Ticker        string     `json:"ticker"`
	Name          string     `json:"name"`
	Notes         string     `json:"notes,omitempty"`
	LastClose     *float64   `json:"last_close,omitempty"`
	ChangePercent *float64   `json:"change_percent,omitempty"`
	PriceDate     *time.Time `json:"price_date,omitempty"`
	AddedAt       time.Time  `json:"added_at"`
}

type WatchlistResponse struct {
	ID        uint                    `json:"id"`
	Name      string                  `json:"name"`
	Items     []WatchlistItemResponse `json:"items"`
	CreatedAt time.Time               `json:"created_at"`
}
