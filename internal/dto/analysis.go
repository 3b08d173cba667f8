package dto

import (
	"encoding/json"
	"time"
)

type AnalyzeRequest struct {
	Query     string `json:"query" validate:"required,min=3,max=2000"`
	Company   string `json:"company" validate:"required,ticker"`
	TimeRange string `json:"time_range" validate:"omitempty,period"`
}

type AnalyzeResponse struct {
	Analysis        string            `json:"analysis"`
	Insights        []json.RawMessage `json:"insights"`
	Recommendations []json.RawMessage `json:"recommendations"`
	RiskFactors     []json.RawMessage `json:"risk_factors"`
	ConfidenceScore float64           `json:"confidence_score"`
	Data            *MarketData       `json:"data"`
	Cached          bool              `json:"cached"`
	Timestamp       time.Time         `json:"timestamp"`
}

type CompetitorAnalysisRequest struct {
	Company     string                 `json:"company" validate:"required,ticker"`
	Competitors []string               `json:"competitors" validate:"omitempty,max=10,unique,dive,ticker"`
	Metrics     map[string]interface{} `json:"metrics"`
	TimeRange   string                 `json:"time_range" validate:"omitempty,period"`
}

type CompetitorRow struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	MarketCap     int64   `json:"market_cap"`
	Volume        int64   `json:"volume"`
	AverageVolume int64   `json:"average_volume"`
	PeriodHigh    float64 `json:"period_high"`
	PeriodLow     float64 `json:"period_low"`
	Volatility    float64 `json:"volatility"`
}

type CompetitorAnalysisResponse struct {
	Company         string            `json:"company"`
	Competitors     []string          `json:"competitors"`
	Comparison      []CompetitorRow   `json:"comparison"`
	Summary         string            `json:"summary"`
	Insights        []json.RawMessage `json:"insights"`
	Recommendations []json.RawMessage `json:"recommendations"`
	RiskFactors     []json.RawMessage `json:"risk_factors"`
	ConfidenceScore float64           `json:"confidence_score"`
	Cached          bool              `json:"cached"`
	Timestamp       time.Time         `json:"timestamp"`
}

// CachedAnalysis is the payload stored in the analysis cache. Market data is
// kept alongside the narrative so a hit returns exactly what the miss returned.
type CachedAnalysis struct {
	Result     LLMAnalysis       `json:"result"`
	Data       *MarketData       `json:"data,omitempty"`
	Comparison []CompetitorRow   `json:"comparison,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	Extra      map[string]string `json:"extra,omitempty"`
}
