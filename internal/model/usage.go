package model

import "time"

const (
	QueryStatusSuccess = "success"
	QueryStatusFailed  = "failed"
)

type UserQueryLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       *uint     `json:"user_id,omitempty"`
	Kind         string    `gorm:"type:varchar(32);not null" json:"kind"`
	QueryText    string    `gorm:"type:text;not null" json:"query_text"`
	Company      string    `gorm:"type:varchar(16)" json:"company"`
	CacheHit     bool      `gorm:"not null;default:false" json:"cache_hit"`
	ResponseMs   int64     `gorm:"not null;default:0" json:"response_ms"`
	Status       string    `gorm:"type:varchar(16);not null" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (UserQueryLog) TableName() string {
	return "user_query_logs"
}

type ApiUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"type:varchar(32);not null" json:"provider"`
	Operation string    `gorm:"type:varchar(64);not null" json:"operation"`
	Status    string    `gorm:"type:varchar(16);not null" json:"status"`
	LatencyMs int64     `gorm:"not null;default:0" json:"latency_ms"`
	Tokens    int       `gorm:"not null;default:0" json:"tokens"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ApiUsage) TableName() string {
	return "api_usage"
}

// DailyQueryStat is a row of the mv_daily_query_stats materialized view.
type DailyQueryStat struct {
	Day          time.Time `json:"day"`
	Kind         string    `json:"kind"`
	TotalQueries int64     `json:"total_queries"`
	CacheHits    int64     `json:"cache_hits"`
	Failures     int64     `json:"failures"`
	HitRatio     float64   `json:"hit_ratio"`
	AvgResponse  float64   `gorm:"column:avg_response_ms" json:"avg_response_ms"`
}

func (DailyQueryStat) TableName() string {
	return "mv_daily_query_stats"
}
