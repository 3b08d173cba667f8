package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AnalysisKindMarket     = "analysis"
	AnalysisKindCompetitor = "competitor"
)

// AnalysisCacheEntry memoizes an LLM response under the hash of the normalized request.
type AnalysisCacheEntry struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	QueryHash       string         `gorm:"type:char(64);uniqueIndex;not null" json:"query_hash"`
	Kind            string         `gorm:"type:varchar(32);not null" json:"kind"`
	Company         string         `gorm:"type:varchar(16)" json:"company"`
	QueryText       string         `gorm:"type:text;not null" json:"query_text"`
	Parameters      datatypes.JSON `gorm:"type:jsonb" json:"parameters"`
	Response        datatypes.JSON `gorm:"type:jsonb;not null" json:"response"`
	ConfidenceScore float64        `gorm:"not null;default:0" json:"confidence_score"`
	ExpiresAt       time.Time      `gorm:"not null;index" json:"expires_at"`
	HitCount        int64          `gorm:"not null;default:0" json:"hit_count"`
	LastHitAt       *time.Time     `json:"last_hit_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AnalysisCacheEntry) TableName() string {
	return "ai_analysis_cache"
}

// IsExpired reports whether the entry must no longer be served at now.
func (e *AnalysisCacheEntry) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
