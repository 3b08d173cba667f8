package model

import (
	"time"

	"gorm.io/datatypes"
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// NewsSentiment is one scored article. Articles analyzed in the same batch share
// the batch's score, label and themes.
type NewsSentiment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CompanyID      uint           `gorm:"not null;index" json:"company_id"`
	Title          string         `gorm:"type:text;not null" json:"title"`
	Source         string         `gorm:"type:varchar(200);not null" json:"source"`
	URL            string         `gorm:"type:text" json:"url,omitempty"`
	PublishedAt    time.Time      `gorm:"not null" json:"published_at"`
	SentimentScore float64        `gorm:"not null" json:"sentiment_score"`
	SentimentLabel SentimentLabel `gorm:"type:varchar(16);not null" json:"sentiment_label"`
	KeyThemes      datatypes.JSON `gorm:"type:jsonb" json:"key_themes"`
	Summary        string         `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (NewsSentiment) TableName() string {
	return "news_sentiment"
}
