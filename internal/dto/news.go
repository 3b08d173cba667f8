package dto

import (
	"encoding/json"
	"fmt"
	"market-insight/internal/model"
	"strings"
	"time"
)

// sentimentNeutralBand is the score range labelled neutral when the model omits a label.
const sentimentNeutralBand = 0.15

type NewsItem struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Summary     string     `json:"summary" validate:"max=4000"`
	Source      string     `json:"source" validate:"max=200"`
	URL         string     `json:"url" validate:"omitempty,url,max=2000"`
	PublishedAt *time.Time `json:"published_at"`
}

type AnalyzeNewsRequest struct {
	Ticker string     `param:"ticker" validate:"required,ticker"`
	Items  []NewsItem `json:"items" validate:"required,min=1,max=50,dive"`
}

type ListNewsSentimentRequest struct {
	Ticker string `param:"ticker" validate:"required,ticker"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// NewsSentimentResult is the structured answer requested from the model.
type NewsSentimentResult struct {
	SentimentScore float64  `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	KeyThemes      []string `json:"key_themes"`
}

type NewsSentimentResponse struct {
	Ticker    string              `json:"ticker"`
	Analyzed  int                 `json:"analyzed"`
	Stored    int64               `json:"stored"`
	Sentiment NewsSentimentResult `json:"sentiment"`
	Timestamp time.Time           `json:"timestamp"`
}

type NewsSentimentListResponse struct {
	Ticker       string                `json:"ticker"`
	AverageScore float64               `json:"average_score"`
	Items        []model.NewsSentiment `json:"items"`
}

// ParseNewsSentiment decodes a model answer. The score is clamped to [-1,1] and a
// missing or unknown label is derived from the score.
func ParseNewsSentiment(raw string) (NewsSentimentResult, error) {
	var res NewsSentimentResult
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &res); err != nil {
		return NewsSentimentResult{}, fmt.Errorf("failed to decode model response: %w", err)
	}

	res.SentimentScore = max(-1, min(1, res.SentimentScore))
	switch label := model.SentimentLabel(strings.ToLower(strings.TrimSpace(res.SentimentLabel))); label {
	case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral:
		res.SentimentLabel = string(label)
	default:
		res.SentimentLabel = string(LabelForScore(res.SentimentScore))
	}

	themes := make([]string, 0, len(res.KeyThemes))
	for _, theme := range res.KeyThemes {
		if theme = strings.TrimSpace(theme); theme != "" {
			themes = append(themes, theme)
		}
	}
	res.KeyThemes = themes
	return res, nil
}

func LabelForScore(score float64) model.SentimentLabel {
	switch {
	case score > sentimentNeutralBand:
		return model.SentimentPositive
	case score < -sentimentNeutralBand:
		return model.SentimentNegative
	}
	return model.SentimentNeutral
}
