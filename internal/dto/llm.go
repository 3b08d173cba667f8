package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	Operation    string
}

type LLMResult struct {
	Text   string
	Tokens int
}

// LLMAnalysis is the structured answer requested from the model.
type LLMAnalysis struct {
	ExecutiveSummary string            `json:"executive_summary"`
	KeyInsights      []json.RawMessage `json:"key_insights"`
	Recommendations  []json.RawMessage `json:"recommendations"`
	RiskFactors      []json.RawMessage `json:"risk_factors"`
	ConfidenceScore  float64           `json:"confidence_score"`
}

type llmAnalysisWire struct {
	ExecutiveSummary string            `json:"executive_summary"`
	Summary          string            `json:"summary"`
	KeyInsights      []json.RawMessage `json:"key_insights"`
	Recommendations  []json.RawMessage `json:"recommendations"`
	RiskFactors      []json.RawMessage `json:"risk_factors"`
	ConfidenceLevel  json.RawMessage   `json:"confidence_level"`
}

// ParseLLMAnalysis decodes a model answer. Code fences are stripped,
// confidence given as a percentage is scaled to [0,1] and bare string
// insights are wrapped as {"insight": "..."}.
func ParseLLMAnalysis(raw string) (LLMAnalysis, error) {
	text := stripCodeFence(raw)

	var wire llmAnalysisWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return LLMAnalysis{}, fmt.Errorf("failed to decode model response: %w", err)
	}

	summary := wire.ExecutiveSummary
	if summary == "" {
		summary = wire.Summary
	}
	if summary == "" && len(wire.KeyInsights) == 0 {
		return LLMAnalysis{}, fmt.Errorf("model response has neither summary nor insights")
	}

	return LLMAnalysis{
		ExecutiveSummary: summary,
		KeyInsights:      wrapItems(wire.KeyInsights, "insight"),
		Recommendations:  wrapItems(wire.Recommendations, "recommendation"),
		RiskFactors:      wrapItems(wire.RiskFactors, "risk"),
		ConfidenceScore:  parseConfidence(wire.ConfidenceLevel),
	}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func wrapItems(items []json.RawMessage, key string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		if trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				continue
			}
			wrapped, _ := json.Marshal(map[string]string{key: s})
			out = append(out, wrapped)
			continue
		}
		out = append(out, json.RawMessage(trimmed))
	}
	return out
}

// parseConfidence accepts 0.8, 80, "80" or "80%".
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
			return 0
		}
	}
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
