package service

import (
	"encoding/json"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/pkg/utils"
	"strings"
)

const defaultSystemPrompt = `You are a senior market analyst with 15+ years of experience.
Your expertise includes financial statement analysis, competitive intelligence,
market trend prediction and risk assessment.

Provide insights that are data-driven and specific, actionable with clear
recommendations, risk-aware with uncertainty quantified, and set in the context
of the company's industry.

Respond with a single JSON object with these keys:
- executive_summary: string
- key_insights: array of 3 to 5 items
- recommendations: array, highest priority first
- risk_factors: array
- confidence_level: number from 0 to 100`

// BuildMarketAnalysisPrompt renders the user turn for a single-company question.
func BuildMarketAnalysisPrompt(query string, data *dto.MarketData) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following market data:\n\n")
	sb.WriteString(fmt.Sprintf("Company: %s (%s)\n", data.Ticker, data.Summary.Name))
	if data.Summary.Sector != "" {
		sb.WriteString(fmt.Sprintf("Sector: %s\n", data.Summary.Sector))
	}
	sb.WriteString(fmt.Sprintf("Time Period: %s\n", data.Period))
	sb.WriteString(fmt.Sprintf("Current Price: $%.2f\n", data.Summary.CurrentPrice))
	sb.WriteString(fmt.Sprintf("Volume: %d (average %d)\n", data.Summary.Volume, data.Summary.AverageVolume))
	if data.Summary.MarketCap > 0 {
		sb.WriteString(fmt.Sprintf("Market Cap: $%d\n", data.Summary.MarketCap))
	}
	if data.Summary.FiftyTwoWeekHigh > 0 {
		sb.WriteString(fmt.Sprintf("52-week range: $%.2f - $%.2f\n", data.Summary.FiftyTwoWeekLow, data.Summary.FiftyTwoWeekHigh))
	}
	sb.WriteString("\nHistorical Performance:\n")
	sb.WriteString(SummarizeHistory(data.History))
	sb.WriteString(fmt.Sprintf("\nUser Question: %s\n\n", query))
	sb.WriteString(`Provide comprehensive analysis covering:
1. Price trend analysis
2. Volume patterns
3. Market sentiment
4. Growth indicators
5. Risk assessment
`)
	return sb.String()
}

// SummarizeHistory condenses a series into start/end price, change and trend.
func SummarizeHistory(history []dto.StockOHLCV) string {
	switch len(history) {
	case 0:
		return "No historical data available\n"
	case 1:
		return fmt.Sprintf("Current price: $%.2f\n", history[0].Close)
	}

	start := history[0].Close
	end := history[len(history)-1].Close
	change := 0.0
	if start != 0 {
		change = (end - start) / start * 100
	}
	trend := "Downward"
	if change > 0 {
		trend = "Upward"
	}
	return fmt.Sprintf("Start Price: $%.2f\nEnd Price: $%.2f\nChange: %s\nTrend: %s\n",
		start, end, utils.FormatPercentage(change), trend)
}

// BuildCompetitorPrompt renders the comparison table and the focus metrics.
func BuildCompetitorPrompt(company string, rows []dto.CompetitorRow, metrics map[string]interface{}) string {
	var sb strings.Builder
	competitors := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Ticker != company {
			competitors = append(competitors, row.Ticker)
		}
	}

	sb.WriteString("Compare these companies in the market:\n\n")
	sb.WriteString(fmt.Sprintf("Primary Company: %s\n", company))
	sb.WriteString(fmt.Sprintf("Competitors: %s\n\n", strings.Join(competitors, ", ")))
	sb.WriteString("Metrics Comparison:\n")
	sb.WriteString("ticker | name | price | change% | market cap | avg volume | period high | period low | volatility\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s | %s | %.2f | %s | %d | %d | %.2f | %.2f | %.4f\n",
			row.Ticker, row.Name, row.Price, utils.FormatPercentage(row.ChangePercent), row.MarketCap,
			row.AverageVolume, row.PeriodHigh, row.PeriodLow, row.Volatility))
	}
	if len(metrics) > 0 {
		raw, err := json.Marshal(metrics)
		if err == nil {
			sb.WriteString(fmt.Sprintf("\nFocus metrics requested by the user: %s\n", raw))
		}
	}
	sb.WriteString(`
Analyze:
1. Competitive positioning
2. Strengths/Weaknesses
3. Market opportunities
4. Threats and risks
5. Strategic recommendations
`)
	return sb.String()
}
