package telegram

import (
	"encoding/json"
	"fmt"
	"html"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/pkg/utils"
	"sort"
	"strings"
	"time"
)

const maxListedItems = 3

var escape = html.EscapeString

func startMessage(chatID int64) string {
	var sb strings.Builder
	sb.WriteString("👋 <b>Welcome to Market Insight!</b>\n")
	sb.WriteString("I fetch market data and ask an AI analyst about the companies you follow.\n\n")
	sb.WriteString("📈 /price TICKER [period] - latest price and change\n")
	sb.WriteString("🤖 /analyze TICKER question - AI analysis of a company\n")
	sb.WriteString("📰 /report [YYYY-MM-DD] - daily top movers\n")
	sb.WriteString("🆘 /help - show this message again\n\n")
	sb.WriteString(fmt.Sprintf("🔔 Your chat id is <code>%d</code>. Add it as <code>telegram_id</code> when you register to receive price alerts here.", chatID))
	return sb.String()
}

func formatMarketData(data *dto.MarketData) string {
	s := data.Summary
	icon := "🟢"
	if s.ChangePercent < 0 {
		icon = "🔴"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", icon, escape(data.Ticker), escape(s.Name)))
	sb.WriteString(fmt.Sprintf("💰 Price: <b>%.2f %s</b> (%s)\n", s.CurrentPrice, escape(s.Currency), utils.FormatPercentage(s.ChangePercent)))
	sb.WriteString(fmt.Sprintf("📊 %s range: %.2f - %.2f\n", escape(data.Period), s.PeriodLow, s.PeriodHigh))
	if s.FiftyTwoWeekHigh > 0 {
		sb.WriteString(fmt.Sprintf("📅 52w range: %.2f - %.2f\n", s.FiftyTwoWeekLow, s.FiftyTwoWeekHigh))
	}
	sb.WriteString(fmt.Sprintf("🔁 Volume: %d (avg %d)\n", s.Volume, s.AverageVolume))
	sb.WriteString(fmt.Sprintf("<i>⏰ %s UTC</i>", data.FetchedAt.UTC().Format("02 Jan 2006 15:04")))
	return sb.String()
}

func formatAnalysis(ticker string, resp *dto.AnalyzeResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🤖 <b>%s analysis</b>", escape(ticker)))
	if resp.Cached {
		sb.WriteString(" <i>(cached)</i>")
	}
	sb.WriteString("\n\n")
	sb.WriteString(escape(resp.Analysis))
	sb.WriteString("\n")

	writeItems(&sb, "📌 Key insights", resp.Insights)
	writeItems(&sb, "✅ Recommendations", resp.Recommendations)
	writeItems(&sb, "⚠️ Risks", resp.RiskFactors)

	sb.WriteString(fmt.Sprintf("\n🎯 Confidence: %.0f%%", resp.ConfidenceScore*100))
	return sb.String()
}

func writeItems(sb *strings.Builder, title string, items []json.RawMessage) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
	for i, item := range items {
		if i == maxListedItems {
			sb.WriteString(fmt.Sprintf("… and %d more\n", len(items)-maxListedItems))
			break
		}
		sb.WriteString("• ")
		sb.WriteString(escape(itemText(item)))
		sb.WriteString("\n")
	}
}

// itemText flattens a model list item. Items are either strings or objects
// such as {"insight": "..."}; objects with several fields are joined by key.
func itemText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return string(raw)
	}
	if len(obj) == 1 {
		for _, v := range obj {
			return fmt.Sprint(v)
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, obj[k]))
	}
	return strings.Join(parts, "; ")
}

func formatDailyReport(report *dto.DailyReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📰 <b>Daily market report %s</b>\n", escape(report.Date)))

	writeMovers(&sb, "🟢 Top gainers", report.TopGainers)
	writeMovers(&sb, "🔴 Top losers", report.TopLosers)

	if report.Narrative != nil && report.Narrative.ExecutiveSummary != "" {
		sb.WriteString("\n<b>🤖 Summary</b>\n")
		sb.WriteString(escape(report.Narrative.ExecutiveSummary))
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeMovers(sb *strings.Builder, title string, movers []dto.Mover) {
	sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
	if len(movers) == 0 {
		sb.WriteString("none\n")
		return
	}
	for _, m := range movers {
		sb.WriteString(fmt.Sprintf("• %s %.2f (%s)\n", escape(m.Ticker), m.Close, utils.FormatPercentage(m.ChangePercent)))
	}
}

func formatJobs(jobs []model.Job) string {
	if len(jobs) == 0 {
		return "No jobs are configured."
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Jobs</b>\n")
	for _, job := range jobs {
		sb.WriteString(fmt.Sprintf("\n<b>#%d %s</b> <code>%s</code>\n", job.ID, escape(job.Name), escape(string(job.Type))))
		for _, schedule := range job.Schedules {
			state := "active"
			if !schedule.IsActive {
				state = "paused"
			}
			next := "pending"
			if schedule.NextExecution.Valid {
				next = schedule.NextExecution.Time.UTC().Format("01/02 15:04")
			}
			sb.WriteString(fmt.Sprintf(" • %s (%s), next %s\n", escape(schedule.CronExpression), state, next))
		}
		for _, history := range job.Histories {
			sb.WriteString(fmt.Sprintf(" %s %s %s\n", statusIcon(history.Status), history.StartedAt.UTC().Format("01/02 15:04"), historyDetail(history)))
		}
	}
	sb.WriteString("\nRun one now with /runjob JOB_ID")
	return sb.String()
}

func historyDetail(history model.TaskExecutionHistory) string {
	status := strings.ToUpper(string(history.Status))
	if !history.CompletedAt.Valid {
		return status
	}
	duration := history.CompletedAt.Time.Sub(history.StartedAt).Round(100 * time.Millisecond)
	return fmt.Sprintf("%s exit %d (%s)", status, history.ExitCode.Int32, duration)
}

func statusIcon(status model.TaskExecutionStatus) string {
	switch status {
	case model.StatusRunning:
		return "🟡"
	case model.StatusCompleted:
		return "🟢"
	case model.StatusTimeout:
		return "🟠"
	}
	return "🔴"
}

func formatJobRun(resp *dto.JobRunResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b> finished: %s (exit %d)\n",
		statusIcon(model.TaskExecutionStatus(resp.Status)), escape(resp.JobName), strings.ToUpper(resp.Status), resp.ExitCode))
	if resp.Output != "" {
		sb.WriteString(fmt.Sprintf("<pre>%s</pre>\n", escape(utils.TruncateString(resp.Output, 1500))))
	}
	if resp.Error != "" {
		sb.WriteString(fmt.Sprintf("Error: %s\n", escape(resp.Error)))
	}
	return sb.String()
}
