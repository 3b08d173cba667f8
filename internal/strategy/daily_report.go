package strategy

import (
	"context"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"strings"
	"time"
)

const dailyReportSystemPrompt = `You are a senior market analyst writing a short end-of-day note.
Respond with a JSON object with the keys executive_summary (string), key_insights (array),
recommendations (array), risk_factors (array) and confidence_level (0-100).`

// DailyReportStrategy summarizes the day's movers and stores the report in the market cache.
type DailyReportStrategy struct {
	cfg            *config.Config
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
	llmRepo        repository.LLMRepository
	marketCache    repository.MarketCacheRepository
	usageRepo      repository.UsageRepository
}

func NewDailyReportStrategy(
	cfg *config.Config,
	log *logger.Logger,
	marketDataRepo repository.MarketDataRepository,
	llmRepo repository.LLMRepository,
	marketCache repository.MarketCacheRepository,
	usageRepo repository.UsageRepository,
) JobExecutionStrategy {
	return &DailyReportStrategy{
		cfg:            cfg,
		log:            log,
		marketDataRepo: marketDataRepo,
		llmRepo:        llmRepo,
		marketCache:    marketCache,
		usageRepo:      usageRepo,
	}
}

func (s *DailyReportStrategy) GetType() model.JobType {
	return model.JobTypeGenerateDailyReport
}

func (s *DailyReportStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	now := utils.TimeNow()
	gainers, losers, err := s.marketDataRepo.GetMovers(ctx, max(s.cfg.Analysis.ReportTopMoverLimit, 1))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load movers", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to load movers: %w", err)
	}
	if len(gainers) == 0 && len(losers) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no price changes available"}, nil
	}

	report := dto.DailyReport{
		Date:        utils.DateKey(now),
		TopGainers:  toMovers(gainers),
		TopLosers:   toMovers(losers),
		GeneratedAt: now,
	}

	exitCode := int32(JOB_EXIT_CODE_SUCCESS)
	narrative, err := s.narrate(ctx, report)
	if err != nil {
		exitCode = JOB_EXIT_CODE_PARTIAL_SUCCESS
		s.log.WarnContext(ctx, "Daily report stored without narrative", logger.ErrorField(err))
	} else {
		report.Narrative = narrative
	}

	key := fmt.Sprintf(common.KEY_DAILY_REPORT, report.Date)
	if err := s.marketCache.Set(ctx, key, report, s.cfg.Cache.DailyReportTTL); err != nil {
		s.log.ErrorContext(ctx, "Failed to store daily report", logger.ErrorField(err), logger.StringField("key", key))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to store daily report: %w", err)
	}

	return JobResult{ExitCode: exitCode, Output: fmt.Sprintf("stored %s with %d gainers and %d losers", key, len(report.TopGainers), len(report.TopLosers))}, nil
}

func (s *DailyReportStrategy) narrate(ctx context.Context, report dto.DailyReport) (*dto.LLMAnalysis, error) {
	if !s.llmRepo.Configured() {
		return nil, fmt.Errorf("%w: no llm configured", common.ErrUnavailable)
	}

	started := time.Now()
	result, err := s.llmRepo.Generate(ctx, dto.LLMRequest{
		SystemPrompt: dailyReportSystemPrompt,
		UserPrompt:   BuildDailyReportPrompt(report),
		Operation:    string(model.JobTypeGenerateDailyReport),
	})
	tokens := 0
	if result != nil {
		tokens = result.Tokens
	}
	if usageErr := s.usageRepo.RecordProviderCall(ctx, s.llmRepo.Provider(), string(model.JobTypeGenerateDailyReport), time.Since(started), tokens, err); usageErr != nil {
		s.log.WarnContext(ctx, "Failed to record provider usage", logger.ErrorField(usageErr))
	}
	if err != nil {
		return nil, err
	}

	analysis, err := dto.ParseLLMAnalysis(result.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}
	return &analysis, nil
}

// BuildDailyReportPrompt renders the movers table the model comments on.
func BuildDailyReportPrompt(report dto.DailyReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Market session of %s.\n\n", report.Date))
	writeMovers(&sb, "Top gainers", report.TopGainers)
	writeMovers(&sb, "Top losers", report.TopLosers)
	sb.WriteString("\nSummarize the session, explain what stands out and list the risks to watch tomorrow.\n")
	return sb.String()
}

func writeMovers(sb *strings.Builder, title string, movers []dto.Mover) {
	sb.WriteString(title + ":\n")
	if len(movers) == 0 {
		sb.WriteString("- none\n")
		return
	}
	for _, m := range movers {
		sb.WriteString(fmt.Sprintf("- %s (%s): close $%.2f, %s, volume %d\n",
			m.Ticker, m.Name, m.Close, utils.FormatPercentage(m.ChangePercent), m.Volume))
	}
}

func toMovers(rows []model.CompanyLatestPrice) []dto.Mover {
	movers := make([]dto.Mover, 0, len(rows))
	for _, row := range rows {
		change := 0.0
		if row.ChangePercent != nil {
			change = *row.ChangePercent
		}
		movers = append(movers, dto.Mover{
			Ticker:        row.Ticker,
			Name:          row.Name,
			Close:         row.ClosePrice,
			ChangePercent: change,
			Volume:        row.Volume,
		})
	}
	return movers
}
