package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/logger"
	"market-insight/pkg/telegram"
	"market-insight/pkg/utils"
	"time"

	"github.com/shopspring/decimal"
)

type PriceAlertResult struct {
	AlertID uint   `json:"alert_id"`
	Ticker  string `json:"ticker"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Notify  string `json:"notify"`
}

// PriceAlertStrategy evaluates every pending alert against the newest stored bar.
type PriceAlertStrategy struct {
	log            *logger.Logger
	alertRepo      repository.AlertRepository
	marketDataRepo repository.MarketDataRepository
	notifier       Notifier
}

func NewPriceAlertStrategy(
	log *logger.Logger,
	alertRepo repository.AlertRepository,
	marketDataRepo repository.MarketDataRepository,
	notifier Notifier,
) JobExecutionStrategy {
	return &PriceAlertStrategy{
		log:            log,
		alertRepo:      alertRepo,
		marketDataRepo: marketDataRepo,
		notifier:       notifier,
	}
}

func (s *PriceAlertStrategy) GetType() model.JobType {
	return model.JobTypeCheckPriceAlerts
}

func (s *PriceAlertStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	s.log.DebugContext(ctx, "Executing price alert job", logger.UintField("job_id", job.ID))

	alerts, err := s.alertRepo.FindPending(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load pending alerts", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to load pending alerts: %w", err)
	}
	if len(alerts) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no pending alerts"}, nil
	}

	companyIDs := make([]uint, 0, len(alerts))
	seen := make(map[uint]bool, len(alerts))
	for _, a := range alerts {
		if !seen[a.CompanyID] {
			seen[a.CompanyID] = true
			companyIDs = append(companyIDs, a.CompanyID)
		}
	}

	latest, err := s.marketDataRepo.GetLatestPoints(ctx, companyIDs)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load latest prices", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to load latest prices: %w", err)
	}

	var (
		results []PriceAlertResult
		failed  int
	)
	now := utils.TimeNow()
	for _, alert := range alerts {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		point, ok := latest[alert.CompanyID]
		if !ok {
			continue
		}

		fired, value := alert.Evaluate(decimal.NewFromFloat(point.ClosePrice), point.Volume)
		if !fired {
			continue
		}

		marked, err := s.alertRepo.MarkTriggered(ctx, alert.ID, now, value)
		if err != nil {
			failed++
			s.log.ErrorContext(ctx, "Failed to mark alert triggered", logger.ErrorField(err), logger.UintField("alert_id", alert.ID))
			continue
		}
		if !marked {
			continue
		}

		result := PriceAlertResult{
			AlertID: alert.ID,
			Ticker:  alert.Company.Ticker,
			Type:    string(alert.AlertType),
			Value:   value.String(),
			Notify:  s.notify(ctx, alert, value, now),
		}
		results = append(results, result)
	}

	output, _ := json.Marshal(results)
	if failed > 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(output)}, nil
	}
	if len(results) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no alert triggered"}, nil
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(output)}, nil
}

func (s *PriceAlertStrategy) notify(ctx context.Context, alert model.Alert, value decimal.Decimal, now time.Time) string {
	if s.notifier == nil || !s.notifier.Enabled() {
		return "disabled"
	}
	if alert.User.TelegramID == nil {
		return "no_chat"
	}

	current, _ := value.Float64()
	target, _ := alert.ConditionValue.Float64()
	msg := telegram.FormatPriceAlert(telegram.AlertType(alert.AlertType), alert.Company.Ticker, alert.Company.Name, current, target, now)
	if err := s.notifier.SendMessageUser(ctx, msg, *alert.User.TelegramID); err != nil {
		s.log.WarnContext(ctx, "Failed to send alert notification", logger.ErrorField(err), logger.UintField("alert_id", alert.ID))
		return "failed"
	}
	return "sent"
}
