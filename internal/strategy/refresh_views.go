package strategy

import (
	"context"
	"fmt"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/logger"
)

type RefreshViewsStrategy struct {
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
}

func NewRefreshViewsStrategy(log *logger.Logger, marketDataRepo repository.MarketDataRepository) JobExecutionStrategy {
	return &RefreshViewsStrategy{log: log, marketDataRepo: marketDataRepo}
}

func (s *RefreshViewsStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	if err := s.marketDataRepo.RefreshMaterializedViews(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to refresh materialized views", logger.ErrorField(err), logger.UintField("job_id", job.ID))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to refresh materialized views: %w", err)
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: "materialized views refreshed"}, nil
}

func (s *RefreshViewsStrategy) GetType() model.JobType {
	return model.JobTypeRefreshViews
}
