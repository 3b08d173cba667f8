package strategy

import (
	"context"
	"fmt"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
)

// CacheCleanUpStrategy deletes analysis cache rows whose TTL has elapsed.
type CacheCleanUpStrategy struct {
	log               *logger.Logger
	analysisCacheRepo repository.AnalysisCacheRepository
}

func NewCacheCleanUpStrategy(log *logger.Logger, analysisCacheRepo repository.AnalysisCacheRepository) JobExecutionStrategy {
	return &CacheCleanUpStrategy{log: log, analysisCacheRepo: analysisCacheRepo}
}

func (s *CacheCleanUpStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	deleted, err := s.analysisCacheRepo.DeleteExpired(ctx, utils.TimeNow())
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete expired analysis cache", logger.ErrorField(err), logger.UintField("job_id", job.ID))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: err.Error()}, fmt.Errorf("failed to delete expired analysis cache: %w", err)
	}

	s.log.InfoContext(ctx, "Expired analysis cache removed", logger.IntField("deleted", int(deleted)))
	if deleted == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no expired entries"}, nil
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: fmt.Sprintf("deleted %d expired entries", deleted)}, nil
}

func (s *CacheCleanUpStrategy) GetType() model.JobType {
	return model.JobTypeCleanupExpiredCache
}
