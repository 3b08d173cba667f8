package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"market-insight/config"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
)

type DataCleanUpPayload struct {
	RetentionDays int `json:"retention_days"`
}

type DataCleanUpResult struct {
	Table string `json:"table"`
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

// DataCleanUpStrategy prunes audit rows past the retention window.
type DataCleanUpStrategy struct {
	cfg       *config.Config
	log       *logger.Logger
	UsageRepo repository.UsageRepository
	JobRepo   repository.JobRepository
}

func NewDataCleanUpStrategy(cfg *config.Config, log *logger.Logger, usageRepo repository.UsageRepository, jobRepo repository.JobRepository) JobExecutionStrategy {
	return &DataCleanUpStrategy{
		cfg:       cfg,
		log:       log,
		UsageRepo: usageRepo,
		JobRepo:   jobRepo,
	}
}

func (s *DataCleanUpStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	s.log.InfoContext(ctx, "Starting data clean up")

	var payload DataCleanUpPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.UintField("job_id", job.ID))
			return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
		}
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = s.cfg.Analysis.LogRetentionDays
	}

	date := utils.TimeNow().AddDate(0, 0, -payload.RetentionDays)
	outputMsg := []DataCleanUpResult{}
	failed := 0

	queryLogs, apiUsage, err := s.UsageRepo.DeleteOlderThan(ctx, date)
	if err != nil {
		failed++
		s.log.ErrorContext(ctx, "Failed to delete usage logs", logger.ErrorField(err), logger.UintField("job_id", job.ID))
		outputMsg = append(outputMsg, DataCleanUpResult{
			Table: "user_query_logs,api_usage",
			Error: fmt.Sprintf("failed to delete usage logs older than %v: %v", date, err),
		})
	} else {
		outputMsg = append(outputMsg,
			DataCleanUpResult{Table: "user_query_logs", Total: queryLogs},
			DataCleanUpResult{Table: "api_usage", Total: apiUsage},
		)
	}

	totalDeletedTask, err := s.JobRepo.DeleteTaskHistoryOlderThan(ctx, date)
	if err != nil {
		failed++
		s.log.ErrorContext(ctx, "Failed to delete job history", logger.ErrorField(err), logger.UintField("job_id", job.ID))
		outputMsg = append(outputMsg, DataCleanUpResult{
			Table: "task_execution_history",
			Error: fmt.Sprintf("failed to delete job history older than %v: %v", date, err),
		})
	} else {
		outputMsg = append(outputMsg, DataCleanUpResult{Table: "task_execution_history", Total: totalDeletedTask})
	}

	res, err := json.Marshal(outputMsg)
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}

	switch failed {
	case 0:
		return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
	case 2:
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: string(res)}, fmt.Errorf("data clean up failed")
	default:
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(res)}, nil
	}
}

func (s *DataCleanUpStrategy) GetType() model.JobType {
	return model.JobTypeDataCleanUp
}
