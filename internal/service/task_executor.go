package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"market-insight/config"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/internal/strategy"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"time"
)

const historyUpdateTimeout = 10 * time.Second

type TaskExecutor interface {
	// Execute runs job through its strategy and records the outcome on taskHistory.
	Execute(ctx context.Context, job *model.Job, taskHistory *model.TaskExecutionHistory) (strategy.JobResult, error)
}

type taskExecutor struct {
	cfg                *config.Config
	log                *logger.Logger
	jobRepo            repository.JobRepository
	executorStrategies map[model.JobType]strategy.JobExecutionStrategy
}

func NewTaskExecutor(cfg *config.Config, log *logger.Logger, jobRepo repository.JobRepository, strategies ...strategy.JobExecutionStrategy) TaskExecutor {
	executorStrategies := make(map[model.JobType]strategy.JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		executorStrategies[s.GetType()] = s
	}
	return &taskExecutor{
		jobRepo:            jobRepo,
		cfg:                cfg,
		log:                log,
		executorStrategies: executorStrategies,
	}
}

func (t *taskExecutor) Execute(ctx context.Context, job *model.Job, taskHistory *model.TaskExecutionHistory) (strategy.JobResult, error) {
	t.log.InfoContext(ctx, "Processing job",
		logger.UintField("job_id", job.ID),
		logger.UintField("history_id", taskHistory.ID),
		logger.StringField("job_type", string(job.Type)),
		logger.StringField("trigger", taskHistory.Trigger),
	)

	var (
		result  strategy.JobResult
		execErr error
	)
	executor := t.executorStrategies[job.Type]
	if executor == nil {
		execErr = fmt.Errorf("no strategy registered for job type %q", job.Type)
		result = strategy.JobResult{ExitCode: strategy.JOB_EXIT_CODE_FAILED}
	} else {
		result, execErr = executor.Execute(ctx, job)
	}

	switch {
	case execErr == nil:
		taskHistory.Status = model.StatusCompleted
	case errors.Is(execErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		taskHistory.Status = model.StatusTimeout
	default:
		taskHistory.Status = model.StatusFailed
	}
	if execErr != nil {
		t.log.ErrorContext(ctx, "Failed to execute job", logger.ErrorField(execErr), logger.UintField("job_id", job.ID))
		taskHistory.ErrorMessage = sql.NullString{String: execErr.Error(), Valid: true}
	}
	taskHistory.ExitCode = sql.NullInt32{Int32: result.ExitCode, Valid: true}
	taskHistory.Output = sql.NullString{String: result.Output, Valid: result.Output != ""}
	taskHistory.CompletedAt = sql.NullTime{Time: utils.TimeNow(), Valid: true}

	// The run context may already be expired; the history row must still be closed.
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyUpdateTimeout)
	defer cancel()
	if err := t.jobRepo.UpdateTaskExecutionHistory(updateCtx, taskHistory); err != nil {
		t.log.ErrorContext(ctx, "Failed to update task execution history", logger.ErrorField(err), logger.UintField("job_id", job.ID))
		return result, fmt.Errorf("failed to update task execution history: %w", err)
	}

	return result, execErr
}
