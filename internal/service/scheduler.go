package service

import (
	"context"
	"database/sql"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

const defaultJobTimeout = 5 * time.Minute

type SchedulerService interface {
	// Execute starts every due schedule in the background and returns how many were started.
	Execute(ctx context.Context) (int, error)
	GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error)
	// RunJobTask runs a job immediately and waits for its result.
	RunJobTask(ctx context.Context, jobID uint) (*dto.JobRunResponse, error)
	// Wait blocks until background runs finish.
	Wait()
}

type schedulerService struct {
	cfg          *config.Config
	log          *logger.Logger
	cronParser   cron.Parser
	jobRepo      repository.JobRepository
	taskExecutor TaskExecutor
	sem          *semaphore.Weighted
	running      sync.WaitGroup
	now          func() time.Time
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.JobRepository,
	taskExecutor TaskExecutor,
) SchedulerService {
	return &schedulerService{
		cfg:          cfg,
		log:          log,
		jobRepo:      jobRepo,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		taskExecutor: taskExecutor,
		sem:          semaphore.NewWeighted(int64(cfg.Scheduler.MaxConcurrency)),
		now:          utils.TimeNow,
	}
}

func (s *schedulerService) Execute(ctx context.Context) (int, error) {
	now := s.now()
	schedules, err := s.jobRepo.FindJobsToSchedule(ctx, now)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find jobs to schedule", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to find jobs to schedule: %w", err)
	}

	if len(schedules) == 0 {
		s.log.DebugContext(ctx, "No jobs to schedule")
		return 0, nil
	}
	s.log.InfoContext(ctx, "Start running jobs",
		logger.IntField("job_count", len(schedules)),
		logger.IntField("max_concurrency", s.cfg.Scheduler.MaxConcurrency),
	)

	started := 0
	for i := range schedules {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		task := schedules[i]
		if err := s.startScheduled(ctx, &task, now); err != nil {
			s.log.ErrorContextWithAlert(ctx, "Failed to start job",
				logger.ErrorField(err),
				logger.UintField("job_id", task.JobID),
				logger.UintField("schedule_id", task.ID),
				logger.StringField("job_name", task.Job.Name),
				logger.StringField("job_type", string(task.Job.Type)),
			)
			continue
		}
		started++
	}

	return started, nil
}

// startScheduled waits for a concurrency slot, then advances the schedule, records a
// running history and hands the run to a background goroutine. Nothing is written
// when no slot can be acquired, so the schedule stays due for the next tick.
func (s *schedulerService) startScheduled(ctx context.Context, task *model.TaskSchedule, now time.Time) error {
	cronSchedule, err := s.cronParser.Parse(task.CronExpression)
	if err != nil {
		return fmt.Errorf("failed to parse cron expression %q: %w", task.CronExpression, err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire job slot: %w", err)
	}
	started := false
	defer func() {
		if !started {
			s.sem.Release(1)
		}
	}()

	task.LastExecution = sql.NullTime{Time: now, Valid: true}
	task.NextExecution = sql.NullTime{Time: cronSchedule.Next(now), Valid: true}
	if err := s.jobRepo.UpdateTaskSchedule(ctx, task); err != nil {
		return fmt.Errorf("failed to update task schedule: %w", err)
	}

	scheduleID := task.ID
	history := &model.TaskExecutionHistory{
		JobID:      task.JobID,
		ScheduleID: &scheduleID,
		Trigger:    model.TriggerSchedule,
		Status:     model.StatusRunning,
		StartedAt:  now,
	}
	if err := s.jobRepo.CreateTaskExecutionHistory(ctx, history); err != nil {
		return fmt.Errorf("failed to create task history: %w", err)
	}

	job := task.Job
	started = true
	s.running.Add(1)
	utils.GoSafe(func() {
		defer s.running.Done()
		defer s.sem.Release(1)

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout(&job))
		defer cancel()

		if _, err := s.taskExecutor.Execute(runCtx, &job, history); err != nil {
			s.log.ErrorContextWithAlert(runCtx, "Failed to execute task",
				logger.ErrorField(err),
				logger.UintField("schedule_id", task.ID),
				logger.StringField("job_name", job.Name))
		}
	})

	s.log.DebugContext(ctx, "Job started",
		logger.UintField("job_id", task.JobID),
		logger.UintField("schedule_id", task.ID),
		logger.StringField("job_name", job.Name),
		logger.StringField("next_execution", task.NextExecution.Time.Format(time.RFC3339)),
	)
	return nil
}

func (s *schedulerService) GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error) {
	jobs, err := s.jobRepo.Get(ctx, &param)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get jobs", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return jobs, nil
}

func (s *schedulerService) RunJobTask(ctx context.Context, jobID uint) (*dto.JobRunResponse, error) {
	s.log.InfoContext(ctx, "Running job task", logger.UintField("job_id", jobID))
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find job", logger.ErrorField(err), logger.UintField("job_id", jobID))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %d", common.ErrNotFound, jobID)
	}

	// The history row is only written once a slot is held, so an abandoned wait leaves nothing running.
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: no job slot available: %v", common.ErrUnavailable, err)
	}
	defer s.sem.Release(1)

	history := &model.TaskExecutionHistory{
		JobID:     job.ID,
		Trigger:   model.TriggerManual,
		Status:    model.StatusRunning,
		StartedAt: s.now(),
	}
	if err := s.jobRepo.CreateTaskExecutionHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("%w: failed to create task history: %v", common.ErrUnavailable, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, jobTimeout(job))
	defer cancel()

	result, execErr := s.taskExecutor.Execute(runCtx, job, history)
	resp := &dto.JobRunResponse{
		JobID:    job.ID,
		JobName:  job.Name,
		Status:   string(history.Status),
		ExitCode: int(result.ExitCode),
		Output:   result.Output,
	}
	if execErr != nil {
		resp.Error = execErr.Error()
	}
	return resp, nil
}

func (s *schedulerService) Wait() {
	s.running.Wait()
}

func jobTimeout(job *model.Job) time.Duration {
	if job.Timeout <= 0 {
		return defaultJobTimeout
	}
	return time.Duration(job.Timeout) * time.Second
}
