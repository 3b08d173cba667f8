package service

import (
	"context"
	"market-insight/config"
	"market-insight/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronManager ticks the scheduler in-process so due jobs run without an
// external trigger.
type CronManager struct {
	cfg       *config.Config
	log       *logger.Logger
	cron      *cron.Cron
	scheduler SchedulerService
}

func NewCronManager(cfg *config.Config, log *logger.Logger, scheduler SchedulerService) *CronManager {
	return &CronManager{
		cfg:       cfg,
		log:       log,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		scheduler: scheduler,
	}
}

// Start registers the tick and starts the cron runner. Ticks stop when ctx is done.
func (m *CronManager) Start(ctx context.Context) error {
	if !m.cfg.Scheduler.Enabled {
		m.log.Info("Scheduler disabled")
		return nil
	}

	_, err := m.cron.AddFunc(m.cfg.Scheduler.Tick, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.scheduler.Execute(ctx); err != nil {
			m.log.ErrorContext(ctx, "Scheduler tick failed", logger.ErrorField(err))
		}
	})
	if err != nil {
		return err
	}

	m.cron.Start()
	m.log.Info("Scheduler started", logger.StringField("tick", m.cfg.Scheduler.Tick))
	return nil
}

// Stop halts new ticks and waits for running jobs to finish.
func (m *CronManager) Stop() {
	<-m.cron.Stop().Done()
	m.scheduler.Wait()
	m.log.Info("Scheduler stopped")
}
