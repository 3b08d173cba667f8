package cmd

import (
	"context"
	"errors"
	"log"
	"market-insight/internal/delivery/http"
	"market-insight/internal/delivery/telegram"
	"market-insight/internal/repository"
	"market-insight/internal/service"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the market insight API and job scheduler",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo, err := repository.NewRepository(appDep.cfg, appDep.db.DB, appDep.cache, appDep.marketCache, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services := service.NewService(
		appDep.cfg,
		appDep.log,
		repo,
		appDep.db,
		appDep.tokens,
		appDep.telegram,
	)
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.cfg, appDep.log, appDep.echo, appDep.validator, services, appDep.tokens)

	telegramHandler := telegram.NewTelegramBotHandler(
		ctx,
		appDep.cfg,
		appDep.log,
		appDep.telegramBot,
		appDep.telegram,
		appDep.echo,
		services,
	)
	telegramHandler.Start()

	cronManager := service.NewCronManager(appDep.cfg, appDep.log, services.SchedulerService)
	if err := cronManager.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	if appDep.telegram.Enabled() {
		appDep.telegram.StartCleanupExpired(ctx)
	}

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			appDep.log.Error("HTTP server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	appDep.log.Info("Shutting down gracefully...")

	telegramHandler.Stop()

	if err := apiServer.Stop(); err != nil {
		appDep.log.Error("Failed to stop HTTP server", zap.Error(err))
	}

	// Waits for running jobs so their history rows are closed.
	cronManager.Stop()

	if appDep.telegram.Enabled() {
		appDep.telegram.StopCleanupExpired()
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
	_ = appDep.log.Sync()
}
