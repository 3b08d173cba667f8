package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

const (
	commandTimeout   = 2 * time.Minute
	secretHeader     = "X-Telegram-Bot-Api-Secret-Token"
	jobHistoryLimit  = 3
	maxQuestionRunes = 2000
)

const commonErrorInternal = "Something went wrong on our side, please try again later."

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(t.ctx, commandTimeout)
		defer cancel()

		return handler(ctx, c)
	}
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.echo.POST("/api/v2/telegram/webhook", t.webhook)

	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/help", t.WithContext(t.handleStart))
	t.bot.Handle("/price", t.WithContext(t.handlePrice))
	t.bot.Handle("/analyze", t.WithContext(t.handleAnalyze))
	t.bot.Handle("/report", t.WithContext(t.handleReport))
	t.bot.Handle("/jobs", t.WithContext(t.handleJobs))
	t.bot.Handle("/runjob", t.WithContext(t.handleRunJob))
	t.bot.Handle(telebot.OnText, t.WithContext(t.handleText))
}

func (t *TelegramBotHandler) webhook(c echo.Context) error {
	if secret := t.cfg.Telegram.WebhookSecret; secret != "" {
		got := c.Request().Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "invalid webhook secret"))
		}
	}

	var update telebot.Update
	if err := c.Bind(&update); err != nil {
		t.log.ErrorContext(c.Request().Context(), "Cannot bind telegram update", logger.ErrorField(err))
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	t.bot.ProcessUpdate(update)
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}

func (t *TelegramBotHandler) reply(ctx context.Context, c telebot.Context, message string) error {
	if err := t.telegram.SendMessageUser(ctx, message, c.Chat().ID); err != nil {
		t.log.ErrorContext(ctx, "Failed to send telegram reply", logger.ErrorField(err), logger.Field("chat_id", c.Chat().ID))
		return err
	}
	return nil
}

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	return t.reply(ctx, c, startMessage(c.Chat().ID))
}

func (t *TelegramBotHandler) handleText(ctx context.Context, c telebot.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		return t.reply(ctx, c, "Unknown command. Send /help to see what I can do.")
	}
	return nil
}

func (t *TelegramBotHandler) handlePrice(ctx context.Context, c telebot.Context) error {
	return t.reply(ctx, c, t.priceMessage(ctx, c.Args()))
}

func (t *TelegramBotHandler) handleAnalyze(ctx context.Context, c telebot.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return t.reply(ctx, c, "Usage: /analyze TICKER your question\nExample: /analyze AAPL how did earnings move the price?")
	}
	if err := t.reply(ctx, c, "⏳ Analyzing, this can take a few seconds..."); err != nil {
		return err
	}
	return t.reply(ctx, c, t.analyzeMessage(ctx, args))
}

func (t *TelegramBotHandler) handleReport(ctx context.Context, c telebot.Context) error {
	return t.reply(ctx, c, t.reportMessage(ctx, c.Args()))
}

func (t *TelegramBotHandler) handleJobs(ctx context.Context, c telebot.Context) error {
	if !t.isOperator(c.Chat().ID) {
		return t.reply(ctx, c, "This command is only available in the operator chat.")
	}
	return t.reply(ctx, c, t.jobsMessage(ctx))
}

func (t *TelegramBotHandler) handleRunJob(ctx context.Context, c telebot.Context) error {
	if !t.isOperator(c.Chat().ID) {
		return t.reply(ctx, c, "This command is only available in the operator chat.")
	}
	return t.reply(ctx, c, t.runJobMessage(ctx, c.Args()))
}

func (t *TelegramBotHandler) isOperator(chatID int64) bool {
	return t.cfg.Telegram.ChatID != 0 && chatID == t.cfg.Telegram.ChatID
}

func (t *TelegramBotHandler) priceMessage(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /price TICKER [period]\nExample: /price NVDA 5d"
	}
	period := ""
	if len(args) > 1 {
		period = args[1]
	}

	data, err := t.service.MarketDataService.GetMarketData(ctx, args[0], period)
	if err != nil {
		return t.errorMessage(ctx, err)
	}
	return formatMarketData(data)
}

func (t *TelegramBotHandler) analyzeMessage(ctx context.Context, args []string) string {
	question := utils.TruncateString(strings.Join(args[1:], " "), maxQuestionRunes)
	resp, err := t.service.AnalysisService.Analyze(ctx, dto.AnalyzeRequest{
		Query:   question,
		Company: args[0],
	}, nil)
	if err != nil {
		return t.errorMessage(ctx, err)
	}
	return formatAnalysis(dto.NormalizeTicker(args[0]), resp)
}

func (t *TelegramBotHandler) reportMessage(ctx context.Context, args []string) string {
	date := ""
	if len(args) > 0 {
		date = args[0]
	}
	report, err := t.service.ReportService.GetDailyReport(ctx, date)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "No daily report has been generated for that date yet."
		}
		return t.errorMessage(ctx, err)
	}
	return formatDailyReport(report)
}

func (t *TelegramBotHandler) jobsMessage(ctx context.Context) string {
	jobs, err := t.service.SchedulerService.GetJobSchedule(ctx, model.GetJobParam{
		WithTaskHistory: &model.GetTaskExecutionHistoryParam{Limit: utils.ToPointer(jobHistoryLimit)},
	})
	if err != nil {
		return t.errorMessage(ctx, err)
	}
	return formatJobs(jobs)
}

func (t *TelegramBotHandler) runJobMessage(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /runjob JOB_ID"
	}
	jobID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || jobID == 0 {
		return "Job id must be a positive number."
	}

	resp, err := t.service.SchedulerService.RunJobTask(ctx, uint(jobID))
	if err != nil {
		return t.errorMessage(ctx, err)
	}
	return formatJobRun(resp)
}

// errorMessage turns a service error into something safe to show in chat.
func (t *TelegramBotHandler) errorMessage(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrNotFound):
		return "⚠️ " + escape(err.Error())
	case errors.Is(err, common.ErrUpstreamTimeout), errors.Is(err, common.ErrUpstream):
		return "⚠️ The data provider is not responding right now, please try again shortly."
	}
	t.log.ErrorContext(ctx, "Telegram command failed", logger.ErrorField(err))
	return fmt.Sprintf("❌ %s", commonErrorInternal)
}
