package telegram

import (
	"context"
	"market-insight/config"
	"market-insight/internal/service"
	"market-insight/pkg/logger"
	"market-insight/pkg/telegram"
	"time"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

const stopTimeout = 10 * time.Second

// TelegramBotHandler answers bot commands delivered through the webhook.
type TelegramBotHandler struct {
	ctx      context.Context
	cfg      *config.Config
	bot      *telebot.Bot
	log      *logger.Logger
	telegram *telegram.TelegramRateLimiter
	echo     *echo.Echo
	service  *service.Service
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	telegram *telegram.TelegramRateLimiter,
	echo *echo.Echo,
	service *service.Service,
) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:      ctx,
		cfg:      cfg,
		log:      log,
		bot:      bot,
		telegram: telegram,
		echo:     echo,
		service:  service,
	}
}

// Start registers the webhook with Telegram and the command handlers. It is a
// no-op when no bot token or webhook url is configured.
func (t *TelegramBotHandler) Start() {
	if t.bot == nil {
		t.log.Info("Telegram bot is disabled")
		return
	}
	if t.cfg.Telegram.WebhookURL == "" {
		t.log.Info("Telegram webhook is disabled")
		return
	}

	t.log.Info("Setting webhook URL", logger.StringField("webhook_url", t.cfg.Telegram.WebhookURL))
	err := t.bot.SetWebhook(&telebot.Webhook{
		SecretToken: t.cfg.Telegram.WebhookSecret,
		Endpoint: &telebot.WebhookEndpoint{
			PublicURL: t.cfg.Telegram.WebhookURL,
		},
	})
	if err != nil {
		t.log.Error("Failed to set telegram webhook", logger.ErrorField(err))
		return
	}

	t.RegisterHandlers()
}

func (t *TelegramBotHandler) Stop() {
	if t.bot == nil || t.cfg.Telegram.WebhookURL == "" {
		return
	}
	t.log.Info("Stopping Telegram bot...")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), stopTimeout)
	defer cancel()

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- t.bot.RemoveWebhook()
	}()

	select {
	case err := <-stopDone:
		if err != nil {
			t.log.Warn("Failed to remove telegram webhook", logger.ErrorField(err))
			return
		}
		t.log.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.log.Warn("Timeout while stopping bot, forcing shutdown")
	}
}
