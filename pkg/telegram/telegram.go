package telegram

import (
	"context"
	"fmt"
	"market-insight/config"
	"market-insight/pkg/logger"
	"market-insight/pkg/utils"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Sender is the subset of *telebot.Bot the notifier relies on.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type userLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// TelegramRateLimiter sends messages through the bot while honouring a global
// limit and a per-chat limit.
type TelegramRateLimiter struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	globalLimiter *rate.Limiter
	userLimiters  map[int64]*userLimiterEntry
	bot           Sender
	mu            sync.Mutex
	wg            sync.WaitGroup
}

// NewBot builds a bot without a poller; updates arrive through the webhook
// handler and outgoing messages go through TelegramRateLimiter.
func NewBot(cfg *config.TelegramConfig) (*telebot.Bot, error) {
	if cfg.BotToken == "" {
		return nil, nil
	}
	return telebot.NewBot(telebot.Settings{
		Token:   cfg.BotToken,
		Offline: true,
		Client:  newHTTPClient(cfg.TimeoutDuration),
	})
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logger.Logger, bot Sender) *TelegramRateLimiter {
	globalPerSecond := cfg.MaxGlobalRequestPerSecond
	if globalPerSecond <= 0 {
		globalPerSecond = 30
	}
	return &TelegramRateLimiter{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		globalLimiter: rate.NewLimiter(rate.Limit(globalPerSecond), globalPerSecond),
		userLimiters:  make(map[int64]*userLimiterEntry),
	}
}

// Enabled reports whether a bot token was configured.
func (t *TelegramRateLimiter) Enabled() bool {
	return t != nil && t.bot != nil
}

// SendMessageUser delivers an HTML message to a user chat.
func (t *TelegramRateLimiter) SendMessageUser(ctx context.Context, message string, chatID int64) error {
	if !t.Enabled() {
		return fmt.Errorf("telegram bot is not configured")
	}
	if err := t.checkRateLimit(ctx, chatID); err != nil {
		return err
	}
	if _, err := t.bot.Send(&telebot.User{ID: chatID}, message, telebot.ModeHTML); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// SendAlert implements logger.AlertSender for the operator chat.
func (t *TelegramRateLimiter) SendAlert(message string) error {
	if !t.Enabled() || t.cfg.ChatID == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.TimeoutDuration)
	defer cancel()
	if err := t.checkRateLimit(ctx, t.cfg.ChatID); err != nil {
		return err
	}
	_, err := t.bot.Send(&telebot.Chat{ID: t.cfg.ChatID}, message)
	return err
}

func (t *TelegramRateLimiter) getUserLimiter(chatID int64) *userLimiterEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limiter, exists := t.userLimiters[chatID]; exists {
		limiter.lastAccess = time.Now()
		return limiter
	}

	perSecond := t.cfg.MaxUserRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), perSecond)
	t.userLimiters[chatID] = &userLimiterEntry{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return t.userLimiters[chatID]
}

func (t *TelegramRateLimiter) checkRateLimit(ctx context.Context, chatID int64) error {
	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return err
	}
	if err := t.getUserLimiter(chatID).limiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for user rate limit", logger.ErrorField(err))
		return err
	}
	return nil
}

// StartCleanupExpired drops per-chat limiters idle for longer than the expire duration.
func (t *TelegramRateLimiter) StartCleanupExpired(ctx context.Context) {
	if t.cfg.RatelimitExpireDuration <= 0 {
		return
	}
	t.wg.Add(1)
	utils.GoSafe(func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cfg.RatelimitExpireDuration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.log.Info("Received signal to stop Telegram rate limiter cleanup expired")
				return
			case <-ticker.C:
				t.cleanupExpired(time.Now())
			}
		}
	})
}

func (t *TelegramRateLimiter) cleanupExpired(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for chatID, entry := range t.userLimiters {
		if now.Sub(entry.lastAccess) > t.cfg.RatelimitExpireDuration {
			delete(t.userLimiters, chatID)
		}
	}
}

func (t *TelegramRateLimiter) StopCleanupExpired() {
	t.wg.Wait()
	t.log.Info("Telegram rate limiter stopped")
}
