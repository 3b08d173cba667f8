package telegram

import (
	"context"
	"testing"
	"time"

	"market-insight/config"
	"market-insight/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

type fakeSender struct {
	recipients []string
	messages   []string
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	f.recipients = append(f.recipients, to.Recipient())
	f.messages = append(f.messages, what.(string))
	return &telebot.Message{}, nil
}

func newTestLimiter(sender Sender) *TelegramRateLimiter {
	cfg := &config.TelegramConfig{
		ChatID:                    99,
		TimeoutDuration:           time.Second,
		MaxGlobalRequestPerSecond: 100,
		MaxUserRequestPerSecond:   100,
		RatelimitExpireDuration:   time.Minute,
	}
	return NewTelegramRateLimiter(cfg, &logger.Logger{Logger: zap.NewNop()}, sender)
}

func TestSendMessageUser(t *testing.T) {
	sender := &fakeSender{}
	tg := newTestLimiter(sender)

	require.NoError(t, tg.SendMessageUser(context.Background(), "hello", 12345))
	require.NoError(t, tg.SendAlert("ops"))

	assert.Equal(t, []string{"12345", "99"}, sender.recipients)
	assert.Equal(t, []string{"hello", "ops"}, sender.messages)
}

func TestSendMessageUser_NotConfigured(t *testing.T) {
	tg := newTestLimiter(nil)
	assert.False(t, tg.Enabled())
	assert.Error(t, tg.SendMessageUser(context.Background(), "hello", 1))
	assert.NoError(t, tg.SendAlert("ignored"))
}

func TestCleanupExpired(t *testing.T) {
	tg := newTestLimiter(&fakeSender{})
	tg.getUserLimiter(1)
	tg.cleanupExpired(time.Now().Add(2 * time.Minute))
	assert.Empty(t, tg.userLimiters)
}

func TestFormatPriceAlert(t *testing.T) {
	at := time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)
	msg := FormatPriceAlert(PriceAbove, "AAPL", "Apple Inc.", 201.5, 200, at)
	assert.Contains(t, msg, "<b>AAPL</b>")
	assert.Contains(t, msg, "$201.50")
	assert.Contains(t, msg, "02 Mar 2026 15:04 UTC")

	vol := FormatPriceAlert(VolumeAbove, "TSLA", "Tesla <Inc>", 5e6, 4e6, at)
	assert.Contains(t, vol, "Volume: <b>5000000</b>")
	assert.Contains(t, vol, "Tesla &lt;Inc&gt;")
}
