package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	done     chan struct{}
}

func (r *recordingSender) SendAlert(message string) error {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestAlertCore_OnlyTaggedEntriesAreForwarded(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	sender := &recordingSender{done: make(chan struct{}, 4)}
	log := (&Logger{zap.New(observed)}).WithAlertSender(sender, zapcore.ErrorLevel)

	log.Error("plain error", zap.Error(errors.New("boom")))
	log.ErrorContextWithAlert(context.Background(), "job failed", zap.String("job_name", "collect_market_data"))

	select {
	case <-sender.done:
	case <-time.After(time.Second):
		t.Fatal("alert was not sent")
	}

	assert.Equal(t, 2, logs.Len())
	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "job failed")
	assert.Contains(t, sender.messages[0], "job_name: collect_market_data")
	assert.NotContains(t, sender.messages[0], "send_alert")
}

func TestWithAlertSender_NilSenderKeepsLogger(t *testing.T) {
	log := &Logger{zap.NewNop()}
	assert.Same(t, log, log.WithAlertSender(nil, zapcore.ErrorLevel))
}
