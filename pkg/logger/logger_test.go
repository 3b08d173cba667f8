package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	log, err := New("debug", "json", zap.String("service", "market-insight"))
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud", "console")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestContextLoggerCarriesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := &Logger{zap.New(core)}
	ctx := NewContext(context.Background(), base.With(zap.String("request_id", "abc")))

	base.InfoContext(ctx, "with request")
	base.InfoContext(context.Background(), "without request")
	base.WarnContext(ctx, "warned")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "abc", entries[2].ContextMap()["request_id"])
}

func TestUintField(t *testing.T) {
	f := UintField("job_id", 7)
	assert.Equal(t, "job_id", f.Key)
	assert.Equal(t, int64(7), f.Integer)
}
