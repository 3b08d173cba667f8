package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-insight/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, parseLogLevel("Error"))
	assert.Equal(t, gormlogger.Info, parseLogLevel("INFO"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel(""))
}

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name    string
		level   string
		elapsed time.Duration
		err     error
		wantMsg string
		wantLvl zapcore.Level
	}{
		{name: "failed query", level: "warn", err: errors.New("syntax error"), wantMsg: "Query failed", wantLvl: zapcore.ErrorLevel},
		{name: "missing row is quiet", level: "warn", err: gorm.ErrRecordNotFound},
		{name: "slow query", level: "warn", elapsed: time.Second, wantMsg: "Slow query", wantLvl: zapcore.WarnLevel},
		{name: "fast query at warn", level: "warn"},
		{name: "fast query at info", level: "info", wantMsg: "Query", wantLvl: zapcore.DebugLevel},
		{name: "silent", level: "silent", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			g := newGormLogger(&logger.Logger{Logger: zap.New(core)}, tt.level, 200*time.Millisecond)

			g.Trace(context.Background(), time.Now().Add(-tt.elapsed), sql, tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, logs.Len())
				return
			}
			entries := logs.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.wantMsg, entries[0].Message)
				assert.Equal(t, tt.wantLvl, entries[0].Level)
				assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
			}
		})
	}
}

func TestGormLogger_LogModeDoesNotMutate(t *testing.T) {
	g := newGormLogger(logger.NewNop(), "warn", 0)
	silent := g.LogMode(gormlogger.Silent).(*gormLogger)
	assert.Equal(t, gormlogger.Silent, silent.level)
	assert.Equal(t, gormlogger.Warn, g.level)
}
