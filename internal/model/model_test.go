package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAlert_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		alertType AlertType
		condition string
		price     string
		volume    int64
		want      bool
	}{
		{name: "price above reached", alertType: AlertTypePriceAbove, condition: "200", price: "200.00", want: true},
		{name: "price above not reached", alertType: AlertTypePriceAbove, condition: "200", price: "199.99", want: false},
		{name: "price below reached", alertType: AlertTypePriceBelow, condition: "150.5", price: "150.4", want: true},
		{name: "price below not reached", alertType: AlertTypePriceBelow, condition: "150.5", price: "151", want: false},
		{name: "volume above reached", alertType: AlertTypeVolumeAbove, condition: "1000000", volume: 1500000, price: "1", want: true},
		{name: "volume above not reached", alertType: AlertTypeVolumeAbove, condition: "1000000", volume: 999999, price: "1", want: false},
		{name: "unknown type", alertType: AlertType("nope"), condition: "1", price: "5", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Alert{AlertType: tt.alertType, ConditionValue: decimal.RequireFromString(tt.condition)}
			got, _ := a.Evaluate(decimal.RequireFromString(tt.price), tt.volume)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlertType_Valid(t *testing.T) {
	assert.True(t, AlertTypePriceAbove.Valid())
	assert.True(t, AlertTypeVolumeAbove.Valid())
	assert.False(t, AlertType("price_sideways").Valid())
}

func TestAnalysisCacheEntry_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, (&AnalysisCacheEntry{ExpiresAt: now.Add(time.Second)}).IsExpired(now))
	assert.True(t, (&AnalysisCacheEntry{ExpiresAt: now}).IsExpired(now))
	assert.True(t, (&AnalysisCacheEntry{ExpiresAt: now.Add(-time.Minute)}).IsExpired(now))
}

func TestTaskSchedule_IsDue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		schedule TaskSchedule
		want     bool
	}{
		{name: "inactive", schedule: TaskSchedule{IsActive: false}, want: false},
		{name: "never scheduled", schedule: TaskSchedule{IsActive: true}, want: true},
		{name: "in the past", schedule: TaskSchedule{IsActive: true, NextExecution: sql.NullTime{Valid: true, Time: now.Add(-time.Minute)}}, want: true},
		{name: "in the future", schedule: TaskSchedule{IsActive: true, NextExecution: sql.NullTime{Valid: true, Time: now.Add(time.Minute)}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schedule.IsDue(now))
		})
	}
}

func TestSystemParameter_Decode(t *testing.T) {
	competitors := map[string][]string{}
	p := SystemParameter{Name: SysParamDefaultCompetitors, Value: []byte(`{"AAPL":["MSFT","GOOGL"]}`)}
	assert.NoError(t, p.Decode(&competitors))
	assert.Equal(t, []string{"MSFT", "GOOGL"}, competitors["AAPL"])

	prompt := "keep"
	assert.NoError(t, SystemParameter{Value: []byte("null")}.Decode(&prompt))
	assert.Equal(t, "keep", prompt)

	err := SystemParameter{Name: SysParamAnalysisPrompt, Value: []byte(`{`)}.Decode(&prompt)
	assert.ErrorContains(t, err, SysParamAnalysisPrompt)
}
