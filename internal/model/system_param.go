package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Operator-tunable parameters stored as jsonb.
const (
	// SysParamDefaultCompetitors holds {"TICKER": ["PEER", ...]}.
	SysParamDefaultCompetitors = "DEFAULT_COMPETITORS"
	// SysParamAnalysisPrompt holds a JSON string replacing the built-in system prompt.
	SysParamAnalysisPrompt = "ANALYSIS_SYSTEM_PROMPT"
)

type SystemParameter struct {
	Name        string         `gorm:"column:name;type:varchar(100);primaryKey" json:"name"`
	Value       datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	DeletedAt   gorm.DeletedAt `json:"-"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemParameter) TableName() string {
	return "system_parameters"
}

// Decode unmarshals the value into dest. A NULL value leaves dest untouched.
func (p SystemParameter) Decode(dest interface{}) error {
	if len(p.Value) == 0 || string(p.Value) == "null" {
		return nil
	}
	if err := json.Unmarshal(p.Value, dest); err != nil {
		return fmt.Errorf("system parameter %s: %w", p.Name, err)
	}
	return nil
}
