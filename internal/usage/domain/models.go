// Package domain contains persistence models for the append-only AI usage log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageRecord stores one successful generation call. Rows are immutable once
// written.
type UsageRecord struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	AccountEmail string            `json:"account_email" gorm:"type:text;not null;index"`
	InputText    string            `json:"input_text" gorm:"type:text;not null"`
	OutputText   string            `json:"output_text" gorm:"type:text;not null"`
	InputTokens  int               `json:"input_tokens" gorm:"not null"`
	OutputTokens int               `json:"output_tokens" gorm:"not null"`
	Model        string            `json:"model" gorm:"type:text;not null"`
	Tag          string            `json:"tag" gorm:"type:text"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "ai_usage_records" }
