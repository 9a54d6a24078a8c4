package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a reconciliation decision.
type AuditLog struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey"`
	Action     string         `json:"action" gorm:"type:text;not null;index"`
	EntityType string         `json:"entity_type" gorm:"type:text;not null"`
	EntityID   string         `json:"entity_id" gorm:"type:text;not null;index"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Entry is what callers hand to the audit service.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

// Service records audit entries. Recording is best effort: a failed
// write is logged and swallowed so it never aborts the operation it
// describes.
type Service interface {
	Record(ctx context.Context, entry Entry)
}
