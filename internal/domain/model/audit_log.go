package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is written by database triggers on balance-bearing tables.
type AuditLog struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action    string     `gorm:"not null;size:100" json:"action"`
	Table     string     `gorm:"column:table_name;not null;size:100;index:idx_audit_log_table_action" json:"table_name"`
	RecordKey *string    `gorm:"size:64" json:"record_key,omitempty"`
	OldValues JSONB      `gorm:"type:jsonb" json:"old_values,omitempty"`
	NewValues JSONB      `gorm:"type:jsonb" json:"new_values,omitempty"`
	CreatedAt time.Time  `gorm:"default:now();index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_log"
}
