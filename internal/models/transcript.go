package models

import (
	"time"

	"gorm.io/datatypes"
)

// TranscriptRecord is an archived transcript entry. Rows are bulk-inserted by
// the archive worker after a session ends; the live transcript never touches
// the database.
type TranscriptRecord struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	SessionID string         `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Speaker   string         `gorm:"column:speaker;type:text" json:"speaker"` // "user" | "agent"
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Timestamp time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (TranscriptRecord) TableName() string { return "transcript_entries" }
