package models

import "time"

// InterviewSession is the dashboard-facing record of one mock interview.
// A row is inserted when the interview starts (with a "Started ..." summary)
// and its summary is replaced with the completed one on end.
type InterviewSession struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	Role          string `gorm:"column:role;type:text" json:"role"`
	Company       string `gorm:"column:company;type:text" json:"company"`
	InterviewType string `gorm:"column:interview_type;type:text" json:"interview_type"`
	Duration      int    `gorm:"column:duration;type:integer" json:"duration"` // minutes, as configured

	Resume          string `gorm:"column:resume;type:text" json:"resume"`
	JobDescription  string `gorm:"column:job_description;type:text" json:"job_description"`
	AdditionalNotes string `gorm:"column:additional_notes;type:text" json:"additional_notes"`

	Summary string `gorm:"column:summary;type:text" json:"summary"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (InterviewSession) TableName() string { return "interview_sessions" }

// CodingSession records one click-through to an external coding practice
// platform from the dashboard.
type CodingSession struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	PlatformName string    `gorm:"column:platform_name;type:text" json:"platform_name"`
	PlatformURL  string    `gorm:"column:platform_url;type:text" json:"platform_url"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (CodingSession) TableName() string { return "coding_sessions" }
