package domain

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionCanceled   SessionStatus = "CANCELED"
)

// InterviewSession links a candidate to a job posting for one interview
// attempt. EmotionSummary holds the per-label frame counts submitted once by
// the vision client at the end of the session.
type InterviewSession struct {
	ID             uint          `gorm:"primaryKey"`
	UserID         uint          `gorm:"not null;index"`
	JobPostingID   uint          `gorm:"not null;index"`
	ResumeText     *string       `gorm:"type:longtext"` // snapshot taken at interview start
	Status         SessionStatus `gorm:"size:50;default:'IN_PROGRESS';not null;index"`
	EmotionSummary *string       `gorm:"type:json"`
	CreatedAt      time.Time
}
