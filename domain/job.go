package domain

import "time"

type JobStatus string

const (
	JobActive JobStatus = "ACTIVE"
	JobClosed JobStatus = "CLOSED"
	JobDraft  JobStatus = "DRAFT"
)

type JobPosting struct {
	ID                 uint      `gorm:"primaryKey"`
	Title              string    `gorm:"size:500;not null"`
	Description        string    `gorm:"type:text;not null"`
	Requirements       *string   `gorm:"type:text"`
	MinExperience      int       `gorm:"default:0;not null"`
	TargetCapabilities *string   `gorm:"type:text"`
	Conditions         *string   `gorm:"type:text"`
	Procedures         *string   `gorm:"type:text"`
	ApplicationMethod  *string   `gorm:"type:text"`
	Status             JobStatus `gorm:"size:50;default:'ACTIVE';not null;index"`
	CreatedAt          time.Time
}
