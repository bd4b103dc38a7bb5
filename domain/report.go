package domain

import "time"

// EvaluationReport is created exactly once per session at interview
// completion. Numeric fields always hold the code-computed values; the LLM
// only contributes the qualitative text columns.
type EvaluationReport struct {
	ID                  uint    `gorm:"primaryKey"`
	SessionID           uint    `gorm:"not null;uniqueIndex"`
	TotalScore          int     `gorm:"not null"`
	TechScore           int
	CommunicationScore  int
	ProblemSolvingScore int
	NonVerbalScore      int
	Summary             *string  `gorm:"type:text"`
	Strengths           *string  `gorm:"type:text"`
	Weaknesses          *string  `gorm:"type:text"`
	JobFit              *string  `gorm:"type:text"`
	VisionAnalysis      *string  `gorm:"type:text"`
	NonVerbalComment    *string  `gorm:"type:text"`
	Details             *string  `gorm:"type:json"`
	EmotionTimeline     *string  `gorm:"type:json"`
	TotalTimeSec        *float64
	CreatedAt           time.Time
}
