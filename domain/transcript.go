package domain

import "time"

const (
	SenderAI    = "ai"
	SenderHuman = "human"
)

// Transcript is one utterance. Rows are append-only; the only mutation after
// insert is the score/feedback backfill on a human row right after its answer
// has been evaluated.
type Transcript struct {
	ID          uint      `gorm:"primaryKey"`
	SessionID   uint      `gorm:"not null;index"`
	Sender      string    `gorm:"size:50;not null"`
	Content     string    `gorm:"type:text;not null"`
	QuestionID  *uint     // bank question id; nil for synthetic turns
	TurnKind    *string   `gorm:"size:50"` // phase label at write time; legacy rows have NULL
	Score       *int
	Feedback    *string   `gorm:"type:text"`
	DurationSec *float64  // how long the candidate took to answer
	Timestamp   time.Time `gorm:"autoCreateTime"`
}
