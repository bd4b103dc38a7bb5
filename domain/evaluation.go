package domain

// Evaluation is the ephemeral result of scoring one answer. It is produced
// and consumed within a single turn and never persisted as its own row.
type Evaluation struct {
	Score            int    `json:"score"`
	Feedback         string `json:"feedback"`
	FollowUpQuestion string `json:"follow_up_question"`
}
