package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "interview.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.JobPosting{}, &domain.InterviewSession{},
		&domain.Transcript{}, &domain.QuestionBank{}, &domain.EvaluationReport{},
	))
	return db
}

func intPtr(n int) *int { return &n }

func TestNonVerbalScore(t *testing.T) {
	tests := []struct {
		name     string
		emotions map[string]int
		want     int
	}{
		{"all positive", map[string]int{"neutral": 8, "happy": 2, "sad": 0}, 100},
		{"no frames", map[string]int{}, 70},
		{"nil histogram", nil, 70},
		{"half positive", map[string]int{"neutral": 5, "angry": 5}, 75},
		{"no positive", map[string]int{"sad": 4, "angry": 6}, 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NonVerbalScore(tc.emotions))
		})
	}
}

func TestComputeScoresWorkedExample(t *testing.T) {
	// turns scored [80, 40, 60] → avg 60 → tech 57, problem-solving 54,
	// communication 60; non-verbal defaults to 70 → total 58
	scores := ComputeScores([]int{80, 40, 60}, nil)

	assert.InDelta(t, 60.0, scores.AvgTurnScore, 1e-9)
	assert.Equal(t, 57, scores.Tech)
	assert.Equal(t, 54, scores.ProblemSolving)
	assert.Equal(t, 60, scores.Communication)
	assert.Equal(t, 70, scores.NonVerbal)
	assert.Equal(t, 58, scores.Total)
}

func TestComputeScoresNoTurnsUsesDefaultAverage(t *testing.T) {
	scores := ComputeScores(nil, nil)
	assert.InDelta(t, 50.0, scores.AvgTurnScore, 1e-9)
	assert.Equal(t, 47, scores.Tech)
	assert.Equal(t, 50, scores.Communication)
	assert.Equal(t, 45, scores.ProblemSolving)
}

func TestComputeScoresClampsSubScores(t *testing.T) {
	scores := ComputeScores([]int{100, 100, 100}, map[string]int{"happy": 10})
	assert.Equal(t, 95, scores.Tech)
	assert.Equal(t, 100, scores.Communication)
	assert.Equal(t, 90, scores.ProblemSolving)
	assert.Equal(t, 100, scores.NonVerbal)
	assert.LessOrEqual(t, scores.Total, 100)
}

// The model may try to emit numeric fields of its own; the narrative parser
// must only ever surface qualitative text, leaving the computed scores as the
// single numeric source.
func TestReportNarrativeIgnoresInjectedScores(t *testing.T) {
	llm := &stubLLM{response: `{
		"summary": "총평입니다.",
		"strengths": "강점입니다.",
		"weaknesses": "보완점입니다.",
		"job_fit": "적합합니다.",
		"vision_analysis": "안정적입니다.",
		"non_verbal_comment": "차분합니다.",
		"tech_score": 999,
		"total_score": 999
	}`}
	svc := newTestInterview(llm)

	scores := ComputeScores([]int{80, 40, 60}, nil)
	narrative := svc.reportNarrative(context.Background(), "백엔드 개발자", scores, nil)

	assert.Equal(t, "총평입니다.", narrative.Summary)
	assert.Equal(t, "강점입니다.", narrative.Strengths)

	// computed numbers are untouched by whatever the model returned
	assert.Equal(t, 57, scores.Tech)
	assert.Equal(t, 58, scores.Total)
}

func TestGenerateReportIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInterview(&stubLLM{
		response: `{"summary":"총평","strengths":"s","weaknesses":"w","job_fit":"j","vision_analysis":"v","non_verbal_comment":"n"}`,
	})
	svc.DB = db

	job := domain.JobPosting{Title: "백엔드 개발자", Description: "설명", Status: domain.JobActive}
	require.NoError(t, db.Create(&job).Error)
	user := domain.User{Name: "김지원", Email: "kim@example.com", Role: domain.RoleCandidate}
	require.NoError(t, db.Create(&user).Error)
	session := domain.InterviewSession{UserID: user.ID, JobPostingID: job.ID, Status: domain.SessionCompleted}
	require.NoError(t, db.Create(&session).Error)
	for _, sc := range []int{80, 40, 60} {
		require.NoError(t, db.Create(&domain.Transcript{
			SessionID: session.ID, Sender: domain.SenderHuman, Content: "답변", Score: intPtr(sc),
		}).Error)
	}

	first, err := svc.GenerateReport(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 58, first.TotalScore)

	// the report worker and the inline fallback may both fire for one session
	second, err := svc.GenerateReport(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TotalScore, second.TotalScore)

	var count int64
	db.Model(&domain.EvaluationReport{}).Where("session_id = ?", session.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestReportNarrativeFallsBackOnGarbage(t *testing.T) {
	svc := newTestInterview(&stubLLM{response: "JSON이 아닙니다"})
	narrative := svc.reportNarrative(context.Background(), "직무", ReportScores{}, nil)
	assert.Equal(t, fallbackNarrative, narrative)
}
