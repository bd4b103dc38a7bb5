package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

func strPtr(s string) *string { return &s }

func TestBuildFocusedQueryIncludesJobTitle(t *testing.T) {
	job := &domain.JobPosting{Title: "백엔드 개발자"}
	query := BuildFocusedQuery(job, "", "", false)
	assert.Equal(t, "백엔드 개발자", query)
}

func TestBuildFocusedQueryCapsAnswerTokens(t *testing.T) {
	job := &domain.JobPosting{Title: "백엔드 개발자"}
	answer := "redis 캐시 구조를 도입해서 조회 트래픽 병목을 줄였고 이후에 샤딩도 검토했습니다"

	query := BuildFocusedQuery(job, answer, "", false)
	parts := strings.Split(query, " | ")
	assert.Len(t, parts, 2)
	assert.LessOrEqual(t, len(strings.Fields(parts[1])), maxAnswerTokens)
	assert.Contains(t, parts[1], "redis")
}

func TestBuildFocusedQueryFiltersStopwords(t *testing.T) {
	job := &domain.JobPosting{Title: "백엔드 개발자"}
	answer := "저는 그리고 하지만 kafka 파이프라인을 구축했습니다"

	query := BuildFocusedQuery(job, answer, "", false)
	assert.NotContains(t, query, "저는")
	assert.NotContains(t, query, "그리고")
	assert.Contains(t, query, "kafka")
}

func TestBuildFocusedQueryBehavioralPhraseReplacesRequirements(t *testing.T) {
	job := &domain.JobPosting{
		Title:        "백엔드 개발자",
		Requirements: strPtr("Go MySQL Redis Kubernetes 경험자 우대"),
	}

	normal := BuildFocusedQuery(job, "", "", false)
	assert.Contains(t, normal, "mysql")

	forced := BuildFocusedQuery(job, "", "", true)
	assert.Contains(t, forced, behavioralQueryPhrase)
	assert.NotContains(t, forced, "mysql")
}

func TestBuildFocusedQueryCapsResumeLines(t *testing.T) {
	job := &domain.JobPosting{Title: "백엔드 개발자"}
	resume := strings.Join([]string{
		"이름: 김개발", "경력: 5년", "주요 기술: Go", "프로젝트: 결제 시스템", "수상: 사내 해커톤",
		"취미: 등산", "특기: 요리",
	}, "\n")

	query := BuildFocusedQuery(job, "", resume, false)
	assert.Contains(t, query, "사내 해커톤")
	assert.NotContains(t, query, "등산")
	assert.NotContains(t, query, "요리")
}

func TestBuildFocusedQueryNeverEmbedsRawResumeBlob(t *testing.T) {
	job := &domain.JobPosting{Title: "백엔드 개발자"}
	resume := strings.Repeat("아주 긴 이력서 내용입니다.\n", 200)

	query := BuildFocusedQuery(job, "", resume, false)
	assert.Less(t, len(query), len(resume)/10)
}

func TestNextQuestionFirstTurnIsSelfIntro(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInterview(&stubLLM{})
	svc.DB = db

	session := domain.InterviewSession{UserID: 1, JobPostingID: 1, Status: domain.SessionInProgress}
	require.NoError(t, db.Create(&session).Error)

	// caller-supplied history must not matter before the intro was asked
	q, err := svc.NextQuestion(context.Background(), &session, []uint{5, 7})
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, SelfIntroPrompt, q.Text)
	assert.Nil(t, q.BankID)
	assert.True(t, q.IsSynthetic())
}

func TestNextQuestionClosingFromBoundaryOn(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInterview(&stubLLM{})
	svc.DB = db

	session := domain.InterviewSession{UserID: 1, JobPostingID: 1, Status: domain.SessionInProgress}
	require.NoError(t, db.Create(&session).Error)
	require.NoError(t, db.Create(&domain.Transcript{
		SessionID: session.ID, Sender: domain.SenderAI, Content: SelfIntroPrompt,
	}).Error)
	for i := 0; i < svc.Cfg.ClosingTurn; i++ {
		require.NoError(t, db.Create(&domain.Transcript{
			SessionID: session.ID, Sender: domain.SenderHuman, Content: "답변입니다",
		}).Error)
	}

	q, err := svc.NextQuestion(context.Background(), &session, nil)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, ClosingPrompt, q.Text)
	assert.Equal(t, CategoryClosing, q.Category)
	assert.Nil(t, q.BankID)

	// one more answer past the boundary still yields the closing prompt
	require.NoError(t, db.Create(&domain.Transcript{
		SessionID: session.ID, Sender: domain.SenderHuman, Content: "추가 답변입니다",
	}).Error)
	q, err = svc.NextQuestion(context.Background(), &session, nil)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, ClosingPrompt, q.Text)
	assert.Equal(t, CategoryClosing, q.Category)
}

func TestTopTokens(t *testing.T) {
	tokens := topTokens("저는 Redis, Kafka! 그리고 MySQL 을 씁니다", 10)
	assert.Contains(t, tokens, "redis")
	assert.Contains(t, tokens, "kafka")
	assert.Contains(t, tokens, "mysql")
	assert.NotContains(t, tokens, "저는")
	assert.NotContains(t, tokens, "그리고")
}
