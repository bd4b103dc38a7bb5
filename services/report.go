package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

// Weights of the deterministic score pipeline. The LLM never touches these
// numbers.
const (
	techWeight           = 0.40
	communicationWeight  = 0.25
	problemSolvingWeight = 0.25
	nonVerbalWeight      = 0.10

	techFactor           = 0.95
	problemSolvingFactor = 0.90

	defaultAvgScore       = 50.0
	defaultNonVerbalScore = 70
)

// ReportScores holds the code-computed numeric fields of a report.
type ReportScores struct {
	Total          int
	Tech           int
	Communication  int
	ProblemSolving int
	NonVerbal      int
	AvgTurnScore   float64
}

// ComputeScores derives every numeric report field from the persisted
// per-turn scores and the emotion histogram. Pure.
func ComputeScores(turnScores []int, emotions map[string]int) ReportScores {
	avg := defaultAvgScore
	if len(turnScores) > 0 {
		sum := 0
		for _, sc := range turnScores {
			sum += sc
		}
		avg = float64(sum) / float64(len(turnScores))
	}

	sc := ReportScores{
		AvgTurnScore:   avg,
		Tech:           ClampScore(avg * techFactor),
		Communication:  ClampScore(avg),
		ProblemSolving: ClampScore(avg * problemSolvingFactor),
		NonVerbal:      NonVerbalScore(emotions),
	}
	sc.Total = int(math.Round(
		float64(sc.Tech)*techWeight +
			float64(sc.Communication)*communicationWeight +
			float64(sc.ProblemSolving)*problemSolvingWeight +
			float64(sc.NonVerbal)*nonVerbalWeight))
	return sc
}

// NonVerbalScore maps an emotion-label histogram to [0,100]. Neutral and
// happy frames count as positive; no frames at all scores the default 70.
func NonVerbalScore(emotions map[string]int) int {
	total := 0
	for _, n := range emotions {
		total += n
	}
	if total == 0 {
		return defaultNonVerbalScore
	}
	positive := emotions["neutral"] + emotions["happy"]
	ratio := float64(positive) / float64(total)
	return ClampScore(50 + ratio*50)
}

const reportPromptTemplate = `당신은 한국어로 면접 결과를 정리하는 전문 AI 면접관입니다. 아래 면접 기록과 확정된 점수를 바탕으로 정성 평가만 작성하세요.

[직무]
%s

[확정된 점수 — 절대 변경 금지]
총점: %d, 기술: %d, 커뮤니케이션: %d, 문제해결: %d, 비언어: %d

[면접 기록 요약]
%s

[지시사항]
1. 점수는 이미 확정되었습니다. 어떤 숫자도 새로 제안하거나 바꾸지 마세요.
2. 모든 텍스트는 자연스러운 비즈니스 한국어로 작성하세요.
3. 아래 JSON 형식만 출력하세요. JSON 이외의 텍스트는 절대 출력하지 마세요.

{"summary": "<3-4문장 총평>", "strengths": "<강점 2-3가지>", "weaknesses": "<보완점 2-3가지>", "job_fit": "<직무 적합도 평가>", "vision_analysis": "<표정 분석 기반 한 줄 평>", "non_verbal_comment": "<비언어적 태도 한 줄 평>"}`

type reportNarrative struct {
	Summary          string `json:"summary"`
	Strengths        string `json:"strengths"`
	Weaknesses       string `json:"weaknesses"`
	JobFit           string `json:"job_fit"`
	VisionAnalysis   string `json:"vision_analysis"`
	NonVerbalComment string `json:"non_verbal_comment"`
}

var fallbackNarrative = reportNarrative{
	Summary:          "면접이 정상적으로 완료되었습니다. 상세 총평 생성에 실패하여 기본 총평으로 대체되었습니다.",
	Strengths:        "면접에 성실하게 참여해 주셨습니다.",
	Weaknesses:       "세부 평가 내용을 생성하지 못했습니다.",
	JobFit:           "점수 기반 평가를 참고해 주세요.",
	VisionAnalysis:   "표정 분석 데이터가 충분하지 않습니다.",
	NonVerbalComment: "비언어적 분석 결과를 생성하지 못했습니다.",
}

// GenerateReport creates the final evaluation report for a session.
// Idempotent: an existing report is returned untouched, which also guards
// against double submission of the closing answer. All numeric fields come
// from ComputeScores; anything numeric the model emits is discarded.
func (s *Interview) GenerateReport(ctx context.Context, sessionID uint) (*domain.EvaluationReport, error) {
	var existing domain.EvaluationReport
	if err := s.DB.Where("session_id = ?", sessionID).First(&existing).Error; err == nil {
		s.Log.WithField("session_id", sessionID).Info("[REPORT] Report already exists, skipping generation")
		return &existing, nil
	}

	var session domain.InterviewSession
	if err := s.DB.First(&session, sessionID).Error; err != nil {
		return nil, fmt.Errorf("session %d not found: %w", sessionID, err)
	}
	var job domain.JobPosting
	jobTitle := "Unknown"
	if err := s.DB.First(&job, session.JobPostingID).Error; err == nil {
		jobTitle = job.Title
	}

	var transcripts []domain.Transcript
	s.DB.Where("session_id = ?", sessionID).Order("timestamp ASC").Order("id ASC").Find(&transcripts)

	var turnScores []int
	var totalTime float64
	hasTime := false
	for _, row := range transcripts {
		if row.Sender != domain.SenderHuman {
			continue
		}
		if row.Score != nil {
			turnScores = append(turnScores, *row.Score)
		}
		if row.DurationSec != nil {
			totalTime += *row.DurationSec
			hasTime = true
		}
	}

	emotions := s.emotionHistogram(&session)
	scores := ComputeScores(turnScores, emotions)
	s.Log.WithField("session_id", sessionID).WithField("avg", scores.AvgTurnScore).
		Info("[REPORT] Computed numeric scores")

	narrative := s.reportNarrative(ctx, jobTitle, scores, transcripts)

	details := map[string]any{
		"avg_turn_score": scores.AvgTurnScore,
		"turn_scores":    turnScores,
		"emotion_counts": emotions,
	}
	detailsJSON, _ := json.Marshal(details)
	detailsStr := string(detailsJSON)

	report := domain.EvaluationReport{
		SessionID:           sessionID,
		TotalScore:          scores.Total,
		TechScore:           scores.Tech,
		CommunicationScore:  scores.Communication,
		ProblemSolvingScore: scores.ProblemSolving,
		NonVerbalScore:      scores.NonVerbal,
		Summary:             &narrative.Summary,
		Strengths:           &narrative.Strengths,
		Weaknesses:          &narrative.Weaknesses,
		JobFit:              &narrative.JobFit,
		VisionAnalysis:      &narrative.VisionAnalysis,
		NonVerbalComment:    &narrative.NonVerbalComment,
		Details:             &detailsStr,
		EmotionTimeline:     session.EmotionSummary,
	}
	if hasTime {
		report.TotalTimeSec = &totalTime
	}

	if err := s.DB.Create(&report).Error; err != nil {
		// Unique index on session_id: a concurrent duplicate invocation lost
		// the race, so return the winner's row.
		var winner domain.EvaluationReport
		if err2 := s.DB.Where("session_id = ?", sessionID).First(&winner).Error; err2 == nil {
			return &winner, nil
		}
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	s.Log.WithField("session_id", sessionID).WithField("total", report.TotalScore).
		Info("[REPORT] Report persisted")
	return &report, nil
}

// reportNarrative asks the model for the qualitative text only. Numeric keys
// it might still emit are simply never read. Any failure returns the fixed
// placeholder narrative so a terminal session always has a report.
func (s *Interview) reportNarrative(ctx context.Context, jobTitle string, scores ReportScores, transcripts []domain.Transcript) reportNarrative {
	prompt := fmt.Sprintf(reportPromptTemplate,
		jobTitle,
		scores.Total, scores.Tech, scores.Communication, scores.ProblemSolving, scores.NonVerbal,
		transcriptDigest(transcripts),
	)

	raw, err := s.LLM.Generate(ctx, prompt, GenerateOptions{Temperature: 0.3, MaxTokens: 1024, ForceJSON: true})
	if err != nil {
		s.Log.WithError(err).Warn("[REPORT] Narrative generation failed, using fallback text")
		return fallbackNarrative
	}

	var parsed reportNarrative
	if err := json.Unmarshal([]byte(CleanJSONResponse(raw)), &parsed); err != nil {
		s.Log.WithError(err).Warn("[REPORT] Could not parse narrative JSON, using fallback text")
		return fallbackNarrative
	}
	if parsed.Summary == "" {
		parsed.Summary = fallbackNarrative.Summary
	}
	return parsed
}

func transcriptDigest(transcripts []domain.Transcript) string {
	var b strings.Builder
	for _, row := range transcripts {
		speaker := "면접관"
		if row.Sender == domain.SenderHuman {
			speaker = "지원자"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, truncate(row.Content, 200))
	}
	return truncate(b.String(), 3000)
}

func (s *Interview) emotionHistogram(session *domain.InterviewSession) map[string]int {
	if session.EmotionSummary == nil {
		return nil
	}
	var summary struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal([]byte(*session.EmotionSummary), &summary); err != nil {
		s.Log.WithError(err).Warn("[REPORT] Invalid emotion summary JSON, ignoring")
		return nil
	}
	return summary.Counts
}
