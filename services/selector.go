package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

// Fixed synthetic prompts. The intro text contains SelfIntroMarker, which is
// how HasSelfIntroBeenAsked recognizes it later.
const (
	SelfIntroPrompt = "먼저, 간단하게 1분 자기소개를 부탁드립니다."
	ClosingPrompt   = "마지막으로 하고 싶은 말씀이나 저희 회사에 궁금한 점이 있다면 편하게 말씀해 주세요."

	CategoryBehavioral = "BEHAVIORAL"
	CategoryClosing    = "CLOSING"
)

// behavioralCategories restricts retrieval when a behavioral question is
// forced instead of generated.
var behavioralCategories = []string{"BEHAVIORAL", "PERSONALITY", "인성", "조직적합성", "SOFT_SKILL"}

// behavioralQueryPhrase replaces job requirements in the focused query when
// forcing a behavioral category.
const behavioralQueryPhrase = "팀워크 협업 갈등 해결 커뮤니케이션 경험"

const (
	maxAnswerTokens      = 5
	maxRequirementTokens = 8
	maxResumeLines       = 5
)

var queryStopwords = map[string]bool{
	"그리고": true, "하지만": true, "그래서": true, "저는": true, "제가": true,
	"있습니다": true, "했습니다": true, "합니다": true, "있는": true, "통해": true,
	"대한": true, "위해": true, "것을": true, "그런": true, "정말": true,
	"the": true, "and": true, "with": true, "for": true, "that": true,
	"this": true, "was": true, "are": true, "have": true, "from": true,
}

// NextQuestion decides what the AI asks next. A (nil, nil) return means the
// bank is exhausted and the caller should end the interview gracefully.
func (s *Interview) NextQuestion(ctx context.Context, session *domain.InterviewSession, historyIDs []uint) (*domain.NextQuestion, error) {
	introAsked, err := s.HasSelfIntroBeenAsked(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check self-intro: %w", err)
	}
	// The very first AI turn is always the intro, even if a caller skipped
	// turn 0 bookkeeping.
	if !introAsked {
		s.Log.Info("[RAG] First question → self-introduction (skipping vector search)")
		q := domain.Synthetic(SelfIntroPrompt, CategoryBehavioral, "자기소개")
		return &q, nil
	}

	t, err := s.TurnCount(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count turns: %w", err)
	}
	phase := PhaseForTurn(t, s.Cfg)
	s.Log.WithFields(logrus.Fields{"turn": t, "phase": phase}).Info("[CHAT] Selecting next question")

	if phase == PhaseClosing || phase == PhaseTerminal {
		q := domain.Synthetic(ClosingPrompt, CategoryClosing, "마무리")
		return &q, nil
	}

	if phase.IsGenerative() && !s.Cfg.DisableGenerative {
		q := s.GenerateQuestion(ctx, phase, session)
		return &q, nil
	}

	forceBehavioral := phase.IsGenerative() // generative turns disabled by config fall back to bank retrieval
	return s.retrieveQuestion(ctx, session, historyIDs, forceBehavioral)
}

func (s *Interview) retrieveQuestion(ctx context.Context, session *domain.InterviewSession, historyIDs []uint, forceBehavioral bool) (*domain.NextQuestion, error) {
	var user domain.User
	if err := s.DB.First(&user, session.UserID).Error; err != nil {
		return nil, fmt.Errorf("user %d not found: %w", session.UserID, err)
	}
	var job domain.JobPosting
	if err := s.DB.First(&job, session.JobPostingID).Error; err != nil {
		return nil, fmt.Errorf("job posting %d not found: %w", session.JobPostingID, err)
	}

	lastAnswer := s.lastHumanAnswer(session.ID)
	resume := s.resumeFor(session, &user)

	query := BuildFocusedQuery(&job, lastAnswer, resume, forceBehavioral)
	s.Log.WithField("query_len", len(query)).Info("[RAG] Query context built")

	vec, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		// Retrieval cannot proceed without an embedding; a fixed fallback
		// question keeps the interview moving.
		s.Log.WithError(err).Warn("[RAG] Embedding failed, using fallback question")
		q := domain.Synthetic(fallbackQuestions[fallbackTechnical], "BASIC", "기술")
		return &q, nil
	}

	excluded := s.excludedQuestionIDs(session.ID, historyIDs)
	var categories []string
	if forceBehavioral {
		categories = behavioralCategories
	}
	s.Log.WithField("excluded", len(excluded)).Info("[RAG] Filtering out used questions")

	base, err := s.Questions.Nearest(ctx, vec, excluded, categories)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if base == nil {
		s.Log.Info("[RAG] No suitable question found")
		return nil, nil
	}
	s.Log.WithFields(logrus.Fields{
		"question_id": base.ID,
		"category":    base.Category,
	}).Info("[RAG] Selected question")

	asked := s.askedQuestionTexts(session.ID)
	text := s.PersonalizeQuestion(ctx, base, lastAnswer, resume, asked)
	q := domain.FromBank(base, text)
	return &q, nil
}

// BuildFocusedQuery concatenates a short, signal-dense query: job title, a
// few content tokens from the last answer, requirement tokens (or the fixed
// teamwork phrase when forcing a behavioral category) and a handful of resume
// lines. Never the raw resume blob.
func BuildFocusedQuery(job *domain.JobPosting, lastAnswer, resume string, forceBehavioral bool) string {
	parts := []string{job.Title}

	if tokens := topTokens(lastAnswer, maxAnswerTokens); len(tokens) > 0 {
		parts = append(parts, strings.Join(tokens, " "))
	}

	if forceBehavioral {
		parts = append(parts, behavioralQueryPhrase)
	} else if job.Requirements != nil {
		if tokens := topTokens(*job.Requirements, maxRequirementTokens); len(tokens) > 0 {
			parts = append(parts, strings.Join(tokens, " "))
		}
	}

	if lines := firstLines(resume, maxResumeLines); lines != "" {
		parts = append(parts, lines)
	}

	return strings.Join(parts, " | ")
}

// topTokens returns up to max non-stopword tokens, first come first served.
func topTokens(text string, max int) []string {
	var out []string
	for _, tok := range strings.Fields(text) {
		cleaned := strings.Trim(strings.ToLower(tok), ".,!?\"'()[]")
		if cleaned == "" || len([]rune(cleaned)) < 2 || queryStopwords[cleaned] {
			continue
		}
		out = append(out, cleaned)
		if len(out) >= max {
			break
		}
	}
	return out
}

func firstLines(text string, max int) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= max {
			break
		}
	}
	return strings.Join(lines, " ")
}

func (s *Interview) lastHumanAnswer(sessionID uint) string {
	var row domain.Transcript
	err := s.DB.Where("session_id = ? AND sender = ?", sessionID, domain.SenderHuman).
		Order("timestamp DESC").Order("id DESC").First(&row).Error
	if err != nil {
		return ""
	}
	return row.Content
}

func (s *Interview) resumeFor(session *domain.InterviewSession, user *domain.User) string {
	if session.ResumeText != nil && *session.ResumeText != "" {
		return *session.ResumeText
	}
	if user.ResumeText != nil {
		return *user.ResumeText
	}
	return ""
}

// excludedQuestionIDs merges caller-supplied history with the ids already
// referenced by this session's transcript. Caller history can be stale or
// incomplete, so both sources are always consulted.
func (s *Interview) excludedQuestionIDs(sessionID uint, historyIDs []uint) []uint {
	seen := map[uint]bool{}
	var out []uint
	add := func(id uint) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, id := range historyIDs {
		add(id)
	}

	var rows []domain.Transcript
	s.DB.Where("session_id = ? AND sender = ? AND question_id IS NOT NULL", sessionID, domain.SenderAI).
		Find(&rows)
	for _, row := range rows {
		if row.QuestionID != nil {
			add(*row.QuestionID)
		}
	}
	return out
}

func (s *Interview) askedQuestionTexts(sessionID uint) []string {
	var rows []domain.Transcript
	s.DB.Where("session_id = ? AND sender = ?", sessionID, domain.SenderAI).
		Order("timestamp ASC").Find(&rows)
	var texts []string
	for _, row := range rows {
		texts = append(texts, row.Content)
	}
	return texts
}
