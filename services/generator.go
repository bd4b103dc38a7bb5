package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

const (
	maxFollowUpAnswerRunes = 300
	minQuestionRunes       = 15
)

// FarewellSuffix is always appended to the closing response so the interview
// ends on the same note regardless of what the model produced.
const FarewellSuffix = "오늘 면접에 참여해 주셔서 진심으로 감사합니다. 결과는 검토 후 안내드리겠습니다. 좋은 하루 보내세요."

const fallbackTechnical = "TECHNICAL"

// One hardcoded fallback per generative sub-phase plus the retrieval and
// generic slots. A fallback always exists so the interview can never stall.
var fallbackQuestions = map[string]string{
	string(PhaseBehavioralTeam):         "팀 프로젝트에서 의견 충돌이 있었던 경험과 이를 어떻게 해결하셨는지 말씀해 주시겠어요?",
	string(PhaseBehavioralTeamFollowUp): "방금 말씀하신 경험에서 본인이 맡았던 역할과 그 결과를 좀 더 구체적으로 설명해 주시겠어요?",
	string(PhasePersonality):            "업무에서 스트레스를 받았을 때 본인만의 해소 방법은 무엇인가요?",
	string(PhasePersonalityFollowUp):    "그 방식이 실제 업무 성과에 어떤 영향을 주었는지 말씀해 주시겠어요?",
	fallbackTechnical:                   "최근에 가장 깊이 있게 다뤄본 기술과 그 기술을 선택한 이유를 설명해 주시겠어요?",
	"GENERIC":                           "지금까지의 경력에서 가장 성장했다고 느낀 순간은 언제였나요?",
}

var personalityTopics = []string{"성실성", "책임감", "협업", "소통", "성장 의지", "스트레스 관리"}

// GenerateQuestion builds one LLM-generated behavioral/personality question
// for the given phase. Never fails: any generation or validation failure
// substitutes the phase's hardcoded fallback.
func (s *Interview) GenerateQuestion(ctx context.Context, phase Phase, session *domain.InterviewSession) domain.NextQuestion {
	var user domain.User
	resume := ""
	if err := s.DB.First(&user, session.UserID).Error; err == nil {
		resume = s.resumeFor(session, &user)
	}
	lastAnswer := s.lastHumanAnswer(session.ID)

	prompt := buildGenerationPrompt(phase, resume, lastAnswer)
	raw, err := s.LLM.Generate(ctx, prompt, GenerateOptions{Temperature: 0.7, MaxTokens: 256})
	if err != nil {
		s.Log.WithError(err).Warn("[GEN] Question generation failed, using fallback")
		return syntheticFor(phase, fallbackFor(phase))
	}

	question, ok := ValidateGeneratedQuestion(raw)
	if !ok {
		s.Log.WithField("raw", truncate(raw, 120)).Warn("[GEN] Generated question failed validation, using fallback")
		return syntheticFor(phase, fallbackFor(phase))
	}

	s.Log.WithField("phase", phase).Info("[GEN] Question generated")
	return syntheticFor(phase, question)
}

func buildGenerationPrompt(phase Phase, resume, lastAnswer string) string {
	var b strings.Builder
	b.WriteString("당신은 한국어로 면접을 진행하는 전문 AI 면접관입니다.\n\n")

	switch phase {
	case PhaseBehavioralTeam:
		b.WriteString("[지시사항]\n지원자의 팀 프로젝트 경험 또는 팀 내 갈등 해결 경험을 묻는 행동 면접 질문을 하나 생성하세요.\n")
	case PhaseBehavioralTeamFollowUp:
		b.WriteString("[지시사항]\n아래 지원자의 직전 답변을 참고하여, 답변 내용을 더 깊이 파고드는 후속 질문을 하나 생성하세요. 직전 질문을 그대로 반복하지 마세요.\n")
	case PhasePersonality:
		b.WriteString("[지시사항]\n다음 주제 중 하나를 골라 지원자의 인성과 조직 적합성을 확인하는 질문을 하나 생성하세요: ")
		b.WriteString(strings.Join(personalityTopics, ", "))
		b.WriteString("\n")
	case PhasePersonalityFollowUp:
		b.WriteString("[지시사항]\n아래 지원자의 직전 답변을 참고하여, 인성 측면을 더 확인하는 후속 질문을 하나 생성하세요. 직전 질문을 그대로 반복하지 마세요.\n")
	}

	if lines := firstLines(resume, maxResumeLines); lines != "" {
		b.WriteString("\n[지원자 이력서 요약]\n")
		b.WriteString(lines)
		b.WriteString("\n")
	}
	if (phase == PhaseBehavioralTeamFollowUp || phase == PhasePersonalityFollowUp) && lastAnswer != "" {
		b.WriteString("\n[지원자의 직전 답변]\n")
		b.WriteString(truncate(lastAnswer, maxFollowUpAnswerRunes))
		b.WriteString("\n")
	}

	b.WriteString("\n[출력 규칙]\n")
	b.WriteString("1. 질문은 정확히 한 문장으로 작성하세요.\n")
	b.WriteString("2. 반드시 정중한 한국어 의문형으로 끝내세요. (예: ~하셨나요?, ~말씀해 주시겠어요?)\n")
	b.WriteString("3. 질문 외의 다른 텍스트는 출력하지 마세요.\n")
	return b.String()
}

// ValidateGeneratedQuestion checks a model-produced question and normalizes
// it. A duplicated trailing polite-ending artifact ("...나요? 입니다." style)
// is stripped by truncating to the last question mark; the length check runs
// on the truncated text, so trailing junk cannot carry a stub question past
// the minimum. A valid question is longer than 15 runes and contains a
// question mark or a Korean interrogative ending.
func ValidateGeneratedQuestion(raw string) (string, bool) {
	q := strings.TrimSpace(raw)
	q = strings.Trim(q, "\"“”")
	if q == "" {
		return "", false
	}
	if !strings.Contains(q, "?") && !hasInterrogativeEnding(q) {
		return "", false
	}
	if idx := strings.LastIndex(q, "?"); idx != -1 && idx < len(q)-1 {
		q = q[:idx+1]
	}
	if utf8.RuneCountInString(q) <= minQuestionRunes {
		return "", false
	}
	return q, true
}

// hasInterrogativeEnding accepts questions written without a question mark
// but closed with a polite Korean interrogative ending.
func hasInterrogativeEnding(q string) bool {
	trimmed := strings.TrimRight(q, " .!")
	for _, suffix := range []string{"까", "나요", "가요", "세요", "어요", "죠"} {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}

func fallbackFor(phase Phase) string {
	if q, ok := fallbackQuestions[string(phase)]; ok {
		return q
	}
	return fallbackQuestions["GENERIC"]
}

func syntheticFor(phase Phase, text string) domain.NextQuestion {
	switch phase {
	case PhasePersonality, PhasePersonalityFollowUp:
		return domain.Synthetic(text, CategoryBehavioral, "인성")
	default:
		return domain.Synthetic(text, CategoryBehavioral, "팀워크")
	}
}

const personalizePromptTemplate = `당신은 한국어로 면접을 진행하는 전문 AI 면접관입니다. 아래 기본 질문을 지원자에게 맞게 다듬으세요.

[기본 질문]
%s

[지원자의 직전 답변]
%s

[지원자 이력서 요약]
%s

[이미 한 질문들]
%s

[재작성 규칙]
1. 지원자의 직전 답변을 자연스럽게 언급하되, 답변 속 1인칭 표현을 질문에 그대로 옮기지 말고 3인칭 관점으로 바꾸세요.
2. 이력서에 없는 내용을 "이력서에서 ~라고 하셨는데"처럼 단정하지 마세요. 이력서에 없는 주제라면 가정형 질문으로 바꾸세요.
3. 이미 한 질문들과 의미가 겹치지 않도록 다른 각도에서 질문하세요.
4. 반드시 정중한 한국어 의문형으로 끝내세요. (예: ~하셨나요?, ~말씀해 주시겠어요?)
5. 정확히 한 문장으로 작성하고, 예시 답변을 포함하지 마세요.

재작성한 질문만 출력하세요.`

// PersonalizeQuestion rewrites a retrieved bank question around the
// candidate's context. Fail-open: any failure returns the base question
// untouched, so personalization can never block the interview.
func (s *Interview) PersonalizeQuestion(ctx context.Context, base *domain.QuestionBank, lastAnswer, resume string, askedTexts []string) string {
	asked := "(없음)"
	if len(askedTexts) > 0 {
		asked = "- " + strings.Join(askedTexts, "\n- ")
	}
	prompt := fmt.Sprintf(personalizePromptTemplate,
		base.QuestionText,
		truncate(lastAnswer, maxFollowUpAnswerRunes),
		firstLines(resume, maxResumeLines),
		asked,
	)

	raw, err := s.LLM.Generate(ctx, prompt, GenerateOptions{Temperature: 0.5, MaxTokens: 256})
	if err != nil {
		s.Log.WithError(err).Warn("[GEN] Personalization failed, keeping base question")
		return base.QuestionText
	}

	rewritten := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "\"“”"))
	if utf8.RuneCountInString(rewritten) <= minQuestionRunes || !strings.Contains(rewritten, "?") {
		s.Log.Warn("[GEN] Personalized question failed validation, keeping base question")
		return base.QuestionText
	}
	return rewritten
}

const closingPromptTemplate = `당신은 한국어로 면접을 진행하는 전문 AI 면접관입니다. 면접이 모두 끝났고, 지원자가 마지막으로 아래와 같이 말했습니다.

[지원자의 마지막 발언]
%s

[지시사항]
1-2문장의 짧은 한국어 답변으로 마지막 발언에 호응하세요. 새로운 질문은 절대 하지 마세요. 답변만 출력하세요.`

// ClosingResponse builds the bounded farewell reply to the candidate's final
// remark. A trailing question mark is converted to a period (a question would
// wrongly invite further dialogue) and the fixed farewell is always appended.
func (s *Interview) ClosingResponse(ctx context.Context, finalRemark string) string {
	raw, err := s.LLM.Generate(ctx, fmt.Sprintf(closingPromptTemplate, truncate(finalRemark, maxFollowUpAnswerRunes)),
		GenerateOptions{Temperature: 0.5, MaxTokens: 160})
	if err != nil {
		s.Log.WithError(err).Warn("[GEN] Closing response generation failed, using farewell only")
		return FarewellSuffix
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		return FarewellSuffix
	}
	reply = strings.TrimRight(reply, " ")
	if strings.HasSuffix(reply, "?") {
		reply = strings.TrimSuffix(reply, "?") + "."
	}
	return reply + " " + FarewellSuffix
}
