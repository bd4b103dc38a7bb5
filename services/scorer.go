package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

const scoringPromptTemplate = `당신은 한국어로 기술 면접을 진행하는 전문 AI 면접관입니다.

[직무 맥락]
%s

[면접 질문]
%s

[지원자 답변]
%s

[채점 기준]
- 90-100: 구체적인 사례와 수치가 있고 STAR(상황-과제-행동-결과) 구조가 명확한 답변
- 70-89: 관련 경험을 설명했지만 수치나 결과가 부족한 답변
- 40-69: 일반론 위주이거나 질문과 부분적으로만 관련된 답변
- 0-39: 질문과 무관하거나 내용이 거의 없는 답변
- 감점: 질문 회피, 근거 없는 주장, 동일 내용 반복

[지시사항]
1. 위 답변을 평가하고 점수(0-100), 피드백, 후속 질문을 생성하세요.
2. 답변이 불충분한 경우, 피드백에서 정중하게 격려하세요.
3. 모든 텍스트는 반드시 자연스러운 비즈니스 한국어로 작성하세요. 영어를 절대 사용하지 마세요.
4. 아래 JSON 형식만 출력하세요. JSON 이외의 텍스트는 절대 출력하지 마세요.

{"score": <0-100 사이 정수>, "feedback": "<2-3문장의 한국어 피드백>", "follow_up_question": "<한국어 후속 질문>"}`

// Fallback evaluations. Distinguished only so logs show which failure class
// produced them; both keep the interview moving.
var (
	fallbackEvalParse = domain.Evaluation{
		Score:            50,
		Feedback:         "답변을 잘 받았습니다. 다음 질문으로 넘어가겠습니다.",
		FollowUpQuestion: "이 주제에 대해 경험하신 것을 좀 더 구체적으로 설명해 주시겠어요?",
	}
	fallbackEvalError = domain.Evaluation{
		Score:            50,
		Feedback:         "답변 감사합니다. 괜찮으시다면 좀 더 자세히 설명해 주세요.",
		FollowUpQuestion: "관련하여 실무에서 겪으신 사례가 있으신가요?",
	}
)

// EvaluateAnswer scores one answer. It never fails: guardrails short-circuit
// degenerate answers before any model call, and every LLM or parse failure
// degrades to a fixed evaluation.
func (s *Interview) EvaluateAnswer(ctx context.Context, questionText, answer, jobContext string) domain.Evaluation {
	if ev, hit := s.Guardrail.Evaluate(answer); hit {
		s.Log.WithField("score", ev.Score).Info("[EVAL] Guardrail short-circuit, skipping LLM")
		return *ev
	}

	prompt := fmt.Sprintf(scoringPromptTemplate, truncate(jobContext, 500), questionText, answer)
	s.Log.WithField("answer_len", len(answer)).Info("[EVAL] Evaluating answer")

	raw, err := s.LLM.Generate(ctx, prompt, GenerateOptions{Temperature: 0.1, MaxTokens: 768, ForceJSON: true})
	if err != nil {
		s.Log.WithError(err).Warn("[EVAL] LLM call failed, using fallback evaluation")
		return fallbackEvalError
	}

	ev, err := parseEvaluation(raw)
	if err != nil {
		s.Log.WithError(err).WithField("response", truncate(raw, 200)).
			Warn("[EVAL] Could not parse LLM response, using fallback evaluation")
		return fallbackEvalParse
	}

	s.Log.WithField("score", ev.Score).Info("[EVAL] Answer scored")
	return ev
}

func parseEvaluation(raw string) (domain.Evaluation, error) {
	cleaned := CleanJSONResponse(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return domain.Evaluation{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	for _, key := range []string{"score", "feedback", "follow_up_question"} {
		if _, ok := fields[key]; !ok {
			return domain.Evaluation{}, fmt.Errorf("missing required field: %s", key)
		}
	}

	var ev domain.Evaluation
	if err := json.Unmarshal([]byte(cleaned), &ev); err != nil {
		// score sometimes comes back as "85" or 85.0
		var loose struct {
			Score            any    `json:"score"`
			Feedback         string `json:"feedback"`
			FollowUpQuestion string `json:"follow_up_question"`
		}
		if err2 := json.Unmarshal([]byte(cleaned), &loose); err2 != nil {
			return domain.Evaluation{}, fmt.Errorf("failed to parse evaluation: %w", err)
		}
		f, ok := looseScore(loose.Score)
		if !ok {
			return domain.Evaluation{}, fmt.Errorf("invalid score value %v", loose.Score)
		}
		ev = domain.Evaluation{Score: int(f), Feedback: loose.Feedback, FollowUpQuestion: loose.FollowUpQuestion}
	}

	ev.Score = ClampScore(float64(ev.Score))
	return ev, nil
}

// looseScore reads a score the model typed as a number or as a quoted
// numeric string.
func looseScore(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ClampScore casts to int and bounds the result into [0,100].
func ClampScore(f float64) int {
	n := int(f)
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// CleanJSONResponse strips markdown code fences and any prose around the
// outermost JSON object.
func CleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}

	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
