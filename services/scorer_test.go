package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/lookjihoon/AI-Interview-System-V2/config"
)

type stubLLM struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newTestInterview(llm TextGenerator) *Interview {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Interview{
		LLM:       llm,
		Guardrail: NewGuardrailPolicy(),
		Cfg:       config.DefaultInterview(),
		Log:       log,
	}
}

const substantiveAnswer = "저는 지난 프로젝트에서 대용량 로그 파이프라인을 개선하여 처리 지연을 절반으로 줄인 경험이 있습니다."

func TestEvaluateAnswerParsesValidResponse(t *testing.T) {
	llm := &stubLLM{response: `{"score": 85, "feedback": "좋은 답변입니다.", "follow_up_question": "추가로 설명해 주시겠어요?"}`}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "직무 맥락")
	assert.Equal(t, 85, ev.Score)
	assert.Equal(t, "좋은 답변입니다.", ev.Feedback)
	assert.Equal(t, "추가로 설명해 주시겠어요?", ev.FollowUpQuestion)
}

func TestEvaluateAnswerClampsScore(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"score": 150, "feedback": "f", "follow_up_question": "q"}`, 100},
		{`{"score": -10, "feedback": "f", "follow_up_question": "q"}`, 0},
		{`{"score": 100, "feedback": "f", "follow_up_question": "q"}`, 100},
	}
	for _, tc := range tests {
		svc := newTestInterview(&stubLLM{response: tc.raw})
		ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
		assert.Equal(t, tc.want, ev.Score, tc.raw)
	}
}

func TestEvaluateAnswerStripsMarkdownFences(t *testing.T) {
	llm := &stubLLM{response: "```json\n{\"score\": 70, \"feedback\": \"f\", \"follow_up_question\": \"q\"}\n```"}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, 70, ev.Score)
}

func TestEvaluateAnswerMissingKeyFallsBack(t *testing.T) {
	llm := &stubLLM{response: `{"score": 90, "feedback": "f"}`}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, fallbackEvalParse, ev)
}

func TestEvaluateAnswerGarbageFallsBack(t *testing.T) {
	llm := &stubLLM{response: "오늘 날씨가 좋네요."}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, fallbackEvalParse, ev)
}

func TestEvaluateAnswerLLMErrorFallsBack(t *testing.T) {
	llm := &stubLLM{err: errors.New("timeout")}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, fallbackEvalError, ev)
}

func TestEvaluateAnswerGuardrailSkipsLLM(t *testing.T) {
	llm := &stubLLM{response: `{"score": 95, "feedback": "f", "follow_up_question": "q"}`}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", "짧음", "")
	assert.Equal(t, GuardrailScore, ev.Score)
	assert.Zero(t, llm.calls, "guardrail answers must never reach the LLM")
}

func TestEvaluateAnswerFloatScore(t *testing.T) {
	llm := &stubLLM{response: `{"score": 77.5, "feedback": "f", "follow_up_question": "q"}`}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, 77, ev.Score)
}

func TestEvaluateAnswerQuotedScore(t *testing.T) {
	llm := &stubLLM{response: `{"score": "85", "feedback": "f", "follow_up_question": "q"}`}
	svc := newTestInterview(llm)

	ev := svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, 85, ev.Score)

	svc = newTestInterview(&stubLLM{response: `{"score": "높음", "feedback": "f", "follow_up_question": "q"}`})
	ev = svc.EvaluateAnswer(context.Background(), "질문", substantiveAnswer, "")
	assert.Equal(t, fallbackEvalParse, ev)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 57, ClampScore(57.9))
	assert.Equal(t, 100, ClampScore(240))
}

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSONResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSONResponse("물론입니다! {\"a\":1} 입니다."))
	assert.Equal(t, `{"a":1}`, CleanJSONResponse(`{"a":1}`))
}
