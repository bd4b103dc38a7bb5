package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardrailShortAnswer(t *testing.T) {
	policy := NewGuardrailPolicy()

	ev, hit := policy.Evaluate("네, 그렇습니다.")
	require.True(t, hit)
	assert.Equal(t, GuardrailScore, ev.Score)
	assert.NotEmpty(t, ev.Feedback)
	assert.NotEmpty(t, ev.FollowUpQuestion)
}

func TestGuardrailGiveUpPhrases(t *testing.T) {
	policy := NewGuardrailPolicy()

	// long enough to pass the length rule, but still a give-up answer
	answer := "죄송하지만 그 부분은 제가 전혀 경험해 본 적이 없어서 정말 모르겠습니다. 다른 질문을 부탁드립니다."
	ev, hit := policy.Evaluate(answer)
	require.True(t, hit)
	assert.Equal(t, GuardrailScore, ev.Score)
}

func TestGuardrailLegacyFailSafe(t *testing.T) {
	policy := NewGuardrailPolicy()

	answer := "그 주제에 관해서는 지금 상황에서 따로 드릴 말씀이 없는 것 같습니다. 양해 부탁드립니다."
	ev, hit := policy.Evaluate(answer)
	require.True(t, hit)
	assert.Equal(t, GuardrailScore, ev.Score)
	// the legacy rule carries its own payload
	assert.Contains(t, ev.Feedback, "유보")
}

func TestGuardrailEnglishWordsMatchWholeWordsOnly(t *testing.T) {
	policy := NewGuardrailPolicy()

	// "passionate" and "skipped" contain give-up words as substrings but are
	// parts of a real answer
	answer := "I am passionate about backend engineering and never skipped code review while cutting API latency by forty percent."
	ev, hit := policy.Evaluate(answer)
	assert.False(t, hit)
	assert.Nil(t, ev)

	// a standalone "pass" is still a give-up
	giveUp := "죄송하지만 이번 질문은 pass 하고 다음 질문으로 넘어가고 싶습니다. 양해 부탁드립니다."
	ev, hit = policy.Evaluate(giveUp)
	require.True(t, hit)
	assert.Equal(t, GuardrailScore, ev.Score)
}

func TestGuardrailPassesSubstantiveAnswer(t *testing.T) {
	policy := NewGuardrailPolicy()

	answer := strings.Repeat("저는 지난 프로젝트에서 검색 기능의 응답 속도를 40% 개선한 경험이 있습니다. ", 2)
	ev, hit := policy.Evaluate(answer)
	assert.False(t, hit)
	assert.Nil(t, ev)
}

func TestGuardrailBoundaryLength(t *testing.T) {
	policy := NewGuardrailPolicy()

	// exactly 29 runes → blocked, 30 runes → passes
	base := strings.Repeat("가", 29)
	_, hit := policy.Evaluate(base)
	assert.True(t, hit)

	_, hit = policy.Evaluate(base + "가")
	assert.False(t, hit)
}
