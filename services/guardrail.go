package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

// GuardrailScore is the fixed floor applied to degenerate answers. The LLM
// cannot be trusted not to score vacuous answers generously, so these rules
// run before any model call and their verdict is final.
const GuardrailScore = 15

const minAnswerRunes = 30

// GuardrailRule inspects an answer and either passes (nil) or returns a
// terminal fixed evaluation.
type GuardrailRule struct {
	Name  string
	Check func(answer string) *domain.Evaluation
}

// GuardrailPolicy evaluates rules in a fixed priority order. The hard rule
// and the legacy fail-safe keep separate keyword lists and payloads: they
// were added at different times against different false-negative patterns in
// model scoring, and both still catch answers the other misses.
type GuardrailPolicy struct {
	rules []GuardrailRule
}

var hardGiveUpPhrases = []string{
	"모르겠습니다", "모르겠어요", "잘 모르겠", "패스할게요", "넘어가 주세요",
	"i don't know",
}

// hardGiveUpWords match whole words only, so "passionate" or "skipped"
// inside a substantive answer never trips the rule.
var hardGiveUpWords = []string{"idk", "pass", "skip"}

var legacyGiveUpPhrases = []string{
	"드릴 말씀이 없", "대답하지 않겠", "대답할 수 없", "할 말이 없습니다", "no comment",
}

func NewGuardrailPolicy() *GuardrailPolicy {
	return &GuardrailPolicy{rules: []GuardrailRule{
		{Name: "hard", Check: hardGuardrail},
		{Name: "legacy_failsafe", Check: legacyFailSafe},
	}}
}

// Evaluate runs the rules in order. The second return value reports whether
// any rule fired.
func (p *GuardrailPolicy) Evaluate(answer string) (*domain.Evaluation, bool) {
	for _, r := range p.rules {
		if ev := r.Check(answer); ev != nil {
			return ev, true
		}
	}
	return nil, false
}

func hardGuardrail(answer string) *domain.Evaluation {
	trimmed := strings.TrimSpace(answer)
	lowered := strings.ToLower(trimmed)

	tooShort := utf8.RuneCountInString(trimmed) < minAnswerRunes
	gaveUp := false
	for _, phrase := range hardGiveUpPhrases {
		if strings.Contains(lowered, phrase) {
			gaveUp = true
			break
		}
	}
	if !gaveUp {
		gaveUp = containsGiveUpWord(lowered)
	}
	if !tooShort && !gaveUp {
		return nil
	}
	return &domain.Evaluation{
		Score:            GuardrailScore,
		Feedback:         "답변이 충분하지 않았습니다. 짧은 답변이나 포기성 답변은 평가에 반영되기 어렵습니다. 다음 질문에서는 구체적인 경험을 들어 설명해 주세요.",
		FollowUpQuestion: "편하게 생각나는 경험부터 말씀해 주시겠어요?",
	}
}

func containsGiveUpWord(lowered string) bool {
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, g := range hardGiveUpWords {
			if w == g {
				return true
			}
		}
	}
	return false
}

func legacyFailSafe(answer string) *domain.Evaluation {
	lowered := strings.ToLower(strings.TrimSpace(answer))
	for _, phrase := range legacyGiveUpPhrases {
		if strings.Contains(lowered, phrase) {
			return &domain.Evaluation{
				Score:            GuardrailScore,
				Feedback:         "답변을 확인했습니다. 답변을 유보하신 것으로 보입니다. 부담 갖지 마시고 다음 질문에 임해 주세요.",
				FollowUpQuestion: "그럼 다음 질문으로 넘어가겠습니다.",
			}
		}
	}
	return nil
}
