package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lookjihoon/AI-Interview-System-V2/config"
	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

// GenerateOptions tune one LLM call. ForceJSON asks the provider for strict
// JSON output where the endpoint supports it.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
	ForceJSON   bool
}

// TextGenerator is the single contract the interview core has with an LLM.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Embedder turns text into the same vector space as the question bank.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QuestionRepository is the nearest-question oracle. A nil question with a
// nil error means the bank is exhausted for this session.
type QuestionRepository interface {
	Nearest(ctx context.Context, query []float32, excluded []uint, categories []string) (*domain.QuestionBank, error)
}

// Interview is the interviewer brain: question selection, answer scoring and
// report generation. Constructed once in main and shared read-only.
type Interview struct {
	DB        *gorm.DB
	LLM       TextGenerator
	Embedder  Embedder
	Questions QuestionRepository
	Guardrail *GuardrailPolicy
	Cfg       config.Interview
	Log       *logrus.Logger
}

func NewInterview(db *gorm.DB, llm TextGenerator, emb Embedder, repo QuestionRepository, cfg config.Interview, log *logrus.Logger) *Interview {
	return &Interview{
		DB:        db,
		LLM:       llm,
		Embedder:  emb,
		Questions: repo,
		Guardrail: NewGuardrailPolicy(),
		Cfg:       cfg,
		Log:       log,
	}
}
