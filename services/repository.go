package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

// BankRepository serves the nearest-question oracle from the question bank
// table. Candidate rows are narrowed in SQL (exclusion set, optional category
// restriction) and ranked by cosine similarity against their stored
// embeddings.
type BankRepository struct {
	DB *gorm.DB
}

func NewBankRepository(db *gorm.DB) *BankRepository {
	return &BankRepository{DB: db}
}

func (r *BankRepository) Nearest(ctx context.Context, query []float32, excluded []uint, categories []string) (*domain.QuestionBank, error) {
	tx := r.DB.WithContext(ctx).Where("embedding IS NOT NULL")
	if len(excluded) > 0 {
		tx = tx.Where("id NOT IN ?", excluded)
	}
	if len(categories) > 0 {
		tx = tx.Where("category IN ?", categories)
	}

	var rows []domain.QuestionBank
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}

	var best *domain.QuestionBank
	bestSim := math.Inf(-1)
	for i := range rows {
		vec, err := DecodeEmbedding(*rows[i].Embedding)
		if err != nil || len(vec) != len(query) {
			continue
		}
		sim := CosineSimilarity(query, vec)
		if sim > bestSim {
			bestSim = sim
			best = &rows[i]
		}
	}
	return best, nil
}

// DecodeEmbedding parses a JSON-encoded vector as stored by the seeding
// pipeline.
func DecodeEmbedding(raw string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("invalid embedding: %w", err)
	}
	return vec, nil
}

func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
