package domain

// QuestionBank is one bank item, consumed read-only. Embedding is the
// JSON-encoded vector produced by the same model used for query embedding.
type QuestionBank struct {
	ID           uint    `gorm:"primaryKey"`
	Category     string  `gorm:"size:100;not null;index"`
	SubCategory  *string `gorm:"size:100;index"`
	QuestionText string  `gorm:"type:text;not null"`
	ModelAnswer  *string `gorm:"type:text"`
	Embedding    *string `gorm:"type:longtext"`
}

// NextQuestion is what the selector hands back for one AI turn. A bank
// question carries its id; a synthetic one (self-intro, generated
// behavioral/personality, closing) has none and is only ever written to the
// transcript, never to the bank.
type NextQuestion struct {
	BankID      *uint
	Text        string
	Category    string
	SubCategory string
}

func FromBank(q *QuestionBank, text string) NextQuestion {
	id := q.ID
	sub := ""
	if q.SubCategory != nil {
		sub = *q.SubCategory
	}
	return NextQuestion{BankID: &id, Text: text, Category: q.Category, SubCategory: sub}
}

func Synthetic(text, category, subCategory string) NextQuestion {
	return NextQuestion{Text: text, Category: category, SubCategory: subCategory}
}

func (q NextQuestion) IsSynthetic() bool { return q.BankID == nil }
