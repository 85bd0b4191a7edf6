package repository

import (
	"fmt"

	"gorm.io/gorm"

	"studydesk/internal/model"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// CreateBatch inserts one generated quiz in a single batch.
func (r *QuestionRepository) CreateBatch(questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := r.db.Create(&questions).Error; err != nil {
		return fmt.Errorf("create questions batch failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns the stored quiz in insertion order.
func (r *QuestionRepository) ListByDocumentID(documentID uint) ([]model.Question, error) {
	var questions []model.Question
	if err := r.db.Where("document_id = ?", documentID).Order("id ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list questions failed: %w", err)
	}
	return questions, nil
}
