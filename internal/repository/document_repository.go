package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studydesk/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// UpdateSummary attaches the generated summary to an existing document.
// Content is never touched after creation.
func (r *DocumentRepository) UpdateSummary(id uint, summary string) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Update("summary", summary).Error; err != nil {
		return fmt.Errorf("update document summary failed: %w", err)
	}
	return nil
}
