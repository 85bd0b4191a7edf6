package repository

import (
	"fmt"

	"gorm.io/gorm"

	"studydesk/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(message *model.ChatMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns the full thread in chronological order. The id
// tie-break keeps a user turn ahead of its answer when both land in the
// same timestamp tick.
func (r *ChatRepository) ListByDocumentID(documentID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("document_id = ?", documentID).Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	return messages, nil
}
