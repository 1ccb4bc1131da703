package postgres

import (
	"context"

	"flow-chat-service/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// RecentByFriendship returns the newest messages first, bounded by limit.
func (r *MessageRepository) RecentByFriendship(ctx context.Context, friendshipID string, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("friendship_id = ?", friendshipID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// SearchByContent does a case-insensitive substring match over content,
// newest first, bounded by limit. Callers are expected to reject blank
// queries before getting here.
func (r *MessageRepository) SearchByContent(ctx context.Context, friendshipID, q string, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("friendship_id = ? AND lower(content) LIKE lower(?)", friendshipID, "%"+q+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
