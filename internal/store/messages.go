package store

import (
	"context"
	"fmt"

	"livecart/internal/models"

	"gorm.io/gorm"
)

// GormMessageLog implements MessageLog on a gorm database.
type GormMessageLog struct {
	DB *gorm.DB
}

func NewMessageLog(db *gorm.DB) *GormMessageLog {
	return &GormMessageLog{DB: db}
}

// Append stores one chat message. The timestamp is assigned by the
// database layer on insert.
func (l *GormMessageLog) Append(ctx context.Context, msg *models.ChatMessage) error {
	if err := l.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// ListAll returns the full transcript in insertion order.
func (l *GormMessageLog) ListAll(ctx context.Context) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := l.DB.WithContext(ctx).Order("id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}
