package models

import "time"

// ChatMessage is one append-only chat transcript entry. CreatedAt is
// assigned at persistence time and doubles as the message timestamp.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Author    string    `gorm:"size:64" json:"author"`
	Content   string    `gorm:"size:2048" json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}
