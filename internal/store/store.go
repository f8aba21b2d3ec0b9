// Package store holds the narrow persistence collaborators the rest of the
// application depends on: credential records, the append-only chat
// transcript, and the append-only product catalog. All implementations are
// backed by gorm; consumers only see the interfaces.
package store

import (
	"context"

	"livecart/internal/models"
)

// CatalogEntry is an open-schema product payload as received from clients.
// The conventional keys ("name", "price", "thumbnail") get relational
// columns on persistence; everything else is preserved as JSON.
type CatalogEntry map[string]any

// CredentialStore owns user records and password verification.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	VerifyPassword(user *models.User, password string) bool
}

// MessageLog is the append-only chat transcript.
type MessageLog interface {
	Append(ctx context.Context, msg *models.ChatMessage) error
	ListAll(ctx context.Context) ([]models.ChatMessage, error)
}

// CatalogLog is the append-only product log.
type CatalogLog interface {
	EnsureSchema(ctx context.Context) error
	AppendBatch(ctx context.Context, items []CatalogEntry) error
}
