package store

import (
	"context"
	"fmt"

	"livecart/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GormCredentialStore implements CredentialStore on a gorm database.
type GormCredentialStore struct {
	DB *gorm.DB
}

func NewCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{DB: db}
}

// FindByUsername looks up a user by exact username. Returns
// gorm.ErrRecordNotFound (wrapped) when no such user exists.
func (s *GormCredentialStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &user, nil
}

func (s *GormCredentialStore) Create(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return nil
}

// VerifyPassword checks a plaintext password against the stored bcrypt hash.
func (s *GormCredentialStore) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// HashPassword produces the bcrypt hash stored on new users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
