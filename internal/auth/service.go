// Package auth implements the session authenticator: it validates
// credentials against the credential store, issues and renews cookie
// sessions, and owns the session records outright. Other components only
// ever read the username attached to a session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"livecart/internal/models"
	"livecart/internal/store"
	"livecart/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tokenTTL is the absolute lifetime of the signed cookie. The effective
// session lifetime is the much shorter idle timeout on the session row.
const tokenTTL = 24 * time.Hour

// Service is the session authenticator.
type Service struct {
	users   store.CredentialStore
	db      *gorm.DB
	secret  string
	idleTTL time.Duration
}

func NewService(users store.CredentialStore, db *gorm.DB, secret string, idleTTL time.Duration) *Service {
	if idleTTL <= 0 {
		idleTTL = time.Minute
	}
	return &Service{
		users:   users,
		db:      db,
		secret:  secret,
		idleTTL: idleTTL,
	}
}

// Register creates a new user. It fails with ErrDuplicateUser when the
// username is already taken; the existing record is left untouched.
func (s *Service) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("register: %w", ErrInvalidCredentials)
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("register lookup: %w", err)
	}

	hash, err := store.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates the credentials and opens a new session with a zeroed
// visit counter. The returned token goes into the session cookie.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("login lookup: %w", err)
	}

	if !s.users.VerifyPassword(user, password) {
		return nil, "", ErrInvalidCredentials
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Counter:   0,
		ExpiresAt: time.Now().Add(s.idleTTL),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	token, err := util.GenerateToken(s.secret, session.ID, tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}
	return session, token, nil
}

// SessionFromToken resolves a cookie token to a live session and renews
// its idle timeout. Any failure collapses into ErrNotAuthenticated so
// callers can answer with a redirect rather than an error page.
func (s *Service) SessionFromToken(ctx context.Context, token string) (*models.Session, error) {
	claims, err := util.ParseToken(s.secret, token)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", claims.SessionID).Error; err != nil {
		return nil, ErrNotAuthenticated
	}

	now := time.Now()
	if !session.Active(now) {
		return nil, ErrNotAuthenticated
	}

	// renew the idle timeout on every successful gate check
	session.ExpiresAt = now.Add(s.idleTTL)
	if err := s.db.WithContext(ctx).Model(&session).
		Update("expires_at", session.ExpiresAt).Error; err != nil {
		return nil, fmt.Errorf("renew session: %w", err)
	}
	return &session, nil
}

// VisitProtectedPage increments the session's visit counter. The counter
// is a demonstration value, not a business invariant.
func (s *Service) VisitProtectedPage(ctx context.Context, session *models.Session) error {
	session.Counter++
	if err := s.db.WithContext(ctx).Model(session).
		Update("counter", session.Counter).Error; err != nil {
		return fmt.Errorf("increment visit counter: %w", err)
	}
	return nil
}

// UserForSession loads the user record behind a session.
func (s *Service) UserForSession(ctx context.Context, session *models.Session) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, session.UserID).Error; err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return &user, nil
}

// Logout destroys the session unconditionally. Destroying a session that
// does not exist is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.db.WithContext(ctx).
		Delete(&models.Session{}, "id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
