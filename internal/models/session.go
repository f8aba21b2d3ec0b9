package models

import "time"

// Session stores one authenticated browser session. ExpiresAt is an idle
// timeout renewed on every successful gate check; Counter is a per-session
// visit counter incremented on each protected page view.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"` // UUID
	UserID    uint      `gorm:"index;not null"`
	Counter   int       `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"index;not null"`
	CreatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// Active reports whether the session is still usable at the given time.
func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
