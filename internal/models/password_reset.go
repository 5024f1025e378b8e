package models

import "time"

// PasswordReset is a single-use password recovery request. Only the SHA-256
// digest of the reset token is stored; the raw token leaves the process once,
// inside the email sent to the user.
type PasswordReset struct {
	Base
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Usable reports whether the request can still redeem a password reset:
// never consumed and not yet expired.
func (p *PasswordReset) Usable(now time.Time) bool {
	return p.UsedAt == nil && p.ExpiresAt.After(now)
}
