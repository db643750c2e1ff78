package models

import "time"

// PasswordResetToken is a single-use credential authorizing one password
// change. A token is active while Used is false and ExpiresAt is in the future.
type PasswordResetToken struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Active reports whether the token can still be redeemed at now.
func (t *PasswordResetToken) Active(now time.Time) bool {
	return !t.Used && t.ExpiresAt.After(now)
}
