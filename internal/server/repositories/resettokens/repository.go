// Package resettokens declares the password reset token store and provides
// its PostgreSQL implementation.
package resettokens

import (
	"context"
	"time"

	"github.com/yapplr/yapplr/internal/server/models"
)

// Repository defines reset token persistence. "Active" always means
// used = false and expires_at > now, evaluated at read time.
type Repository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// FindActiveByToken returns the active token with the exact value, locking
	// its row for the surrounding transaction, or common.ErrorNotFound.
	FindActiveByToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)

	FindActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*models.PasswordResetToken, error)

	// InvalidateForAccount marks every unused token of the account used and
	// returns how many rows changed.
	InvalidateForAccount(ctx context.Context, accountID string, now time.Time) (int64, error)

	// MarkUsed consumes one token. It returns common.ErrorNotFound when the
	// token is unknown or was already used.
	MarkUsed(ctx context.Context, id string, now time.Time) error
}
