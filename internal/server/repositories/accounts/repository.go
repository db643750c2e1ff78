// Package accounts declares the account store used by the auth service and
// provides its PostgreSQL implementation.
package accounts

import (
	"context"
	"time"

	"github.com/yapplr/yapplr/internal/server/models"
)

// Repository defines account persistence. Lookups return common.ErrorNotFound
// when nothing matches; Create returns common.ErrConflict when the email or
// username is already taken, as enforced by unique indexes.
type Repository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// LockForUpdate takes a row lock on the account for the rest of the
	// surrounding transaction.
	LockForUpdate(ctx context.Context, id string) error

	UpdatePasswordHash(ctx context.Context, id string, hash string, updatedAt time.Time) error
}
