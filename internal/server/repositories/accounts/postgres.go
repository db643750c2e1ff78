package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/dbx"
	"github.com/yapplr/yapplr/internal/server/models"
)

const selectColumns = `id, email, username, password_hash, bio, birthday, pronouns, tagline, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, username, password_hash, bio, birthday, pronouns, tagline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var birthday sql.NullTime
	if a.Birthday != nil {
		birthday = sql.NullTime{Time: *a.Birthday, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Username, a.PasswordHash, a.Bio, birthday, a.Pronouns, a.Tagline, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE username = $1`, username)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	var birthday sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.Bio, &birthday,
		&a.Pronouns, &a.Tagline, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if birthday.Valid {
		b := birthday.Time
		a.Birthday = &b
	}
	return a, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email)
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) error {
	var locked string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, hash string, updatedAt time.Time) error {
	query := `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, hash, updatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
