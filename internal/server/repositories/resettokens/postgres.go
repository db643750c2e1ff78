package resettokens

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

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, account_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.AccountID, t.Token, t.ExpiresAt, t.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, account_id, token, expires_at, used, used_at, created_at
		FROM password_reset_tokens
		WHERE token = $1 AND used = FALSE AND expires_at > $2
		FOR UPDATE
	`
	t, err := scanToken(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*models.PasswordResetToken, error) {
	query := `
		SELECT id, account_id, token, expires_at, used, used_at, created_at
		FROM password_reset_tokens
		WHERE account_id = $1 AND used = FALSE AND expires_at > $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []*models.PasswordResetToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

func (r *PostgresRepository) InvalidateForAccount(ctx context.Context, accountID string, now time.Time) (int64, error) {
	query := `
		UPDATE password_reset_tokens SET used = TRUE, used_at = $2
		WHERE account_id = $1 AND used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, accountID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE password_reset_tokens SET used = TRUE, used_at = $2
		WHERE id = $1 AND used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, id, now)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (*models.PasswordResetToken, error) {
	t := &models.PasswordResetToken{}
	var usedAt sql.NullTime
	if err := s.Scan(&t.ID, &t.AccountID, &t.Token, &t.ExpiresAt, &t.Used, &usedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return t, nil
}
