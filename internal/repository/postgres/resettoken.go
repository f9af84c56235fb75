package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
)

// Reset tokens live for one hour after creation.
// The repo purges stale rows itself, callers never see an expired token.
const resetTokenTTL = "1 hour"

type ResetTokenRepo struct {
	DB DBTX
}

const deleteUserResetTokens = `-- name: DeleteUserResetTokens
DELETE FROM password_reset_tokens
WHERE user_id = $1
`

const createResetToken = `-- name: CreateResetToken
INSERT INTO password_reset_tokens (id, user_id, token_hash)
VALUES ($1, $2, $3)
RETURNING id, user_id, token_hash, created_at
`

// Create token for user
// Prior tokens for the same user are dropped first, so at most one is active
func (r *ResetTokenRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string) (models.PasswordResetToken, error) {
	var token models.PasswordResetToken

	if _, err := r.DB.Exec(ctx, deleteUserResetTokens, userID); err != nil {
		return token, fmt.Errorf("db error: %w", err)
	}

	rows, _ := r.DB.Query(ctx, createResetToken, uuid.New(), userID, tokenHash)
	token, err := pgx.CollectOneRow(rows, rowToResetToken)
	if err != nil {
		return token, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

const purgeExpiredResetTokens = `-- name: PurgeExpiredResetTokens
DELETE FROM password_reset_tokens
WHERE created_at < now() - INTERVAL '` + resetTokenTTL + `'
`

const getActiveResetToken = `-- name: GetActiveResetToken
SELECT id, user_id, token_hash, created_at
FROM password_reset_tokens
WHERE user_id = $1 AND created_at >= now() - INTERVAL '` + resetTokenTTL + `'
`

func (r *ResetTokenRepo) GetActive(ctx context.Context, userID uuid.UUID) (models.PasswordResetToken, error) {
	// Expired rows are dead weight, drop them while we are here
	if _, err := r.DB.Exec(ctx, purgeExpiredResetTokens); err != nil {
		return models.PasswordResetToken{}, fmt.Errorf("db error: %w", err)
	}

	rows, _ := r.DB.Query(ctx, getActiveResetToken, userID)
	token, err := pgx.CollectOneRow(rows, rowToResetToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrResetTokenInvalid
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const deleteResetToken = `-- name: DeleteResetToken
DELETE FROM password_reset_tokens
WHERE id = $1
`

func (r *ResetTokenRepo) Delete(ctx context.Context, tokenID uuid.UUID) error {
	if _, err := r.DB.Exec(ctx, deleteResetToken, tokenID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func rowToResetToken(row pgx.CollectableRow) (models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt)
	return t, err
}
