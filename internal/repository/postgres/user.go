package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, name, email, phone, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at, name, email, phone, password_hash, refresh_token
`

func (r *UserRepo) CreateUser(ctx context.Context, name string, email string, phone string, hashedPassword string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), name, email, phone, hashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, updated_at, name, email, phone, password_hash, refresh_token
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, updated_at, name, email, phone, password_hash, refresh_token
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmailOrPhone = `-- name: GetUserByEmailOrPhone
SELECT id, created_at, updated_at, name, email, phone, password_hash, refresh_token
FROM users
WHERE email = $1 OR phone = $1
`

func (r *UserRepo) GetUserByEmailOrPhone(ctx context.Context, login string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmailOrPhone, login)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET name = COALESCE($2, name),
    email = COALESCE($3, email),
    phone = COALESCE($4, phone),
    updated_at = now()
WHERE id = $1
RETURNING id, created_at, updated_at, name, email, phone, password_hash, refresh_token
`

func (r *UserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, upd repository.UserUpdate) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser, userID, upd.Name, upd.Email, upd.Phone)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, userID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// Swap the slot only if it still holds the expected value.
// Single statement compare-and-swap: two concurrent refreshes with the
// same token cannot both succeed.
const swapRefreshToken = `-- name: SwapRefreshToken
UPDATE users
SET refresh_token = $3
WHERE id = $1 AND refresh_token = $2
`

func (r *UserRepo) SwapRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error {
	tag, err := r.DB.Exec(ctx, swapRefreshToken, userID, old, new)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRefreshTokenMismatch
	}

	return nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.Phone, &u.HashedPassword, &u.RefreshToken)
	return u, err
}
