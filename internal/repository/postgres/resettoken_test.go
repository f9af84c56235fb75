package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/testutil"
)

func Test_ResetTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx) models.User {
		t.Helper()
		user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "User", "user@example.com", "9876543210", "hash")
		require.NoError(t, err)
		return user
	}

	t.Run("create and get active", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ResetTokenRepo{DB: tx}
			user := createUser(t, tx)

			created, err := r.Create(t.Context(), user.ID, "hash-1")
			require.NoError(t, err)
			assert.Equal(t, user.ID, created.UserID)
			assert.Equal(t, "hash-1", created.TokenHash)

			got, err := r.GetActive(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("at most one token per user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ResetTokenRepo{DB: tx}
			user := createUser(t, tx)

			first, err := r.Create(t.Context(), user.ID, "hash-1")
			require.NoError(t, err)

			second, err := r.Create(t.Context(), user.ID, "hash-2")
			require.NoError(t, err)
			assert.NotEqual(t, first.ID, second.ID)

			// Only the newest one remains
			got, err := r.GetActive(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, second.ID, got.ID)
			assert.Equal(t, "hash-2", got.TokenHash)
		})
	})

	t.Run("no token means invalid", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ResetTokenRepo{DB: tx}
			user := createUser(t, tx)

			_, err := r.GetActive(t.Context(), user.ID)
			assert.ErrorIs(t, err, apperrors.ErrResetTokenInvalid)
		})
	})

	t.Run("expired token is purged and invalid", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ResetTokenRepo{DB: tx}
			user := createUser(t, tx)

			created, err := r.Create(t.Context(), user.ID, "hash-1")
			require.NoError(t, err)

			// Age the row past the TTL
			_, err = tx.Exec(t.Context(),
				"UPDATE password_reset_tokens SET created_at = now() - INTERVAL '2 hours' WHERE id = $1",
				created.ID)
			require.NoError(t, err)

			_, err = r.GetActive(t.Context(), user.ID)
			assert.ErrorIs(t, err, apperrors.ErrResetTokenInvalid)

			// The purge removed the row entirely
			var count int
			err = tx.QueryRow(t.Context(), "SELECT count(*) FROM password_reset_tokens WHERE user_id = $1", user.ID).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ResetTokenRepo{DB: tx}
			user := createUser(t, tx)

			created, err := r.Create(t.Context(), user.ID, "hash-1")
			require.NoError(t, err)

			require.NoError(t, r.Delete(t.Context(), created.ID))

			_, err = r.GetActive(t.Context(), user.ID)
			assert.ErrorIs(t, err, apperrors.ErrResetTokenInvalid)
		})
	})
}
