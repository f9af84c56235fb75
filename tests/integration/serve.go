package integration

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/mishankov/taskhub/internal/handlers"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/repository/postgres"
	"github.com/mishankov/taskhub/internal/service/auth"
	"github.com/mishankov/taskhub/internal/service/auth/tokenmanager"
	"github.com/mishankov/taskhub/internal/service/task"
	"github.com/mishankov/taskhub/internal/service/user"
	"github.com/mishankov/taskhub/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
	TaskService *task.TaskService
}

// Run the full production router on top of a db transaction and
// roll everything back when fn returns
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	t.Helper()

	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tm, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		})
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tm, storage.User(), storage.ResetToken(), nil, logger.NewNoOpLogger())
		require.NoError(t, err, "auth service starting error")

		us := user.NewService(storage.User(), nil)
		ts := task.NewService(storage.TaskList(), storage.Task())

		router := handlers.NewRouter(handlers.RouterConfig{}, as, us, ts, logger.NewNoOpLogger())

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			UserService: us,
			TaskService: ts,
		})
	})
}
