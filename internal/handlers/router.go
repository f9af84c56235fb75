package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mishankov/taskhub/internal/handlers/middleware"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
	"github.com/mishankov/taskhub/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Origins the SPA may call the API from
	CORSOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	auth authService,
	userService userService,
	taskService taskService,
	l logger.Logger,
) http.Handler {
	requireAuth := middleware.RequireAuth(auth)
	optionalAuth := middleware.OptionalAuth(auth)
	withAuth := func(h http.Handler) http.Handler {
		return requireAuth(h)
	}

	api := http.NewServeMux()

	api.Handle("POST /user/register", handleRegister(auth, l))
	api.Handle("POST /user/login", handleLogin(auth, l))
	api.Handle("POST /user/logout", optionalAuth(handleLogout(auth)))
	api.Handle("POST /user/refresh-token", handleTokenRefresh(auth, l))
	api.Handle("POST /user/forgot-password", handleForgotPassword(auth, l))
	api.Handle("POST /user/reset-password/{userID}/{token}", handleResetPassword(auth, l))

	api.Handle("GET /user/me", withAuth(handleUserMe()))
	api.Handle("PUT /user/update", withAuth(handleUserUpdate(userService, l)))
	api.Handle("PUT /user/change-password", withAuth(handleChangePassword(userService, l)))

	api.Handle("POST /lists", withAuth(handleCreateList(taskService, l)))
	api.Handle("GET /lists", withAuth(handleListLists(taskService, l)))
	api.Handle("GET /lists/stats", withAuth(handleListStats(taskService, l)))
	api.Handle("GET /lists/{listID}", withAuth(handleGetList(taskService, l)))
	api.Handle("PUT /lists/{listID}", withAuth(handleUpdateList(taskService, l)))
	api.Handle("PATCH /lists/{listID}/archive", withAuth(handleArchiveList(taskService, l, true)))
	api.Handle("PATCH /lists/{listID}/unarchive", withAuth(handleArchiveList(taskService, l, false)))
	api.Handle("DELETE /lists/{listID}", withAuth(handleDeleteList(taskService, l)))
	api.Handle("GET /lists/{listID}/tasks", withAuth(handleListTasks(taskService, l)))

	api.Handle("POST /tasks", withAuth(handleCreateTask(taskService, l)))
	api.Handle("PATCH /tasks/bulk/complete", withAuth(handleBulkCompleteTasks(taskService, l)))
	api.Handle("DELETE /tasks/bulk", withAuth(handleBulkDeleteTasks(taskService, l)))
	api.Handle("GET /tasks/{taskID}", withAuth(handleGetTask(taskService, l)))
	api.Handle("PUT /tasks/{taskID}", withAuth(handleUpdateTask(taskService, l)))
	api.Handle("PATCH /tasks/{taskID}/toggle", withAuth(handleToggleTask(taskService, l)))
	api.Handle("PATCH /tasks/{taskID}/reorder", withAuth(handleReorderTask(taskService, l)))
	api.Handle("DELETE /tasks/{taskID}", withAuth(handleDeleteTask(taskService, l)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	handler := chain(root,
		middleware.Recovery(l),
		middleware.LoggerMiddleware(l),
		middleware.CORS(cfg.CORSOrigins),
	)

	return handler
}

type authService interface {
	// Register user and open a session for it
	// Has to return apperrors.ErrUserAlreadyExists if email or phone is taken
	Register(ctx context.Context, name string, email string, phone string, password string) (models.User, models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials on any credential failure
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Drop the stored refresh token, never fails
	Logout(ctx context.Context, userID uuid.UUID)

	// Rotate the token pair
	// Consumed, revoked or garbage tokens: apperrors.ErrTokenInvalid
	// Expired tokens: apperrors.ErrTokenExpired
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Start password recovery, generic nil for unknown emails
	ForgotPassword(ctx context.Context, email string) error

	// Finish password recovery with the mailed secret
	ResetPassword(ctx context.Context, userID uuid.UUID, secret string, newPassword string) error

	// Cookie plumbing
	SetTokenPair(w http.ResponseWriter, pair models.TokenPair)
	ClearTokenPair(w http.ResponseWriter)
	ReadRefreshToken(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd user.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current string, next string) error
}

type taskService interface {
	CreateList(ctx context.Context, userID uuid.UUID, title string, description string, color string) (models.TaskList, error)
	GetList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) (models.TaskList, error)
	ListLists(ctx context.Context, userID uuid.UUID, f repository.ListFilter) ([]models.TaskList, int64, error)
	UpdateList(ctx context.Context, listID uuid.UUID, userID uuid.UUID, upd repository.TaskListUpdate) (models.TaskList, error)
	SetListArchived(ctx context.Context, listID uuid.UUID, userID uuid.UUID, archived bool) (models.TaskList, error)
	DeleteList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (models.TaskListStats, error)

	CreateTask(ctx context.Context, listID uuid.UUID, userID uuid.UUID, text string, priority string, dueDate *time.Time) (models.Task, error)
	GetTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, listID uuid.UUID, userID uuid.UUID, f repository.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, upd repository.TaskUpdate) (models.Task, error)
	ToggleTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error)
	MoveTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, beforeID *uuid.UUID, afterID *uuid.UUID) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) error
	DeleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error)
	CompleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error)
}
