package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mishankov/taskhub/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with already hashed password
	// If user with the email or phone exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, phone string, hashedPassword string) (models.User, error)

	// Lookups
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByEmailOrPhone(ctx context.Context, login string) (models.User, error)

	// Partial profile update: nil fields stay unchanged
	// Unique conflicts map to apperrors.ErrUserAlreadyExists
	UpdateUser(ctx context.Context, userID uuid.UUID, upd UserUpdate) (models.User, error)

	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Overwrite the single refresh token slot, nil revokes the session
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// Replace the slot only if it still holds 'old'
	// Returns apperrors.ErrRefreshTokenMismatch if the slot changed in between
	SwapRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error
}

type UserUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// PasswordResetToken repository interface
// The store owns the 1 hour TTL: expired rows are purged on access and
// never returned
type ResetTokenRepo interface {
	// Create token for user, dropping any previous tokens first
	// So there is at most one active token per user
	Create(ctx context.Context, userID uuid.UUID, tokenHash string) (models.PasswordResetToken, error)

	// Return the active (not expired) token for user
	// If absent must return apperrors.ErrResetTokenInvalid
	GetActive(ctx context.Context, userID uuid.UUID) (models.PasswordResetToken, error)

	Delete(ctx context.Context, tokenID uuid.UUID) error
}

type ListFilter struct {
	Search   string
	Archived bool
	Page     int
	Limit    int
}

// TaskList repository interface
type TaskListRepo interface {
	CreateList(ctx context.Context, list models.TaskList) (models.TaskList, error)

	// Scoped lookups: a list is visible to its owner only
	// If not found (or owned by someone else) must return apperrors.ErrListNotFound
	GetList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) (models.TaskList, error)
	ListLists(ctx context.Context, userID uuid.UUID, f ListFilter) ([]models.TaskList, int64, error)

	UpdateList(ctx context.Context, listID uuid.UUID, userID uuid.UUID, upd TaskListUpdate) (models.TaskList, error)
	SetArchived(ctx context.Context, listID uuid.UUID, userID uuid.UUID, archived bool) (models.TaskList, error)
	DeleteList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) error

	Stats(ctx context.Context, userID uuid.UUID) (models.TaskListStats, error)
}

type TaskListUpdate struct {
	Title       *string
	Description *string
	Color       *string
}

type TaskFilter struct {
	Completed *bool
	Priority  string
}

// Task repository interface
type TaskRepo interface {
	// Create task at the end of the list (position = max + 1)
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	GetTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error)

	// Tasks of a list ordered by position
	ListTasks(ctx context.Context, listID uuid.UUID, userID uuid.UUID, f TaskFilter) ([]models.Task, error)

	UpdateTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, upd TaskUpdate) (models.Task, error)

	// Flip completion, maintaining completed_at
	ToggleTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error)

	SetPosition(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, position decimal.Decimal) (models.Task, error)
	MaxPosition(ctx context.Context, listID uuid.UUID) (decimal.Decimal, error)

	DeleteTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) error
	DeleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error)
	CompleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error)
}

type TaskUpdate struct {
	Text      *string
	Completed *bool
	Priority  *string
	DueDate   *time.Time
}
