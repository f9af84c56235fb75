package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
)

type TaskRepo struct {
	DB DBTX
}

const taskColumns = `id, list_id, user_id, created_at, updated_at, text, completed, completed_at, priority, due_date, position`

// New tasks land at the end of the list
const createTask = `-- name: CreateTask
INSERT INTO tasks (id, list_id, user_id, text, priority, due_date, position)
SELECT $1, $2, $3, $4, $5, $6, COALESCE(max(position), 0) + 1
FROM tasks
WHERE list_id = $2
RETURNING ` + taskColumns

func (r *TaskRepo) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	id := task.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	priority := task.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	rows, _ := r.DB.Query(ctx, createTask, id, task.ListID, task.UserID, task.Text, priority, task.DueDate)
	created, err := pgx.CollectOneRow(rows, rowToTask)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTask = `-- name: GetTask
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1 AND user_id = $2
`

func (r *TaskRepo) GetTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, getTask, taskID, userID)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const listTasks = `-- name: ListTasks
SELECT ` + taskColumns + `
FROM tasks
WHERE list_id = $1 AND user_id = $2
  AND ($3::boolean IS NULL OR completed = $3)
  AND ($4 = '' OR priority = $4)
ORDER BY position
`

func (r *TaskRepo) ListTasks(ctx context.Context, listID uuid.UUID, userID uuid.UUID, f repository.TaskFilter) ([]models.Task, error) {
	rows, _ := r.DB.Query(ctx, listTasks, listID, userID, f.Completed, f.Priority)
	tasks, err := pgx.CollectRows(rows, rowToTask)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tasks, nil
}

// completed_at follows the completed flag: set when the flag turns on,
// cleared when it turns off
const updateTask = `-- name: UpdateTask
UPDATE tasks
SET text = COALESCE($3, text),
    completed = COALESCE($4, completed),
    completed_at = CASE
        WHEN $4::boolean IS NULL THEN completed_at
        WHEN $4 AND NOT completed THEN now()
        WHEN NOT $4 THEN NULL
        ELSE completed_at
    END,
    priority = COALESCE($5, priority),
    due_date = COALESCE($6, due_date),
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + taskColumns

func (r *TaskRepo) UpdateTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, upd repository.TaskUpdate) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, updateTask, taskID, userID, upd.Text, upd.Completed, upd.Priority, upd.DueDate)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const toggleTask = `-- name: ToggleTask
UPDATE tasks
SET completed = NOT completed,
    completed_at = CASE WHEN completed THEN NULL ELSE now() END,
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + taskColumns

func (r *TaskRepo) ToggleTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, toggleTask, taskID, userID)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const setTaskPosition = `-- name: SetTaskPosition
UPDATE tasks
SET position = $3, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + taskColumns

func (r *TaskRepo) SetPosition(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, position decimal.Decimal) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, setTaskPosition, taskID, userID, position)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const maxTaskPosition = `-- name: MaxTaskPosition
SELECT COALESCE(max(position), 0)
FROM tasks
WHERE list_id = $1
`

func (r *TaskRepo) MaxPosition(ctx context.Context, listID uuid.UUID) (decimal.Decimal, error) {
	var max decimal.Decimal
	err := r.DB.QueryRow(ctx, maxTaskPosition, listID).Scan(&max)
	if err != nil {
		return max, fmt.Errorf("db error: %w", err)
	}

	return max, nil
}

const deleteTask = `-- name: DeleteTask
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`

func (r *TaskRepo) DeleteTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTask, taskID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}

	return nil
}

const deleteTasks = `-- name: DeleteTasks
DELETE FROM tasks
WHERE id = ANY($1) AND user_id = $2
`

func (r *TaskRepo) DeleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteTasks, taskIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

const completeTasks = `-- name: CompleteTasks
UPDATE tasks
SET completed = true,
    completed_at = COALESCE(completed_at, now()),
    updated_at = now()
WHERE id = ANY($1) AND user_id = $2
`

func (r *TaskRepo) CompleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error) {
	tag, err := r.DB.Exec(ctx, completeTasks, taskIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func rowToTask(row pgx.CollectableRow) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ListID, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.Text, &t.Completed, &t.CompletedAt, &t.Priority, &t.DueDate, &t.Position)
	return t, err
}
