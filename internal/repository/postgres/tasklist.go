package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
)

type TaskListRepo struct {
	DB DBTX
}

const createList = `-- name: CreateList
INSERT INTO task_lists (id, user_id, title, description, color)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, created_at, updated_at, title, description, color, is_archived
`

func (r *TaskListRepo) CreateList(ctx context.Context, list models.TaskList) (models.TaskList, error) {
	id := list.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	color := list.Color
	if color == "" {
		color = models.DefaultListColor
	}

	rows, _ := r.DB.Query(ctx, createList, id, list.UserID, list.Title, list.Description, color)
	created, err := pgx.CollectOneRow(rows, rowToTaskList)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getList = `-- name: GetList
SELECT id, user_id, created_at, updated_at, title, description, color, is_archived
FROM task_lists
WHERE id = $1 AND user_id = $2
`

func (r *TaskListRepo) GetList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) (models.TaskList, error) {
	rows, _ := r.DB.Query(ctx, getList, listID, userID)
	list, err := pgx.CollectOneRow(rows, rowToTaskList)

	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, pgx.ErrNoRows):
		return list, apperrors.ErrListNotFound
	default:
		return list, fmt.Errorf("db error: %w", err)
	}
}

const listLists = `-- name: ListLists
SELECT id, user_id, created_at, updated_at, title, description, color, is_archived,
       count(*) OVER () AS total
FROM task_lists
WHERE user_id = $1
  AND is_archived = $2
  AND ($3 = '' OR title ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

func (r *TaskListRepo) ListLists(ctx context.Context, userID uuid.UUID, f repository.ListFilter) ([]models.TaskList, int64, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	var total int64
	rows, _ := r.DB.Query(ctx, listLists, userID, f.Archived, f.Search, limit, (page-1)*limit)
	lists, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TaskList, error) {
		var l models.TaskList
		err := row.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.UpdatedAt, &l.Title, &l.Description, &l.Color, &l.IsArchived, &total)
		return l, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return lists, total, nil
}

const updateList = `-- name: UpdateList
UPDATE task_lists
SET title = COALESCE($3, title),
    description = COALESCE($4, description),
    color = COALESCE($5, color),
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, created_at, updated_at, title, description, color, is_archived
`

func (r *TaskListRepo) UpdateList(ctx context.Context, listID uuid.UUID, userID uuid.UUID, upd repository.TaskListUpdate) (models.TaskList, error) {
	rows, _ := r.DB.Query(ctx, updateList, listID, userID, upd.Title, upd.Description, upd.Color)
	list, err := pgx.CollectOneRow(rows, rowToTaskList)

	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, pgx.ErrNoRows):
		return list, apperrors.ErrListNotFound
	default:
		return list, fmt.Errorf("db error: %w", err)
	}
}

const setListArchived = `-- name: SetListArchived
UPDATE task_lists
SET is_archived = $3, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, created_at, updated_at, title, description, color, is_archived
`

func (r *TaskListRepo) SetArchived(ctx context.Context, listID uuid.UUID, userID uuid.UUID, archived bool) (models.TaskList, error) {
	rows, _ := r.DB.Query(ctx, setListArchived, listID, userID, archived)
	list, err := pgx.CollectOneRow(rows, rowToTaskList)

	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, pgx.ErrNoRows):
		return list, apperrors.ErrListNotFound
	default:
		return list, fmt.Errorf("db error: %w", err)
	}
}

const deleteList = `-- name: DeleteList
DELETE FROM task_lists
WHERE id = $1 AND user_id = $2
`

// Delete list
// Tasks of the list go with it (ON DELETE CASCADE)
func (r *TaskListRepo) DeleteList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteList, listID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrListNotFound
	}

	return nil
}

const listStats = `-- name: ListStats
SELECT
	(SELECT count(*) FROM task_lists WHERE user_id = $1 AND NOT is_archived),
	(SELECT count(*) FROM task_lists WHERE user_id = $1 AND is_archived),
	(SELECT count(*) FROM tasks WHERE user_id = $1),
	(SELECT count(*) FROM tasks WHERE user_id = $1 AND completed)
`

func (r *TaskListRepo) Stats(ctx context.Context, userID uuid.UUID) (models.TaskListStats, error) {
	var s models.TaskListStats
	err := r.DB.QueryRow(ctx, listStats, userID).Scan(&s.Lists, &s.ArchivedLists, &s.Tasks, &s.CompletedTasks)
	if err != nil {
		return s, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func rowToTaskList(row pgx.CollectableRow) (models.TaskList, error) {
	var l models.TaskList
	err := row.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.UpdatedAt, &l.Title, &l.Description, &l.Color, &l.IsArchived)
	return l, err
}
