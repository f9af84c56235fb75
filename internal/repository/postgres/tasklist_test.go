package postgres

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
	"github.com/mishankov/taskhub/internal/testutil"
)

func newListOwner(t *testing.T, tx pgx.Tx) models.User {
	t.Helper()
	user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "Owner", "owner@example.com", "9876543210", "hash")
	require.NoError(t, err)
	return user
}

func Test_TaskListRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create with defaults", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TaskListRepo{DB: tx}
			owner := newListOwner(t, tx)

			list, err := r.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Groceries"})
			require.NoError(t, err)

			assert.Equal(t, "Groceries", list.Title)
			assert.Equal(t, models.DefaultListColor, list.Color)
			assert.False(t, list.IsArchived)
		})
	})

	t.Run("get scoped by owner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TaskListRepo{DB: tx}
			owner := newListOwner(t, tx)

			created, err := r.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Private"})
			require.NoError(t, err)

			got, err := r.GetList(t.Context(), created.ID, owner.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)

			// Someone else's id behaves like the list does not exist
			_, err = r.GetList(t.Context(), created.ID, uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrListNotFound)
		})
	})

	t.Run("list with search and pagination", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TaskListRepo{DB: tx}
			owner := newListOwner(t, tx)

			for i := range 5 {
				_, err := r.CreateList(t.Context(), models.TaskList{
					UserID: owner.ID,
					Title:  fmt.Sprintf("Work list %d", i),
				})
				require.NoError(t, err)
			}
			_, err := r.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Home chores"})
			require.NoError(t, err)

			// Search matches case insensitively
			lists, total, err := r.ListLists(t.Context(), owner.ID, repository.ListFilter{Search: "work"})
			require.NoError(t, err)
			assert.Equal(t, int64(5), total)
			assert.Len(t, lists, 5)

			// Pagination
			lists, total, err = r.ListLists(t.Context(), owner.ID, repository.ListFilter{Page: 2, Limit: 4})
			require.NoError(t, err)
			assert.Equal(t, int64(6), total, "total counts all matching rows, not the page")
			assert.Len(t, lists, 2)
		})
	})

	t.Run("unset limit defaults to 20 per page", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TaskListRepo{DB: tx}
			owner := newListOwner(t, tx)

			for i := range 25 {
				_, err := r.CreateList(t.Context(), models.TaskList{
					UserID: owner.ID,
					Title:  fmt.Sprintf("List %d", i),
				})
				require.NoError(t, err)
			}

			// Same default as the service layer clamp
			lists, total, err := r.ListLists(t.Context(), owner.ID, repository.ListFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(25), total)
			assert.Len(t, lists, 20)
		})
	})

	t.Run("archived lists are a separate view", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TaskListRepo{DB: tx}
			owner := newListOwner(t, tx)

			active, err := r.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Active"})
			require.NoError(t, err)
			archived, err := r.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Old"})
			require.NoError(t, err)

			_, err = r.SetArchived(t.Context(), archived.ID, owner.ID, true)
			require.NoError(t, err)

			lists, _, err := r.ListLists(t.Context(), owner.ID, repository.ListFilter{})
			require.NoError(t, err)
			require.Len(t, lists, 1)
			assert.Equal(t, active.ID, lists[0].ID)

			lists, _, err = r.ListLists(t.Context(), owner.ID, repository.ListFilter{Archived: true})
			require.NoError(t, err)
			require.Len(t, lists, 1)
			assert.Equal(t, archived.ID, lists[0].ID)
		})
	})

	t.Run("update", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TaskListRepo{DB: tx}
			owner := newListOwner(t, tx)

			created, err := r.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Old title"})
			require.NoError(t, err)

			updated, err := r.UpdateList(t.Context(), created.ID, owner.ID, repository.TaskListUpdate{
				Title: strPtr("New title"),
				Color: strPtr("#FF0000"),
			})
			require.NoError(t, err)

			assert.Equal(t, "New title", updated.Title)
			assert.Equal(t, "#FF0000", updated.Color)
			assert.Equal(t, created.Description, updated.Description)

			_, err = r.UpdateList(t.Context(), uuid.New(), owner.ID, repository.TaskListUpdate{Title: strPtr("x")})
			assert.ErrorIs(t, err, apperrors.ErrListNotFound)
		})
	})

	t.Run("delete cascades to tasks", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			listRepo := TaskListRepo{DB: tx}
			taskRepo := TaskRepo{DB: tx}
			owner := newListOwner(t, tx)

			list, err := listRepo.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Doomed"})
			require.NoError(t, err)

			created, err := taskRepo.CreateTask(t.Context(), models.Task{ListID: list.ID, UserID: owner.ID, Text: "task", Priority: models.PriorityMedium})
			require.NoError(t, err)

			require.NoError(t, listRepo.DeleteList(t.Context(), list.ID, owner.ID))

			_, err = taskRepo.GetTask(t.Context(), created.ID, owner.ID)
			assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

			err = listRepo.DeleteList(t.Context(), list.ID, owner.ID)
			assert.ErrorIs(t, err, apperrors.ErrListNotFound, "second delete finds nothing")
		})
	})

	t.Run("stats", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			listRepo := TaskListRepo{DB: tx}
			taskRepo := TaskRepo{DB: tx}
			owner := newListOwner(t, tx)

			list, err := listRepo.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Active"})
			require.NoError(t, err)
			archived, err := listRepo.CreateList(t.Context(), models.TaskList{UserID: owner.ID, Title: "Old"})
			require.NoError(t, err)
			_, err = listRepo.SetArchived(t.Context(), archived.ID, owner.ID, true)
			require.NoError(t, err)

			done, err := taskRepo.CreateTask(t.Context(), models.Task{ListID: list.ID, UserID: owner.ID, Text: "done", Priority: models.PriorityLow})
			require.NoError(t, err)
			_, err = taskRepo.CreateTask(t.Context(), models.Task{ListID: list.ID, UserID: owner.ID, Text: "open", Priority: models.PriorityLow})
			require.NoError(t, err)
			_, err = taskRepo.ToggleTask(t.Context(), done.ID, owner.ID)
			require.NoError(t, err)

			stats, err := listRepo.Stats(t.Context(), owner.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TaskListStats{Lists: 1, ArchivedLists: 1, Tasks: 2, CompletedTasks: 1}, stats)
		})
	})
}
