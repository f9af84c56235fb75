package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/handlers/render"
	"github.com/mishankov/taskhub/internal/handlers/userctx"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/repository"
)

func handleCreateTask(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		ListID   uuid.UUID  `json:"list_id" validate:"required"`
		Text     string     `json:"text" validate:"required,min=1,max=1000"`
		Priority string     `json:"priority" validate:"omitempty,oneof=low medium high"`
		DueDate  *time.Time `json:"due_date,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		task, err := taskService.CreateTask(r.Context(), data.ListID, u.ID, data.Text, data.Priority, data.DueDate)

		switch {
		case err == nil:
			render.JSONWithStatus(w, http.StatusCreated, "Task created successfully", task)
		case errors.Is(err, apperrors.ErrListNotFound):
			render.ServiceError(w, "List not found", http.StatusNotFound)
		default:
			l.Error("Failed to create task", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListTasks(taskService taskService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		listID, err := uuid.Parse(r.PathValue("listID"))
		if err != nil {
			render.ServiceError(w, "Invalid list id", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()
		filter := repository.TaskFilter{Priority: query.Get("priority")}
		if v := query.Get("completed"); v == "true" || v == "false" {
			completed := v == "true"
			filter.Completed = &completed
		}

		tasks, err := taskService.ListTasks(r.Context(), listID, u.ID, filter)

		switch {
		case err == nil:
			render.JSON(w, "", tasks)
		case errors.Is(err, apperrors.ErrListNotFound):
			render.ServiceError(w, "List not found", http.StatusNotFound)
		default:
			l.Error("Failed to list tasks", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateTask(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		Text      *string    `json:"text,omitempty" validate:"omitempty,min=1,max=1000"`
		Completed *bool      `json:"completed,omitempty"`
		Priority  *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
		DueDate   *time.Time `json:"due_date,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		taskID, err := uuid.Parse(r.PathValue("taskID"))
		if err != nil {
			render.ServiceError(w, "Invalid task id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		task, err := taskService.UpdateTask(r.Context(), taskID, u.ID, repository.TaskUpdate{
			Text:      data.Text,
			Completed: data.Completed,
			Priority:  data.Priority,
			DueDate:   data.DueDate,
		})

		switch {
		case err == nil:
			render.JSON(w, "Task updated successfully", task)
		case errors.Is(err, apperrors.ErrTaskNotFound):
			render.ServiceError(w, "Task not found", http.StatusNotFound)
		default:
			l.Error("Failed to update task", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetTask(taskService taskService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		taskID, err := uuid.Parse(r.PathValue("taskID"))
		if err != nil {
			render.ServiceError(w, "Invalid task id", http.StatusBadRequest)
			return
		}

		task, err := taskService.GetTask(r.Context(), taskID, u.ID)

		switch {
		case err == nil:
			render.JSON(w, "", task)
		case errors.Is(err, apperrors.ErrTaskNotFound):
			render.ServiceError(w, "Task not found", http.StatusNotFound)
		default:
			l.Error("Failed to get task", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleToggleTask(taskService taskService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		taskID, err := uuid.Parse(r.PathValue("taskID"))
		if err != nil {
			render.ServiceError(w, "Invalid task id", http.StatusBadRequest)
			return
		}

		task, err := taskService.ToggleTask(r.Context(), taskID, u.ID)

		switch {
		case err == nil:
			render.JSON(w, "Task toggled successfully", task)
		case errors.Is(err, apperrors.ErrTaskNotFound):
			render.ServiceError(w, "Task not found", http.StatusNotFound)
		default:
			l.Error("Failed to toggle task", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleReorderTask(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		BeforeID *uuid.UUID `json:"before_id,omitempty"`
		AfterID  *uuid.UUID `json:"after_id,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		taskID, err := uuid.Parse(r.PathValue("taskID"))
		if err != nil {
			render.ServiceError(w, "Invalid task id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		task, err := taskService.MoveTask(r.Context(), taskID, u.ID, data.BeforeID, data.AfterID)

		switch {
		case err == nil:
			render.JSON(w, "Task reordered successfully", task)
		case errors.Is(err, apperrors.ErrTaskNotFound):
			render.ServiceError(w, "Task not found", http.StatusNotFound)
		default:
			l.Error("Failed to reorder task", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteTask(taskService taskService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		taskID, err := uuid.Parse(r.PathValue("taskID"))
		if err != nil {
			render.ServiceError(w, "Invalid task id", http.StatusBadRequest)
			return
		}

		err = taskService.DeleteTask(r.Context(), taskID, u.ID)

		switch {
		case err == nil:
			render.JSON(w, "Task deleted successfully", nil)
		case errors.Is(err, apperrors.ErrTaskNotFound):
			render.ServiceError(w, "Task not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete task", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleBulkCompleteTasks(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1"`
	}
	type response struct {
		Affected int64 `json:"affected"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		affected, err := taskService.CompleteTasks(r.Context(), data.TaskIDs, u.ID)
		if err != nil {
			l.Error("Failed to complete tasks", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, "Tasks completed successfully", response{Affected: affected})
	})
}

func handleBulkDeleteTasks(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1"`
	}
	type response struct {
		Affected int64 `json:"affected"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		affected, err := taskService.DeleteTasks(r.Context(), data.TaskIDs, u.ID)
		if err != nil {
			l.Error("Failed to delete tasks", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, "Tasks deleted successfully", response{Affected: affected})
	})
}
