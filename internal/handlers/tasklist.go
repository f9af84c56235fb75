package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/handlers/render"
	"github.com/mishankov/taskhub/internal/handlers/userctx"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
)

func handleCreateList(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		Title       string `json:"title" validate:"required,min=1,max=100"`
		Description string `json:"description" validate:"max=500"`
		Color       string `json:"color" validate:"omitempty,hexcolor"`
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

		list, err := taskService.CreateList(r.Context(), u.ID, data.Title, data.Description, data.Color)
		if err != nil {
			l.Error("Failed to create list", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, http.StatusCreated, "List created successfully", list)
	})
}

func handleListLists(taskService taskService, l logger.Logger) http.Handler {
	type response struct {
		Lists []models.TaskList `json:"lists"`
		Total int64             `json:"total"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		query := r.URL.Query()
		filter := repository.ListFilter{
			Search:   query.Get("search"),
			Archived: query.Get("archived") == "true",
		}
		filter.Page, _ = strconv.Atoi(query.Get("page"))
		filter.Limit, _ = strconv.Atoi(query.Get("limit"))

		lists, total, err := taskService.ListLists(r.Context(), u.ID, filter)
		if err != nil {
			l.Error("Failed to list task lists", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if filter.Page < 1 {
			filter.Page = 1
		}
		if filter.Limit < 1 || filter.Limit > 100 {
			filter.Limit = 20
		}

		render.JSON(w, "", response{Lists: lists, Total: total, Page: filter.Page, Limit: filter.Limit})
	})
}

func handleGetList(taskService taskService, l logger.Logger) http.Handler {
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

		list, err := taskService.GetList(r.Context(), listID, u.ID)

		switch {
		case err == nil:
			render.JSON(w, "", list)
		case errors.Is(err, apperrors.ErrListNotFound):
			render.ServiceError(w, "List not found", http.StatusNotFound)
		default:
			l.Error("Failed to get list", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateList(taskService taskService, l logger.Logger) http.Handler {
	type request struct {
		Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
		Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
		Color       *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	}

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

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		list, err := taskService.UpdateList(r.Context(), listID, u.ID, repository.TaskListUpdate{
			Title:       data.Title,
			Description: data.Description,
			Color:       data.Color,
		})

		switch {
		case err == nil:
			render.JSON(w, "List updated successfully", list)
		case errors.Is(err, apperrors.ErrListNotFound):
			render.ServiceError(w, "List not found", http.StatusNotFound)
		default:
			l.Error("Failed to update list", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleArchiveList(taskService taskService, l logger.Logger, archived bool) http.Handler {
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

		list, err := taskService.SetListArchived(r.Context(), listID, u.ID, archived)

		message := "List archived successfully"
		if !archived {
			message = "List unarchived successfully"
		}

		switch {
		case err == nil:
			render.JSON(w, message, list)
		case errors.Is(err, apperrors.ErrListNotFound):
			render.ServiceError(w, "List not found", http.StatusNotFound)
		default:
			l.Error("Failed to archive list", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteList(taskService taskService, l logger.Logger) http.Handler {
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

		err = taskService.DeleteList(r.Context(), listID, u.ID)

		switch {
		case err == nil:
			render.JSON(w, "List deleted successfully", nil)
		case errors.Is(err, apperrors.ErrListNotFound):
			render.ServiceError(w, "List not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete list", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListStats(taskService taskService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		stats, err := taskService.Stats(r.Context(), u.ID)
		if err != nil {
			l.Error("Failed to get list stats", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, "", stats)
	})
}
