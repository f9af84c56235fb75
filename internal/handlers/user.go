package handlers

import (
	"errors"
	"net/http"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/handlers/render"
	"github.com/mishankov/taskhub/internal/handlers/userctx"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/service/user"
)

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, "", u.Public())
	})
}

func handleUserUpdate(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Name  *string `json:"name,omitempty" validate:"omitempty,min=3"`
		Email *string `json:"email,omitempty" validate:"omitempty,email"`
		Phone *string `json:"phone,omitempty" validate:"omitempty,phone"`
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

		updated, err := userService.UpdateProfile(r.Context(), u.ID, user.ProfileUpdate{
			Name:  data.Name,
			Email: data.Email,
			Phone: data.Phone,
		})

		switch {
		case err == nil:
			render.JSON(w, "Profile updated successfully", updated.Public())
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Email or phone already in use", http.StatusConflict)
		default:
			l.Error("Failed to update profile", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleChangePassword(userService userService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
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

		err = userService.ChangePassword(r.Context(), u.ID, data.CurrentPassword, data.NewPassword)

		switch {
		case err == nil:
			render.JSON(w, "Password changed successfully", nil)
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Current password is incorrect", http.StatusUnauthorized)
		default:
			l.Error("Failed to change password", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
