package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/handlers/render"
	"github.com/mishankov/taskhub/internal/handlers/userctx"
	"github.com/mishankov/taskhub/internal/logger"
)

func handleRegister(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Name     string `json:"name" validate:"required,min=3"`
		Email    string `json:"email" validate:"required,email"`
		Phone    string `json:"phone" validate:"required,phone"`
		Password string `json:"password" validate:"required,min=6"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Register(r.Context(), data.Name, data.Email, data.Phone, data.Password)

		switch {
		case err == nil:
			auth.SetTokenPair(w, pair)
			render.JSONWithStatus(w, http.StatusCreated, "User registered successfully", user.Public())
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User with this email or phone already exists", http.StatusConflict)
		default:
			l.Error("Failed to register user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Login(r.Context(), data.Email, data.Password)

		switch {
		case err == nil:
			auth.SetTokenPair(w, pair)
			render.JSON(w, "User logged in successfully", user.Public())
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// Logout always succeeds and always clears the cookies, even for
// requests with no valid session at all
func handleLogout(auth authService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := userctx.FromContext(r.Context()); ok {
			auth.Logout(r.Context(), user.ID)
		}

		auth.ClearTokenPair(w)
		render.JSON(w, "User logged out successfully", nil)
	})
}

func handleTokenRefresh(auth authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Cookie first, request body as a fallback for non-browser clients
		refresh, err := auth.ReadRefreshToken(r)
		if err != nil {
			var data request
			_ = json.NewDecoder(r.Body).Decode(&data)
			refresh = data.RefreshToken
		}
		if refresh == "" {
			render.ServiceError(w, "Refresh token is required", http.StatusUnauthorized)
			return
		}

		pair, err := auth.Refresh(r.Context(), refresh)

		switch {
		case err == nil:
			auth.SetTokenPair(w, pair)
			render.JSON(w, "Tokens refreshed successfully", nil)
		case errors.Is(err, apperrors.ErrTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrTokenInvalid):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh tokens", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// The response is the same whether the account exists or not
func handleForgotPassword(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := auth.ForgotPassword(r.Context(), data.Email); err != nil {
			l.Error("Failed to start password recovery", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, "If an account with this email exists, a reset link has been sent", nil)
	})
}

func handleResetPassword(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Password string `json:"password" validate:"required,min=6"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("userID"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}
		secret := r.PathValue("token")

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = auth.ResetPassword(r.Context(), userID, secret, data.Password)

		switch {
		case err == nil:
			render.JSON(w, "Password has been reset successfully", nil)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrResetTokenInvalid):
			render.ServiceError(w, "Reset link is invalid or expired", http.StatusBadRequest)
		default:
			l.Error("Failed to reset password", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
