package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/handlers/render"
	"github.com/mishankov/taskhub/internal/handlers/userctx"
	"github.com/mishankov/taskhub/internal/models"
)

type authService interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// RequireAuth rejects requests without a valid access token
// The message tells the client what exactly went wrong so it knows
// whether a refresh is worth trying
func RequireAuth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.UserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, authFailureMessage(err), http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth puts the user in the context when the token is valid and
// lets the request through either way
func OptionalAuth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := as.UserFromRequest(r.Context(), r); err == nil {
				r = r.WithContext(userctx.New(r.Context(), user))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrTokenMissing):
		return "Access token is required"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return "Access token expired"
	default:
		return "Invalid access token"
	}
}
