package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/mishankov/taskhub/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// Recovery turns panics into a 500 response instead of a dropped
// connection. Panics go to Sentry when it is initialized.
func Recovery(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}

				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.RecoverWithContext(r.Context(), rec)
				}

				l.Error("panic while handling request", "method", r.Method, "uri", r.RequestURI, "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
