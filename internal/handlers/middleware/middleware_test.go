package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/handlers/userctx"
	"github.com/mishankov/taskhub/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, r *http.Request) (models.User, error)

func (f authFunc) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	return f(ctx, r)
}

func TestRequireAuth(t *testing.T) {
	// Simple handler that try to get user from context
	// If ok write it name to response
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set user to response or write error to response
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Name))
		require.NoError(t, err, "should write name to response")
	})

	t.Run("auth ok", func(t *testing.T) {
		middleware := RequireAuth(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{Name: "test-user"}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", string(body))
		require.Equal(t, "test-user", string(body), "should return name in response")
	})

	tests := []struct {
		name     string
		authErr  error
		expected string
	}{
		{"no token", apperrors.ErrTokenMissing, "Access token is required"},
		{"expired token", apperrors.ErrTokenExpired, "Access token expired"},
		{"bad token", apperrors.ErrTokenInvalid, "Invalid access token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			middleware := RequireAuth(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
				return models.User{}, tc.authErr
			}))

			srv := httptest.NewServer(middleware(handler))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/test")
			require.NoError(t, err, "should make request to test server")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "should read response body")
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.JSONEq(t,
				`{
					"success": false,
					"error": "service_error",
					"message": "`+tc.expected+`"
				}`,
				string(body),
			)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := userctx.FromContext(r.Context()); ok {
			_, _ = w.Write([]byte(user.Name))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})

	t.Run("valid token sets the user", func(t *testing.T) {
		middleware := OptionalAuth(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{Name: "test-user"}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, "test-user", string(body))
	})

	t.Run("no token still passes through", func(t *testing.T) {
		middleware := OptionalAuth(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{}, apperrors.ErrTokenMissing
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "anonymous", string(body))
	})
}

type loggerFunc func(string, ...any)

func (f loggerFunc) Info(msg string, v ...any) { f(msg, v...) }

func TestLoggerMiddleware(t *testing.T) {
	called := 0
	var msg string
	var args []any

	logger := loggerFunc(func(m string, v ...any) {
		called++
		msg = m
		args = v
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, err := w.Write([]byte("hi"))
		require.NoError(t, err, "should write response")
	})

	middleware := LoggerMiddleware(logger)
	srv := httptest.NewServer(middleware(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/test")
	require.NoError(t, err, "should make request to test server")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")
	defer resp.Body.Close() // nolint:errcheck

	require.Equalf(t, http.StatusTeapot, resp.StatusCode, "should return status Teapot. Resp: %s", string(body))
	require.Equal(t, "hi", string(body), "should return 'hi' in response")

	require.Equal(t, 1, called, "logger should be called once")
	require.Equal(t, "got HTTP request", msg, "logger should log 'got HTTP request'")
	require.Len(t, args, 10, "logger should log 10 fields")
	require.Equal(t, "method", args[0])
	require.Equal(t, "GET", args[1])
	require.Equal(t, "uri", args[2])
	require.Equal(t, "/test", args[3])
	require.Equal(t, "duration", args[4])
	require.NotEmpty(t, args[5], "duration should not be empty")
	require.Equal(t, "status", args[6])
	require.Equal(t, http.StatusTeapot, args[7])
	require.Equal(t, "size", args[8])
	require.Equal(t, 2, args[9], "size should be 2 (length of 'hi')")
}

func TestCORS(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := CORS([]string{"https://taskhub.example"})
	srv := httptest.NewServer(middleware(h))
	defer srv.Close()

	t.Run("allowed origin gets credentials", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://taskhub.example")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, "https://taskhub.example", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight is short circuited", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://taskhub.example")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://evil.example")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestRecovery(t *testing.T) {
	var logged string
	l := errLoggerFunc(func(msg string, _ ...any) { logged = msg })

	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	middleware := Recovery(l)
	srv := httptest.NewServer(middleware(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/test")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t,
		`{
			"success": false,
			"error": "service_error",
			"message": "Internal server error"
		}`,
		string(body),
	)
	require.Equal(t, "panic while handling request", logged)
}

type errLoggerFunc func(string, ...any)

func (f errLoggerFunc) Error(msg string, v ...any) { f(msg, v...) }
