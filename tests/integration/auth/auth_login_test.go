package auth

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mishankov/taskhub/internal/testutil"
	"github.com/mishankov/taskhub/tests/integration"
)

const (
	LoginURL = "/api/v1/user/login"
)

func Test_Login(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("login ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, _, err := s.AuthService.Register(t.Context(), "Nik", "nik@example.com", "9876543210", "StrongEnoughPassword")
			require.NoError(t, err)

			data := `{"email": "nik@example.com", "password": "StrongEnoughPassword"}`
			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), `"success":true`)
			require.Contains(t, string(body), "User logged in successfully")
			require.Contains(t, string(body), "nik@example.com")
			require.NotContains(t, string(body), "password")

			require.Equal(t, 2, len(resp.Cookies()), "access and refresh cookies should be set")
			cookies := map[string]*http.Cookie{}
			for _, c := range resp.Cookies() {
				cookies[c.Name] = c
			}

			access := cookies["accessToken"]
			require.NotNil(t, access, "access cookie should be set")
			require.True(t, access.HttpOnly, "access cookie should be HttpOnly")
			require.Equal(t, "/", access.Path)
			require.Equal(t, http.SameSiteStrictMode, access.SameSite)
			require.InDelta(t, time.Minute.Seconds(), access.MaxAge, 1, "max age should be access TTL")
			require.NotEmpty(t, access.Value)

			refresh := cookies["refreshToken"]
			require.NotNil(t, refresh, "refresh cookie should be set")
			require.True(t, refresh.HttpOnly, "refresh cookie should be HttpOnly")
			require.InDelta(t, time.Hour.Seconds(), refresh.MaxAge, 1, "max age should be refresh TTL")
			require.NotEmpty(t, refresh.Value)
		})
	})

	t.Run("login mixed case email ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, _, err := s.AuthService.Register(t.Context(), "Nik", "nik@example.com", "9876543210", "StrongEnoughPassword")
			require.NoError(t, err)

			data := `{"email": "NIK@Example.COM", "password": "StrongEnoughPassword"}`
			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusOK, resp.StatusCode, "email should be matched case insensitively")
		})
	})

	t.Run("login failed", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, _ integration.Services) {
			data := `{"email": "nik@example.com", "password": "WrongPassword"}`

			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"success": false,
					"error": "service_error",
					"message": "Invalid credentials"
				}`, string(body))

			require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
		})
	})
}
