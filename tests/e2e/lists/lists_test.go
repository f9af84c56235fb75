package lists

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/testutil"
	"github.com/mishankov/taskhub/tests/e2e"
)

const (
	ListsURL = "/api/v1/lists"
	StatsURL = "/api/v1/lists/stats"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func register(t *testing.T, client *http.Client, srvURL string, email string, phone string) {
	t.Helper()

	data := `{"name": "Nik", "email": "` + email + `", "phone": "` + phone + `", "password": "StrongEnoughPassword"}`
	code, _ := doJSON(t, client, http.MethodPost, srvURL+"/api/v1/user/register", data)
	require.Equal(t, http.StatusCreated, code)
}

func Test_Lists(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("list lifecycle", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(_ pgx.Tx, srvURL string, _ e2e.Services) {
			client := e2e.CookieClient(t)
			register(t, client, srvURL, "nik@example.com", "9876543210")

			code, env := doJSON(t, client, http.MethodPost, srvURL+ListsURL, `{"title": "Groceries"}`)
			require.Equal(t, http.StatusCreated, code)
			require.Equal(t, "List created successfully", env.Message)

			var list models.TaskList
			require.NoError(t, json.Unmarshal(env.Data, &list))
			require.Equal(t, "Groceries", list.Title)
			require.Equal(t, models.DefaultListColor, list.Color, "color defaults when not provided")

			code, env = doJSON(t, client, http.MethodPut, srvURL+ListsURL+"/"+list.ID.String(), `{"title": "Weekend groceries", "color": "#FF8800"}`)
			require.Equal(t, http.StatusOK, code)
			require.NoError(t, json.Unmarshal(env.Data, &list))
			require.Equal(t, "Weekend groceries", list.Title)
			require.Equal(t, "#FF8800", list.Color)

			code, env = doJSON(t, client, http.MethodPatch, srvURL+ListsURL+"/"+list.ID.String()+"/archive", "")
			require.Equal(t, http.StatusOK, code)
			require.NoError(t, json.Unmarshal(env.Data, &list))
			require.True(t, list.IsArchived)

			// Archived lists disappear from the default view
			code, env = doJSON(t, client, http.MethodGet, srvURL+ListsURL, "")
			require.Equal(t, http.StatusOK, code)
			var page struct {
				Lists []models.TaskList `json:"lists"`
				Total int64             `json:"total"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &page))
			require.Equal(t, int64(0), page.Total)

			code, env = doJSON(t, client, http.MethodGet, srvURL+ListsURL+"?archived=true", "")
			require.Equal(t, http.StatusOK, code)
			require.NoError(t, json.Unmarshal(env.Data, &page))
			require.Equal(t, int64(1), page.Total)

			code, _ = doJSON(t, client, http.MethodDelete, srvURL+ListsURL+"/"+list.ID.String(), "")
			require.Equal(t, http.StatusOK, code)

			code, _ = doJSON(t, client, http.MethodGet, srvURL+ListsURL+"/"+list.ID.String(), "")
			require.Equal(t, http.StatusNotFound, code)
		})
	})

	t.Run("lists are private", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(_ pgx.Tx, srvURL string, _ e2e.Services) {
			owner := e2e.CookieClient(t)
			register(t, owner, srvURL, "owner@example.com", "9876543210")

			code, env := doJSON(t, owner, http.MethodPost, srvURL+ListsURL, `{"title": "Private"}`)
			require.Equal(t, http.StatusCreated, code)
			var list models.TaskList
			require.NoError(t, json.Unmarshal(env.Data, &list))

			stranger := e2e.CookieClient(t)
			register(t, stranger, srvURL, "stranger@example.com", "9000000000")

			code, _ = doJSON(t, stranger, http.MethodGet, srvURL+ListsURL+"/"+list.ID.String(), "")
			require.Equal(t, http.StatusNotFound, code, "foreign lists should look like they do not exist")

			code, _ = doJSON(t, stranger, http.MethodDelete, srvURL+ListsURL+"/"+list.ID.String(), "")
			require.Equal(t, http.StatusNotFound, code)
		})
	})

	t.Run("stats", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(_ pgx.Tx, srvURL string, _ e2e.Services) {
			client := e2e.CookieClient(t)
			register(t, client, srvURL, "nik@example.com", "9876543210")

			code, env := doJSON(t, client, http.MethodPost, srvURL+ListsURL, `{"title": "Active"}`)
			require.Equal(t, http.StatusCreated, code)
			var list models.TaskList
			require.NoError(t, json.Unmarshal(env.Data, &list))

			code, _ = doJSON(t, client, http.MethodPost, srvURL+"/api/v1/tasks", `{"list_id": "`+list.ID.String()+`", "text": "buy milk"}`)
			require.Equal(t, http.StatusCreated, code)

			code, env = doJSON(t, client, http.MethodGet, srvURL+StatsURL, "")
			require.Equal(t, http.StatusOK, code)
			require.JSONEq(t, `
				{
					"lists": 1,
					"archived_lists": 0,
					"tasks": 1,
					"completed_tasks": 0
				}`, string(env.Data))
		})
	})
}
