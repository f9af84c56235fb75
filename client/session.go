// Package client is the Go API client for the taskhub service
// It mirrors the session state a browser SPA would keep: who is logged
// in, whether the session is known yet, and the cached token pair.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Sanitized user as the API returns it
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Cached token pair
// The access token authenticates requests, the refresh token is only
// sent to the refresh endpoint
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenCache persists tokens between runs
// Load returns ok=false when there is nothing cached
type TokenCache interface {
	Load() (Tokens, bool, error)
	Store(Tokens) error
	Clear() error
}

type apiEnvelope struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

// APIError is a non-2xx response from the service
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Kind, e.Message)
}

// Session mirrors the server side session state
// Until Boot finishes the session is loading and route guards should
// hold their decision
type Session struct {
	baseURL string
	cache   TokenCache
	client  *http.Client

	mu            sync.RWMutex
	user          *User
	authenticated bool
	loading       bool
	tokens        Tokens
}

func New(baseURL string, cache TokenCache) *Session {
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		cache:   cache,
		client:  &http.Client{Timeout: 15 * time.Second},
		loading: true,
	}
}

// Boot reconciles the cached tokens with the server, exactly once
// A cached token that the server rejects is dropped and the session
// becomes anonymous, it never fails the boot itself
func (s *Session) Boot(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if s.cache == nil {
		return nil
	}

	tokens, ok, err := s.cache.Load()
	if err != nil {
		return fmt.Errorf("error while loading cached tokens. Err: %w", err)
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	var user User
	if err := s.call(ctx, http.MethodGet, "/user/me", nil, &user); err != nil {
		// Server said no, the cache is stale
		s.becomeAnonymous()
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.authenticated = true
	s.mu.Unlock()

	return nil
}

// Register creates an account and opens a session
// State flips only when the server confirmed
func (s *Session) Register(ctx context.Context, name, email, phone, password string) (User, error) {
	body := map[string]string{"name": name, "email": email, "phone": phone, "password": password}

	var user User
	if err := s.callAuth(ctx, "/user/register", body, &user); err != nil {
		return User{}, err
	}

	return user, nil
}

func (s *Session) Login(ctx context.Context, email, password string) (User, error) {
	body := map[string]string{"email": email, "password": password}

	var user User
	if err := s.callAuth(ctx, "/user/login", body, &user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Logout makes the session anonymous immediately
// The server call is best-effort: a dead server must not keep a client
// logged in
func (s *Session) Logout(ctx context.Context) {
	s.mu.RLock()
	access := s.tokens.Access
	s.mu.RUnlock()

	s.becomeAnonymous()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/user/logout", nil)
	if err != nil {
		return
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	if resp, err := s.client.Do(req); err == nil {
		_ = resp.Body.Close()
	}
}

// Refresh trades the cached refresh token for a new pair
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	refresh := s.tokens.Refresh
	s.mu.RUnlock()

	if refresh == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Message: "no refresh token cached"}
	}

	body := map[string]string{"refresh_token": refresh}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/user/refresh-token", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if _, err := decodeEnvelope(resp, nil); err != nil {
		return err
	}

	s.storeTokensFromCookies(resp)
	return nil
}

func (s *Session) Me(ctx context.Context) (User, error) {
	var user User
	if err := s.call(ctx, http.MethodGet, "/user/me", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Route guards read these two and nothing else
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// callAuth posts to login or register and flips the session state on success
func (s *Session) callAuth(ctx context.Context, path string, body any, user *User) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if _, err := decodeEnvelope(resp, user); err != nil {
		return err
	}

	s.storeTokensFromCookies(resp)

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.mu.Unlock()

	return nil
}

// call makes an authenticated API request and decodes data into out
func (s *Session) call(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.mu.RLock()
	access := s.tokens.Access
	s.mu.RUnlock()
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	_, err = decodeEnvelope(resp, out)
	return err
}

func (s *Session) becomeAnonymous() {
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.tokens = Tokens{}
	s.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.Clear()
	}
}

// The server hands tokens out as cookies, keep them in the cache too
func (s *Session) storeTokensFromCookies(resp *http.Response) {
	tokens := Tokens{}
	for _, c := range resp.Cookies() {
		switch c.Name {
		case "accessToken":
			tokens.Access = c.Value
		case "refreshToken":
			tokens.Refresh = c.Value
		}
	}

	if tokens.Access == "" && tokens.Refresh == "" {
		return
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.Store(tokens)
	}
}

func decodeEnvelope(resp *http.Response, out any) (apiEnvelope, error) {
	var envelope apiEnvelope

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return envelope, err
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return envelope, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		return envelope, &APIError{
			StatusCode: resp.StatusCode,
			Kind:       envelope.Error,
			Message:    envelope.Message,
			Fields:     envelope.Fields,
		}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return envelope, fmt.Errorf("can't decode response data: %w", err)
		}
	}

	return envelope, nil
}
